package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-revisions/internal/identifier"
	"github.com/goliatone/go-revisions/internal/runtimeconfig"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
	if cfg.UsesBun() {
		t.Fatal("expected memory storage by default")
	}
	if got := cfg.EnabledLocales(); len(got) != 1 || got[0] != "en" {
		t.Fatalf("unexpected enabled locales %v", got)
	}
}

func TestConfigValidate_RejectsInvalidDelimiter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Delimiter = "ab"

	err := cfg.Validate()
	if !errors.Is(err, identifier.ErrInvalidDelimiter) {
		t.Fatalf("expected ErrInvalidDelimiter, got %v", err)
	}
}

func TestConfigValidate_RequiresEnabledDefaultLocale(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = "sv"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrDefaultLocaleDisabled) {
		t.Fatalf("expected ErrDefaultLocaleDisabled, got %v", err)
	}

	cfg.DefaultLocale = " "
	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsDuplicateLocales(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales = append(cfg.Locales, runtimeconfig.LocaleConfig{Code: "EN", Enabled: true})

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrDuplicateLocale) {
		t.Fatalf("expected ErrDuplicateLocale, got %v", err)
	}
}

func TestConfigValidate_IndexableKindNeedsKeys(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Kinds["pages"] = runtimeconfig.KindConfig{Indexable: true}

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrIndexRequiresKeys) {
		t.Fatalf("expected ErrIndexRequiresKeys, got %v", err)
	}
}

func TestConfigValidate_KindNameMustNotHoldDelimiter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Kinds["landing_pages"] = runtimeconfig.KindConfig{}

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrKindNameInvalid) {
		t.Fatalf("expected ErrKindNameInvalid, got %v", err)
	}

	cfg.Delimiter = "."
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected kind name valid under another delimiter, got %v", err)
	}
}

func TestConfigValidate_RedisNeedsAddress(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Redis.Enabled = true

	if err := cfg.Validate(); !errors.Is(err, runtimeconfig.ErrRedisAddrRequired) {
		t.Fatalf("expected ErrRedisAddrRequired, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownLoggingProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "syslog"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingProviderUnknown) {
		t.Fatalf("expected ErrLoggingProviderUnknown, got %v", err)
	}
}

func TestConfigValidate_RejectsInvalidLoggingFormat(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if !errors.Is(err, runtimeconfig.ErrLoggingFormatInvalid) {
		t.Fatalf("expected ErrLoggingFormatInvalid, got %v", err)
	}
}

func TestConfigValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Provider = "bun"
	cfg.Storage.Driver = "oracle"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestLoadDecodesOverDefaults(t *testing.T) {
	doc := `
default_locale: sv
delimiter: "|"
tables:
  i18n_prefix: cms_
locales:
  - code: sv
    name: Svenska
    enabled: true
  - code: en
    name: English
    enabled: false
kinds:
  posts:
    default_template: post
    cache_keys_to_flush: ["posts:{id}"]
storage:
  provider: bun
  driver: sqlite
  migrate: true
commands:
  timeout: 5s
`
	cfg, err := runtimeconfig.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Delimiter != "|" || cfg.DefaultLocale != "sv" {
		t.Fatalf("unexpected scalars %+v", cfg)
	}
	if cfg.Tables.Resolve().Terms != "cms_i18n_terms" {
		t.Fatalf("expected prefixed terms table, got %s", cfg.Tables.Resolve().Terms)
	}
	if _, ok := cfg.Kinds["pages"]; !ok {
		t.Fatal("expected default pages kind to survive")
	}
	if cfg.Kinds["posts"].DefaultTemplate != "post" {
		t.Fatalf("unexpected posts kind %+v", cfg.Kinds["posts"])
	}
	if !cfg.UsesBun() || !cfg.Storage.Migrate {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if cfg.Commands.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.Commands.Timeout)
	}
	if got := cfg.EnabledLocales(); len(got) != 1 || got[0] != "sv" {
		t.Fatalf("unexpected enabled locales %v", got)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	if _, err := runtimeconfig.Load(strings.NewReader("unknown: true\n")); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestLoadFileEmptyDocumentKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revisions.yaml")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.DefaultLocale != "en" {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestApplyEnvOverlaysVariables(t *testing.T) {
	env := map[string]string{
		"REVISIONS_LOCALES":         "en:English, sv",
		"REVISIONS_DB_DSN":          "file:test.db",
		"REVISIONS_DB_MIGRATE":      "true",
		"REVISIONS_REDIS_ADDR":      "localhost:6379",
		"REVISIONS_REDIS_DB":        "2",
		"REVISIONS_COMMAND_TIMEOUT": "2s",
		"REVISIONS_LOG_LEVEL":       "debug",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cfg := runtimeconfig.DefaultConfig()
	if err := runtimeconfig.ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(cfg.Locales) != 2 || cfg.Locales[1].Code != "sv" || cfg.Locales[1].Name != "sv" || cfg.Locales[0].Name != "English" {
		t.Fatalf("unexpected locales %+v", cfg.Locales)
	}
	if !cfg.UsesBun() || cfg.Storage.DSN != "file:test.db" || !cfg.Storage.Migrate {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
	if !cfg.Redis.Enabled || cfg.Redis.DB != 2 {
		t.Fatalf("unexpected redis %+v", cfg.Redis)
	}
	if cfg.Commands.Timeout != 2*time.Second || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected overrides %+v %+v", cfg.Commands, cfg.Logging)
	}
}

func TestApplyEnvRejectsMalformedValues(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	lookup := func(name string) (string, bool) {
		if name == "REVISIONS_REDIS_DB" {
			return "two", true
		}
		return "", false
	}
	if err := runtimeconfig.ApplyEnv(&cfg, lookup); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("REVISIONS_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("REVISIONS_TEST_DOTENV", "")
	os.Unsetenv("REVISIONS_TEST_DOTENV")

	loaded := runtimeconfig.LoadDotEnv(filepath.Join(dir, ".env.local"), path)
	if len(loaded) != 1 || loaded[0] != path {
		t.Fatalf("unexpected loaded files %v", loaded)
	}
	if os.Getenv("REVISIONS_TEST_DOTENV") != "loaded" {
		t.Fatal("expected variable from .env")
	}
}
