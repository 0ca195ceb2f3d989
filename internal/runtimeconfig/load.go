package runtimeconfig

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces the environment variables read by ApplyEnv.
const EnvPrefix = "REVISIONS_"

// LoadFile decodes the YAML file at path over DefaultConfig.
func LoadFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("revisions config: open %s: %w", path, err)
	}
	defer file.Close()
	return Load(file)
}

// Load decodes a YAML document over DefaultConfig. Unknown keys are
// rejected.
func Load(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("revisions config: decode: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads the candidate .env files that exist. Variables already
// present in the environment win. It returns the files actually loaded.
func LoadDotEnv(candidates ...string) []string {
	if len(candidates) == 0 {
		candidates = []string{".env.local", ".env"}
	}
	var loaded []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}

// ApplyEnv overlays REVISIONS_* variables from lookup onto cfg. A nil
// lookup reads the process environment.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if cfg == nil {
		return nil
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) (string, bool) {
		value, ok := lookup(EnvPrefix + name)
		if !ok {
			return "", false
		}
		return strings.TrimSpace(value), true
	}

	if v, ok := get("DEFAULT_LOCALE"); ok {
		cfg.DefaultLocale = v
	}
	if v, ok := get("DELIMITER"); ok {
		cfg.Delimiter = v
	}
	if v, ok := get("I18N_PREFIX"); ok {
		cfg.Tables.I18nPrefix = v
	}
	if v, ok := get("LOCALES"); ok {
		cfg.Locales = parseLocales(v)
	}
	if v, ok := get("STORAGE_PROVIDER"); ok {
		cfg.Storage.Provider = v
	}
	if v, ok := get("DB_DRIVER"); ok {
		cfg.Storage.Driver = v
	}
	if v, ok := get("DB_DSN"); ok {
		cfg.Storage.DSN = v
		if cfg.Storage.Provider == "" || normalizeProvider(cfg.Storage.Provider) == "memory" {
			cfg.Storage.Provider = "bun"
		}
	}
	if v, ok := get("DB_MIGRATE"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return envError("DB_MIGRATE", err)
		}
		cfg.Storage.Migrate = enabled
	}
	if v, ok := get("REDIS_ADDR"); ok {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = v != ""
	}
	if v, ok := get("REDIS_PASSWORD"); ok {
		cfg.Redis.Password = v
	}
	if v, ok := get("REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return envError("REDIS_DB", err)
		}
		cfg.Redis.DB = db
	}
	if v, ok := get("COMMAND_TIMEOUT"); ok {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return envError("COMMAND_TIMEOUT", err)
		}
		cfg.Commands.Timeout = timeout
	}
	if v, ok := get("LOG_PROVIDER"); ok {
		cfg.Logging.Provider = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	return nil
}

// parseLocales reads "en,sv:Svenska,de:Deutsch" into enabled locales.
func parseLocales(value string) []LocaleConfig {
	var out []LocaleConfig
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		code, name, _ := strings.Cut(item, ":")
		code = strings.TrimSpace(code)
		name = strings.TrimSpace(name)
		if name == "" {
			name = code
		}
		out = append(out, LocaleConfig{Code: code, Name: name, Enabled: true})
	}
	return out
}

func envError(name string, err error) error {
	return fmt.Errorf("revisions config: %s%s: %w", EnvPrefix, name, err)
}
