package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-revisions/internal/identifier"
	"github.com/goliatone/go-revisions/internal/storage"
)

var (
	ErrDefaultLocaleRequired  = errors.New("revisions config: default locale is required")
	ErrDefaultLocaleDisabled  = errors.New("revisions config: default locale must be an enabled locale")
	ErrDuplicateLocale        = errors.New("revisions config: duplicate locale")
	ErrKindNameRequired       = errors.New("revisions config: owner kind name is required")
	ErrKindNameInvalid        = errors.New("revisions config: owner kind name must not contain the identifier delimiter")
	ErrIndexRequiresKeys      = errors.New("revisions config: indexable kinds require indexable keys")
	ErrRedisAddrRequired      = errors.New("revisions config: redis address is required when redis is enabled")
	ErrCommandTimeoutInvalid  = errors.New("revisions config: command timeout must be zero or positive")
	ErrLoggingProviderUnknown = errors.New("revisions config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("revisions config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("revisions config: logging format is invalid")
)

// Config aggregates the settings of the revision module.
type Config struct {
	DefaultLocale string                `yaml:"default_locale"`
	Delimiter     string                `yaml:"delimiter"`
	Tables        storage.Tables        `yaml:"tables"`
	Locales       []LocaleConfig        `yaml:"locales"`
	Kinds         map[string]KindConfig `yaml:"kinds"`
	Storage       StorageConfig         `yaml:"storage"`
	Redis         RedisConfig           `yaml:"redis"`
	Commands      CommandsConfig        `yaml:"commands"`
	Logging       LoggingConfig         `yaml:"logging"`
}

// LocaleConfig seeds the locale registry.
type LocaleConfig struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
}

// KindConfig carries the per owner kind options that can live in a file.
// Getters are code and are registered on the module directly.
type KindConfig struct {
	DefaultTemplate  string   `yaml:"default_template"`
	SpecialTypes     []string `yaml:"special_types"`
	CacheKeysToFlush []string `yaml:"cache_keys_to_flush"`
	Indexable        bool     `yaml:"indexable"`
	IndexableKeys    []string `yaml:"indexable_keys"`
	TitleKey         string   `yaml:"title_key"`
}

// StorageConfig selects the backing store. Provider "memory" keeps every
// repository in process; "bun" opens Driver/DSN.
type StorageConfig struct {
	Provider       string        `yaml:"provider"`
	Driver         string        `yaml:"driver"`
	DSN            string        `yaml:"dsn"`
	MaxOpenConns   int           `yaml:"max_open_conns"`
	MaxIdleConns   int           `yaml:"max_idle_conns"`
	Migrate        bool          `yaml:"migrate"`
	CacheTemplates bool          `yaml:"cache_templates"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// RedisConfig enables the cache flush subscriber.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool          `yaml:"enabled"`
	AutoRegisterDispatcher bool          `yaml:"auto_register_dispatcher"`
	Timeout                time.Duration `yaml:"timeout"`
	MaxRetries             int           `yaml:"max_retries"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns an in-memory setup with a single english locale and
// a "pages" kind.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Delimiter:     identifier.DefaultDelimiter,
		Tables:        storage.DefaultTables(),
		Locales: []LocaleConfig{
			{Code: "en", Name: "English", Enabled: true},
		},
		Kinds: map[string]KindConfig{
			"pages": {
				DefaultTemplate: "page",
				SpecialTypes:    []string{"image", "gallery"},
				TitleKey:        "headline",
			},
		},
		Storage: StorageConfig{
			Provider: "memory",
			Driver:   storage.DriverSQLite,
			Migrate:  true,
			CacheTTL: time.Minute,
		},
		Commands: CommandsConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	scheme, err := identifier.NewScheme(cfg.Delimiter)
	if err != nil {
		return fmt.Errorf("revisions config: %w", err)
	}

	defaultLocale := strings.ToLower(strings.TrimSpace(cfg.DefaultLocale))
	if defaultLocale == "" {
		return ErrDefaultLocaleRequired
	}
	seen := make(map[string]bool, len(cfg.Locales))
	defaultEnabled := len(cfg.Locales) == 0
	for _, locale := range cfg.Locales {
		code := strings.ToLower(strings.TrimSpace(locale.Code))
		if code == "" {
			return fmt.Errorf("%w: empty code", ErrDuplicateLocale)
		}
		if seen[code] {
			return fmt.Errorf("%w: %s", ErrDuplicateLocale, code)
		}
		seen[code] = true
		if code == defaultLocale && locale.Enabled {
			defaultEnabled = true
		}
	}
	if !defaultEnabled {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleDisabled, defaultLocale)
	}

	for name, kind := range cfg.Kinds {
		if strings.TrimSpace(name) == "" {
			return ErrKindNameRequired
		}
		if strings.Contains(name, scheme.Delimiter()) {
			return fmt.Errorf("%w: %s", ErrKindNameInvalid, name)
		}
		if kind.Indexable && len(kind.IndexableKeys) == 0 {
			return fmt.Errorf("%w: %s", ErrIndexRequiresKeys, name)
		}
	}

	switch normalizeProvider(cfg.Storage.Provider) {
	case "", "memory":
	case "bun":
		if _, err := storage.NormalizeDriver(cfg.Storage.Driver); err != nil {
			return fmt.Errorf("revisions config: %w", err)
		}
	default:
		return fmt.Errorf("revisions config: storage provider %q is invalid", cfg.Storage.Provider)
	}

	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.Addr) == "" {
		return ErrRedisAddrRequired
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider != "" && !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// UsesBun reports whether the bun repositories are selected.
func (cfg Config) UsesBun() bool {
	return normalizeProvider(cfg.Storage.Provider) == "bun"
}

// EnabledLocales returns the codes of the enabled locales in declaration
// order, falling back to the default locale.
func (cfg Config) EnabledLocales() []string {
	out := make([]string, 0, len(cfg.Locales))
	for _, locale := range cfg.Locales {
		if locale.Enabled {
			out = append(out, strings.ToLower(strings.TrimSpace(locale.Code)))
		}
	}
	if len(out) == 0 && strings.TrimSpace(cfg.DefaultLocale) != "" {
		out = append(out, strings.ToLower(strings.TrimSpace(cfg.DefaultLocale)))
	}
	return out
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty", "text":
		return true
	default:
		return false
	}
}
