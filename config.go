package revisions

import "github.com/goliatone/go-revisions/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired  = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleDisabled  = runtimeconfig.ErrDefaultLocaleDisabled
	ErrDuplicateLocale        = runtimeconfig.ErrDuplicateLocale
	ErrKindNameRequired       = runtimeconfig.ErrKindNameRequired
	ErrIndexRequiresKeys      = runtimeconfig.ErrIndexRequiresKeys
	ErrRedisAddrRequired      = runtimeconfig.ErrRedisAddrRequired
	ErrCommandTimeoutInvalid  = runtimeconfig.ErrCommandTimeoutInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	LocaleConfig   = runtimeconfig.LocaleConfig
	KindConfig     = runtimeconfig.KindConfig
	StorageConfig  = runtimeconfig.StorageConfig
	RedisConfig    = runtimeconfig.RedisConfig
	CommandsConfig = runtimeconfig.CommandsConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML config file and overlays REVISIONS_* variables.
func LoadConfig(path string) (Config, error) {
	cfg := runtimeconfig.DefaultConfig()
	if path != "" {
		loaded, err := runtimeconfig.LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := runtimeconfig.ApplyEnv(&cfg, nil); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
