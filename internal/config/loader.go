// Package config provides centralized configuration management for osudump.
// Defaults are registered on a viper instance, overridden by an optional
// config file and OSUDUMP_* environment variables, and decoded into a typed
// Config with mapstructure.
package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/osudump/osudump/internal/core"
)

const (
	// AppName names the config and data directories.
	AppName = "osudump"

	// EnvPrefix prefixes environment overrides, e.g. OSUDUMP_RATE_LIMIT.
	EnvPrefix = "OSUDUMP"
)

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// SetDefaults registers every known key so environment overrides and
// AllSettings see them.
func SetDefaults(v *viper.Viper, version string) {
	// API defaults
	v.SetDefault("api.base_url", "https://osu.ppy.sh")
	v.SetDefault("api.user_agent", UserAgent(version))

	// Rate limit default: 50 requests per minute
	v.SetDefault("rate_limit", "50:60")

	// Fetch defaults
	v.SetDefault("fetch.page_size", 100)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.backoff_base", "1s")
	v.SetDefault("fetch.request_timeout", "30s")
	v.SetDefault("fetch.timeout", "0s")
	v.SetDefault("fetch.max_pages", 0)

	// Store defaults
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
}

// BindEnv maps OSUDUMP_SECTION_KEY variables onto section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes the settings held by v into a Config, validates it and makes
// it available through GetConfig.
//
// This function is safe to call multiple times (e.g., for config reload)
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			StringToRateLimitHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)

	return cfg, nil
}

// MaxFetchRetries bounds fetch.max_retries; the last backoff of a full run is
// already BackoffBase*2^20 (about 12 days at 1s).
const MaxFetchRetries = 20

// Validate rejects values the fetch pipeline cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return &core.ConfigError{Field: "api.base_url", Value: c.API.BaseURL, Err: fmt.Errorf("must not be empty")}
	}
	if c.Fetch.PageSize <= 0 {
		return &core.ConfigError{Field: "fetch.page_size", Value: fmt.Sprint(c.Fetch.PageSize), Err: fmt.Errorf("must be positive")}
	}
	if c.Fetch.MaxRetries < 0 || c.Fetch.MaxRetries > MaxFetchRetries {
		return &core.ConfigError{Field: "fetch.max_retries", Value: fmt.Sprint(c.Fetch.MaxRetries), Err: fmt.Errorf("must be between 0 and %d", MaxFetchRetries)}
	}
	if c.Fetch.BackoffBase < 0 {
		return &core.ConfigError{Field: "fetch.backoff_base", Value: c.Fetch.BackoffBase.String(), Err: fmt.Errorf("must not be negative")}
	}
	if c.Fetch.Timeout < 0 {
		return &core.ConfigError{Field: "fetch.timeout", Value: c.Fetch.Timeout.String(), Err: fmt.Errorf("must not be negative")}
	}
	if c.Fetch.MaxPages < 0 {
		return &core.ConfigError{Field: "fetch.max_pages", Value: fmt.Sprint(c.Fetch.MaxPages), Err: fmt.Errorf("must not be negative")}
	}
	return nil
}

// StringToRateLimitHookFunc decodes "N:M" strings into core.RateLimitConfig.
func StringToRateLimitHookFunc() mapstructure.DecodeHookFuncType {
	target := reflect.TypeOf(core.RateLimitConfig{})
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != target {
			return data, nil
		}
		return core.ParseRateLimit(data.(string))
	}
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// UserAgent returns the User-Agent sent to the API.
func UserAgent(version string) string {
	version = strings.TrimSpace(version)
	if version == "" {
		version = "dev"
	}
	return AppName + "/" + version
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	configDir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

// DefaultStorePath returns the XDG-compliant path to the database file.
func DefaultStorePath() string {
	dataDir := gfconfig.GetAppDataDir(AppName)
	if strings.TrimSpace(dataDir) == "" {
		return "./" + AppName + ".db"
	}
	return filepath.Join(dataDir, AppName+".db")
}
