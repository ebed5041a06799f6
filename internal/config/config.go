package config

import (
	"time"

	"github.com/osudump/osudump/internal/core"
)

// Config represents the complete application configuration. Values come from
// defaults, an optional config file, OSUDUMP_* environment variables and
// command flags, in increasing order of precedence.
type Config struct {
	API       APIConfig            `mapstructure:"api"`
	RateLimit core.RateLimitConfig `mapstructure:"rate_limit"`
	Fetch     FetchConfig          `mapstructure:"fetch"`
	Store     StoreConfig          `mapstructure:"store"`
	Logging   LoggingConfig        `mapstructure:"logging"`
}

// APIConfig describes the upstream osu! web API.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

// FetchConfig tunes pagination and retries.
type FetchConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Timeout bounds a whole most-played walk; zero means no deadline.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxPages caps the number of pages requested; zero means unbounded.
	MaxPages int `mapstructure:"max_pages"`
}

// StoreConfig locates the libsql snapshot history: a local file, ":memory:",
// or a remote Turso URL with its auth token.
type StoreConfig struct {
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}
