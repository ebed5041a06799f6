package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osudump/osudump/internal/core"
)

func newTestViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v, "1.2.3")
	BindEnv(v)
	return v
}

func TestLoad(t *testing.T) {
	t.Run("LoadDefaults", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", t.TempDir())

		cfg, err := Load(newTestViper(t))
		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, "https://osu.ppy.sh", cfg.API.BaseURL)
		assert.Equal(t, "osudump/1.2.3", cfg.API.UserAgent)

		assert.Equal(t, core.RateLimitConfig{MaxRequests: 50, WindowSeconds: 60}, cfg.RateLimit)

		assert.Equal(t, 100, cfg.Fetch.PageSize)
		assert.Equal(t, 3, cfg.Fetch.MaxRetries)
		assert.Equal(t, time.Second, cfg.Fetch.BackoffBase)
		assert.Equal(t, 30*time.Second, cfg.Fetch.RequestTimeout)
		assert.Zero(t, cfg.Fetch.Timeout)
		assert.Zero(t, cfg.Fetch.MaxPages)

		expectedStorePath := filepath.Join(gfconfig.GetAppDataDir("osudump"), "osudump.db")
		assert.Equal(t, expectedStorePath, cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)

		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Same(t, cfg, GetConfig())
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		t.Setenv("OSUDUMP_RATE_LIMIT", "10:5")
		t.Setenv("OSUDUMP_FETCH_MAX_RETRIES", "7")
		t.Setenv("OSUDUMP_FETCH_TIMEOUT", "2m")
		t.Setenv("OSUDUMP_API_BASE_URL", "http://localhost:9000")

		cfg, err := Load(newTestViper(t))
		require.NoError(t, err)

		assert.Equal(t, core.RateLimitConfig{MaxRequests: 10, WindowSeconds: 5}, cfg.RateLimit)
		assert.Equal(t, 7, cfg.Fetch.MaxRetries)
		assert.Equal(t, 2*time.Minute, cfg.Fetch.Timeout)
		assert.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	})

	t.Run("ExplicitOverrides", func(t *testing.T) {
		v := newTestViper(t)
		v.Set("rate_limit", "0:0")
		v.Set("fetch.max_pages", 12)

		cfg, err := Load(v)
		require.NoError(t, err)
		assert.True(t, cfg.RateLimit.Unlimited())
		assert.Equal(t, 12, cfg.Fetch.MaxPages)
	})

	t.Run("MalformedRateLimit", func(t *testing.T) {
		v := newTestViper(t)
		v.Set("rate_limit", "fifty")

		_, err := Load(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limit")
	})

	t.Run("InvalidValues", func(t *testing.T) {
		cases := map[string]any{
			"fetch.page_size":   0,
			"fetch.max_retries": -1,
			"fetch.max_pages":   -2,
			"api.base_url":      " ",
		}
		for key, value := range cases {
			v := newTestViper(t)
			v.Set(key, value)

			_, err := Load(v)
			require.Error(t, err, key)

			var cfgErr *core.ConfigError
			require.True(t, errors.As(err, &cfgErr), key)
			assert.Equal(t, key, cfgErr.Field)
		}
	})

	t.Run("RetriesUpperBound", func(t *testing.T) {
		v := newTestViper(t)
		v.Set("fetch.max_retries", MaxFetchRetries)
		_, err := Load(v)
		require.NoError(t, err)

		v = newTestViper(t)
		v.Set("fetch.max_retries", MaxFetchRetries+1)
		_, err = Load(v)
		var cfgErr *core.ConfigError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "fetch.max_retries", cfgErr.Field)
	})
}

func TestStringToRateLimitHookFunc(t *testing.T) {
	var out struct {
		Limit core.RateLimitConfig `mapstructure:"limit"`
	}
	v := viper.New()
	v.Set("limit", "3:4")
	require.NoError(t, v.Unmarshal(&out, viper.DecodeHook(StringToRateLimitHookFunc())))
	assert.Equal(t, core.RateLimitConfig{MaxRequests: 3, WindowSeconds: 4}, out.Limit)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "osudump/dev", UserAgent(""))
	assert.Equal(t, "osudump/v0.1.0", UserAgent("v0.1.0"))
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	assert.Equal(t, filepath.Join(gfconfig.GetAppConfigDir("osudump"), "config.yaml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join(gfconfig.GetAppDataDir("osudump"), "osudump.db"), DefaultStorePath())
}
