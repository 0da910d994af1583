package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "ipsign.app/errors"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("IPINFO_TOKEN", "test-token")
	t.Setenv("OPENWEATHER_API_KEY", "test-key")
}

func TestLoadConfig(t *testing.T) {
	t.Run("DefaultsApplied", func(t *testing.T) {
		setRequiredEnv(t)

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "https://ipinfo.io", cfg.Geo.IPInfoURL)
		assert.False(t, cfg.Geo.ResolvePublicIP)
		assert.Equal(t, "https://v1.hitokoto.cn", cfg.Quote.BaseURL)
		assert.Equal(t, "file", cfg.Cache.Type)
		assert.Equal(t, "cache", cfg.Cache.Dir)
		assert.Equal(t, "@every 1h", cfg.Scheduler.SweepSpec)
		assert.Equal(t, "development", cfg.Environment)
		assert.False(t, cfg.Debug)
	})

	t.Run("EnvironmentOverrides", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("CACHE_TYPE", "redis")
		t.Setenv("REDIS_ADDR", "redis:6379")
		t.Setenv("GEO_RESOLVE_PUBLIC_IP", "true")

		cfg, err := LoadConfig()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "redis", cfg.Cache.Type)
		assert.Equal(t, "redis:6379", cfg.Cache.RedisAddr)
		assert.True(t, cfg.Geo.ResolvePublicIP)
	})

	t.Run("MissingGeoTokensIsFatal", func(t *testing.T) {
		t.Setenv("IPINFO_TOKEN", "")
		t.Setenv("NSMAO_TOKEN", "")
		t.Setenv("OPENWEATHER_API_KEY", "test-key")

		cfg, err := LoadConfig()
		require.Error(t, err)
		assert.Nil(t, cfg)

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.ConfigurationError, appErr.Type)
	})

	t.Run("SecondaryTokenAloneIsEnough", func(t *testing.T) {
		t.Setenv("IPINFO_TOKEN", "")
		t.Setenv("NSMAO_TOKEN", "secondary-token")
		t.Setenv("OPENWEATHER_API_KEY", "test-key")

		_, err := LoadConfig()
		assert.NoError(t, err)
	})

	t.Run("MissingWeatherKeyStillStarts", func(t *testing.T) {
		t.Setenv("IPINFO_TOKEN", "test-token")
		t.Setenv("OPENWEATHER_API_KEY", "")

		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Empty(t, cfg.Weather.APIKey)
	})

	t.Run("InvalidWeatherBaseURL", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("OPENWEATHER_BASE_URL", "ftp://weather.invalid")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("InvalidPort", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("SERVER_PORT", "99999")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("InvalidCacheType", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("CACHE_TYPE", "memcached")

		_, err := LoadConfig()
		assert.Error(t, err)
	})

	t.Run("InvalidHomepageURL", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("HOMEPAGE_URL", "not-a-url")

		_, err := LoadConfig()
		assert.Error(t, err)
	})
}
