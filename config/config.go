package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"ipsign.app/errors"
)

// Config represents the application configuration structure
type Config struct {
	Server      ServerConfig     `split_words:"true"`
	Geo         GeoConfig        `split_words:"true"`
	Weather     WeatherConfig    `split_words:"true"`
	Quote       QuoteConfig      `split_words:"true"`
	Background  BackgroundConfig `split_words:"true"`
	Cache       CacheConfig      `split_words:"true"`
	Scheduler   SchedulerConfig  `split_words:"true"`
	AssetsDir   string           `envconfig:"ASSETS_DIR" default:"assets"`
	HomepageURL string           `envconfig:"HOMEPAGE_URL" default:"https://github.com/HCLonely/ip-sign"`
	Environment string           `envconfig:"APP_ENV" default:"development"`
	Debug       bool             `envconfig:"DEBUG" default:"false"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port int `envconfig:"SERVER_PORT" default:"3000"`
}

// GeoConfig contains geolocation provider credentials and behavior switches
type GeoConfig struct {
	IPInfoToken  string `envconfig:"IPINFO_TOKEN"`
	IPInfoURL    string `envconfig:"IPINFO_BASE_URL" default:"https://ipinfo.io"`
	NsmaoToken   string `envconfig:"NSMAO_TOKEN"`
	NsmaoURL     string `envconfig:"NSMAO_BASE_URL" default:"https://api.nsmao.net"`
	// ResolvePublicIP replaces a local/private client address with the host's
	// public address before lookup. Off by default: local addresses resolve to
	// the synthetic Localhost location instead.
	ResolvePublicIP bool   `envconfig:"GEO_RESOLVE_PUBLIC_IP" default:"false"`
	PublicIPURL     string `envconfig:"PUBLIC_IP_URL" default:"https://api.ipify.org"`
}

// WeatherConfig contains settings for the weather upstream
type WeatherConfig struct {
	APIKey  string `envconfig:"OPENWEATHER_API_KEY"`
	BaseURL string `envconfig:"OPENWEATHER_BASE_URL" default:"https://api.openweathermap.org/data/2.5/weather"`
}

// QuoteConfig contains settings for the quote upstream
type QuoteConfig struct {
	BaseURL string `envconfig:"QUOTE_BASE_URL" default:"https://v1.hitokoto.cn"`
}

// BackgroundConfig contains the background image source
type BackgroundConfig struct {
	ImageURL string `envconfig:"BACKGROUND_IMAGE_URL"`
}

// CacheConfig contains cache storage settings
type CacheConfig struct {
	// Type selects the durable backend for the location domain: "file" or "redis".
	Type          string `envconfig:"CACHE_TYPE" default:"file"`
	Dir           string `envconfig:"CACHE_DIR" default:"cache"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// SchedulerConfig contains settings for the background sweep scheduler
type SchedulerConfig struct {
	SweepSpec string `envconfig:"CACHE_SWEEP_SPEC" default:"@every 1h"`
}

// LoadConfig loads and validates application configuration from environment variables
func LoadConfig() (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, errors.NewConfigurationError("error processing config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Geo.Validate(); err != nil {
		return err
	}
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.validateHomepageURL(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateHomepageURL() error {
	if c.HomepageURL == "" {
		return errors.NewConfigurationError("HOMEPAGE_URL cannot be empty", nil)
	}
	if !strings.HasPrefix(c.HomepageURL, "http://") && !strings.HasPrefix(c.HomepageURL, "https://") {
		return errors.NewConfigurationError("HOMEPAGE_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return errors.NewConfigurationError("SERVER_PORT must be between 1 and 65535", nil)
	}
	return nil
}

// Validate checks geolocation configuration. Having no provider token at all
// is a fatal startup condition: the service cannot guess a location.
func (g *GeoConfig) Validate() error {
	if g.IPInfoToken == "" && g.NsmaoToken == "" {
		return errors.NewConfigurationError("at least one of IPINFO_TOKEN or NSMAO_TOKEN must be set", nil)
	}
	if !strings.HasPrefix(g.IPInfoURL, "http://") && !strings.HasPrefix(g.IPInfoURL, "https://") {
		return errors.NewConfigurationError("IPINFO_BASE_URL must start with http:// or https://", nil)
	}
	if !strings.HasPrefix(g.NsmaoURL, "http://") && !strings.HasPrefix(g.NsmaoURL, "https://") {
		return errors.NewConfigurationError("NSMAO_BASE_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks weather upstream configuration. A missing API key is not
// fatal: weather requests fail upstream and degrade to synthetic conditions.
func (w *WeatherConfig) Validate() error {
	if !strings.HasPrefix(w.BaseURL, "http://") && !strings.HasPrefix(w.BaseURL, "https://") {
		return errors.NewConfigurationError("OPENWEATHER_BASE_URL must start with http:// or https://", nil)
	}
	return nil
}

// Validate checks cache configuration
func (c *CacheConfig) Validate() error {
	if c.Type != "file" && c.Type != "redis" {
		return errors.NewConfigurationError(fmt.Sprintf("CACHE_TYPE must be one of: file, redis (got %q)", c.Type), nil)
	}
	if c.Dir == "" {
		return errors.NewConfigurationError("CACHE_DIR cannot be empty", nil)
	}
	return nil
}
