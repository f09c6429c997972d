// Package config resolves client configuration from config files,
// environment variables, and CLI flags before the engine is constructed.
// Precedence: flags > environment > config file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Output    string          `mapstructure:"output"`
	LogLevel  string          `mapstructure:"log_level"`
}

// APIConfig contains credentials and request tunables.
type APIConfig struct {
	Key        string        `mapstructure:"key"`
	Secret     string        `mapstructure:"secret"`
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`

	// Concurrency bounds simultaneously in-flight requests for batch commands.
	Concurrency int `mapstructure:"concurrency"`
}

// RateLimitConfig contains the token bucket parameters.
type RateLimitConfig struct {
	// Rate is the sustained request rate in requests per second.
	Rate float64 `mapstructure:"rate"`

	// Burst is the number of requests admitted back-to-back after idle time.
	Burst int `mapstructure:"burst"`
}

// CacheConfig contains the optional Redis response cache settings.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// Validate checks that the configuration can build a working client.
func (c *Config) Validate() error {
	if c.API.Key == "" {
		return fmt.Errorf("api key is not configured (set DOMAINTOOLS_API_KEY or api.key)")
	}
	if c.API.Secret == "" {
		return fmt.Errorf("api secret is not configured (set DOMAINTOOLS_API_SECRET or api.secret)")
	}
	if c.API.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1 (got %d)", c.API.Concurrency)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1 (got %d)", c.RateLimit.Burst)
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache is enabled but redis_addr is empty")
	}
	return nil
}
