package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when neither file, environment, nor flags set a value.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultConcurrency = 10
	DefaultRate        = 10.0
	DefaultBurst       = 10
	DefaultCacheTTL    = 5 * time.Minute
	DefaultOutput      = "table"
	DefaultLogLevel    = "info"
)

// Load resolves the configuration. cfgFile, when non-empty, points at an
// explicit config file; otherwise domaintools.yaml in the working directory
// and config.yaml in ~/.domaintools are tried, in that order. Missing
// config files are not an error: environment variables alone are a valid
// setup.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	setDefaults(v)
	bindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("domaintools")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".domaintools"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			if cfgFile != "" {
				return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
			}
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.url", "")
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("api.max_retries", DefaultMaxRetries)
	v.SetDefault("api.concurrency", DefaultConcurrency)
	v.SetDefault("rate_limit.rate", DefaultRate)
	v.SetDefault("rate_limit.burst", DefaultBurst)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("output", DefaultOutput)
	v.SetDefault("log_level", DefaultLogLevel)
}

// bindEnv wires the historical environment variable names.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("api.key", "DOMAINTOOLS_API_KEY")
	_ = v.BindEnv("api.secret", "DOMAINTOOLS_API_SECRET")
	_ = v.BindEnv("api.url", "DOMAINTOOLS_API_URL")
	_ = v.BindEnv("api.timeout", "DOMAINTOOLS_TIMEOUT")
	_ = v.BindEnv("api.max_retries", "DOMAINTOOLS_MAX_RETRIES")
	_ = v.BindEnv("api.concurrency", "DOMAINTOOLS_CONCURRENCY")
	_ = v.BindEnv("rate_limit.rate", "DOMAINTOOLS_RATE_LIMIT")
	_ = v.BindEnv("rate_limit.burst", "DOMAINTOOLS_RATE_BURST")
	_ = v.BindEnv("cache.enabled", "DOMAINTOOLS_CACHE_ENABLED")
	_ = v.BindEnv("cache.redis_addr", "DOMAINTOOLS_REDIS_ADDR")
	_ = v.BindEnv("output", "DOMAINTOOLS_OUTPUT_FORMAT")
	_ = v.BindEnv("log_level", "DOMAINTOOLS_LOG_LEVEL")
}
