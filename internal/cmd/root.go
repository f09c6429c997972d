// Package cmd implements the dt command-line interface over the client library.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/osintworks/domaintools-client/internal/config"
	"github.com/osintworks/domaintools-client/internal/output"
	"github.com/osintworks/domaintools-client/pkg/client"
	"github.com/osintworks/domaintools-client/pkg/logging"
	"github.com/osintworks/domaintools-client/pkg/ratelimit"
)

var (
	cfgFile      string
	apiKey       string
	apiSecret    string
	outputFormat string
	verbose      bool

	// cfg is resolved once in the persistent pre-run and shared by all commands.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dt",
	Short: "Command-line client for the DomainTools API",
	Long: `dt is a command-line client for the DomainTools domain intelligence API.

It covers profile, WHOIS, reverse, reputation, search, and Iris lookups,
plus concurrent batch runs over lists of domains.

Configuration priority:
  1. Command-line flags
  2. Environment variables (DOMAINTOOLS_API_KEY, DOMAINTOOLS_API_SECRET, ...)
  3. Config file (./domaintools.yaml or ~/.domaintools/config.yaml)`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		if apiKey != "" {
			cfg.API.Key = apiKey
		}
		if apiSecret != "" {
			cfg.API.Secret = apiSecret
		}
		if outputFormat != "" {
			cfg.Output = outputFormat
		}
		if verbose {
			cfg.LogLevel = "debug"
		}

		logging.Setup(logging.Config{
			Level:  logging.LogLevel(cfg.LogLevel),
			Pretty: true,
		})
		return nil
	},
}

// Execute runs the root command. ctx carries process-interrupt
// cancellation into every lookup and batch run.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./domaintools.yaml or ~/.domaintools/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "DomainTools API key")
	rootCmd.PersistentFlags().StringVar(&apiSecret, "api-secret", "", "DomainTools API secret")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: table or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
}

// buildClient validates the resolved configuration and constructs the API client.
func buildClient() (*client.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientCfg := client.Config{
		APIKey:    cfg.API.Key,
		APISecret: cfg.API.Secret,
		BaseURL:   cfg.API.URL,
		Timeout:   cfg.API.Timeout,
		Retry: client.RetryConfig{
			MaxRetries: cfg.API.MaxRetries,
			BaseDelay:  1 * time.Second,
			MaxDelay:   30 * time.Second,
		},
		RateLimit: ratelimit.Config{
			RefillRate: cfg.RateLimit.Rate,
			Burst:      cfg.RateLimit.Burst,
		},
		CacheTTL: cfg.Cache.TTL,
	}

	if cfg.Cache.Enabled {
		clientCfg.Redis = redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	}

	return client.New(clientCfg)
}

// resolveFormat parses the configured output format.
func resolveFormat() (output.Format, error) {
	return output.ParseFormat(cfg.Output)
}

// renderPayload prints a single lookup result in the configured format.
func renderPayload(title string, payload map[string]any) error {
	format, err := resolveFormat()
	if err != nil {
		return err
	}
	rendered, err := output.FormatPayload(format, title, payload)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}
