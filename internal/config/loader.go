package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults. CLI flags
// are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	// REELGOAT_FETCHER_MAX_RETRIES=2 overrides fetcher.max_retries
	v.SetEnvPrefix("REELGOAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("reelgoat")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".reelgoat"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Dump renders the configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// setDefaults registers default values in viper so that every key can be
// overridden from the environment.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("catalog.base_url", cfg.Catalog.BaseURL)
	v.SetDefault("catalog.user_path", cfg.Catalog.UserPath)
	v.SetDefault("catalog.ratings_path", cfg.Catalog.RatingsPath)
	v.SetDefault("catalog.watchlist_path", cfg.Catalog.WatchlistPath)
	v.SetDefault("catalog.title_path", cfg.Catalog.TitlePath)
	v.SetDefault("catalog.credits_path", cfg.Catalog.CreditsPath)
	v.SetDefault("catalog.keywords_path", cfg.Catalog.KeywordsPath)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.redirect_timeout", cfg.Fetcher.RedirectTimeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_backoff", cfg.Fetcher.RetryBackoff)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.accept_language", cfg.Fetcher.AcceptLanguage)
	v.SetDefault("fetcher.headless", cfg.Fetcher.Headless)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.rotation", cfg.Proxy.Rotation)
	v.SetDefault("proxy.urls", cfg.Proxy.URLs)

	v.SetDefault("pagination.view", cfg.Pagination.View)
	v.SetDefault("pagination.max_concurrency", cfg.Pagination.MaxConcurrency)
	v.SetDefault("pagination.max_items", cfg.Pagination.MaxItems)

	v.SetDefault("pipeline.dedup", cfg.Pipeline.Dedup)
	v.SetDefault("pipeline.types", cfg.Pipeline.Types)
	v.SetDefault("pipeline.required_fields", cfg.Pipeline.RequiredFields)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
