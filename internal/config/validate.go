package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Validate checks the configuration for invalid values. An unknown view is
// reported as a *types.ConfigError so that it is rejected before any page is
// fetched.
func Validate(cfg *Config) error {
	if _, err := catalog.ParseView(cfg.Pagination.View); err != nil {
		return err
	}
	if cfg.Pagination.MaxConcurrency < 0 {
		return fmt.Errorf("pagination.max_concurrency must be >= 0, got %d", cfg.Pagination.MaxConcurrency)
	}
	if cfg.Pagination.MaxItems < 0 {
		return fmt.Errorf("pagination.max_items must be >= 0, got %d", cfg.Pagination.MaxItems)
	}

	if err := ValidateURL(cfg.Catalog.BaseURL); err != nil {
		return &types.ConfigError{Field: "catalog.base_url", Value: cfg.Catalog.BaseURL, Err: err}
	}
	templates := map[string]string{
		"catalog.user_path":      cfg.Catalog.UserPath,
		"catalog.ratings_path":   cfg.Catalog.RatingsPath,
		"catalog.watchlist_path": cfg.Catalog.WatchlistPath,
		"catalog.title_path":     cfg.Catalog.TitlePath,
		"catalog.credits_path":   cfg.Catalog.CreditsPath,
		"catalog.keywords_path":  cfg.Catalog.KeywordsPath,
	}
	for field, tmpl := range templates {
		if strings.Count(tmpl, "%s") != 1 {
			return &types.ConfigError{Field: field, Value: tmpl, Err: fmt.Errorf("template must contain exactly one %%s")}
		}
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryBackoff < 0 {
		return fmt.Errorf("fetcher.retry_backoff must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.Rotation != "round_robin" && cfg.Proxy.Rotation != "random" {
			return fmt.Errorf("proxy.rotation must be 'round_robin' or 'random', got %q", cfg.Proxy.Rotation)
		}
		for _, proxyURL := range cfg.Proxy.URLs {
			if _, err := url.Parse(proxyURL); err != nil {
				return fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
			}
		}
	}

	for _, t := range cfg.Pipeline.Types {
		if catalog.ParseMediaType(t) == catalog.Unknown {
			return &types.ConfigError{Field: "pipeline.types", Value: t, Err: fmt.Errorf("unknown media type")}
		}
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true, "sqlite": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb, sqlite)", cfg.Storage.Type)
	}
	if cfg.Storage.Type == "mongodb" && cfg.Storage.MongoURI == "" {
		return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
