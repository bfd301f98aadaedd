package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for ReelGoat.
type Config struct {
	Catalog    CatalogConfig    `mapstructure:"catalog"    yaml:"catalog"`
	Fetcher    FetcherConfig    `mapstructure:"fetcher"    yaml:"fetcher"`
	Proxy      ProxyConfig      `mapstructure:"proxy"      yaml:"proxy"`
	Pagination PaginationConfig `mapstructure:"pagination" yaml:"pagination"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"   yaml:"pipeline"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// CatalogConfig holds the site root and the URL templates of each page
// kind. Templates take the user name or title ID as their only verb.
type CatalogConfig struct {
	BaseURL       string `mapstructure:"base_url"       yaml:"base_url"`
	UserPath      string `mapstructure:"user_path"      yaml:"user_path"`
	RatingsPath   string `mapstructure:"ratings_path"   yaml:"ratings_path"`
	WatchlistPath string `mapstructure:"watchlist_path" yaml:"watchlist_path"`
	TitlePath     string `mapstructure:"title_path"     yaml:"title_path"`
	CreditsPath   string `mapstructure:"credits_path"   yaml:"credits_path"`
	KeywordsPath  string `mapstructure:"keywords_path"  yaml:"keywords_path"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	RedirectTimeout time.Duration `mapstructure:"redirect_timeout"  yaml:"redirect_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"     yaml:"retry_backoff"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	AcceptLanguage  string        `mapstructure:"accept_language"   yaml:"accept_language"`
	Headless        bool          `mapstructure:"headless"          yaml:"headless"`
}

// ProxyConfig controls proxy rotation.
type ProxyConfig struct {
	Enabled  bool     `mapstructure:"enabled"  yaml:"enabled"`
	Rotation string   `mapstructure:"rotation" yaml:"rotation"`
	URLs     []string `mapstructure:"urls"     yaml:"urls"`
}

// PaginationConfig controls list fan-out. MaxConcurrency of 0 fetches every
// page of a list at once. A discovered list larger than MaxItems is refused.
type PaginationConfig struct {
	View           string `mapstructure:"view"            yaml:"view"`
	MaxConcurrency int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	MaxItems       int    `mapstructure:"max_items"       yaml:"max_items"`
}

// PipelineConfig controls record post-processing.
type PipelineConfig struct {
	Dedup          bool     `mapstructure:"dedup"           yaml:"dedup"`
	Types          []string `mapstructure:"types"           yaml:"types"`
	RequiredFields []string `mapstructure:"required_fields" yaml:"required_fields"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
	SQLitePath      string `mapstructure:"sqlite_path"      yaml:"sqlite_path"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:       "https://www.imdb.com",
			UserPath:      "/user/%s",
			RatingsPath:   "/user/%s/ratings",
			WatchlistPath: "/user/%s/watchlist",
			TitlePath:     "/title/%s",
			CreditsPath:   "/title/%s/fullcredits",
			KeywordsPath:  "/title/%s/keywords",
		},
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  10 * time.Minute,
			RedirectTimeout: 20 * time.Second,
			MaxRetries:      0,
			RetryBackoff:    2 * time.Second,
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     20 * 1024 * 1024, // 20MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    100,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			// Extraction rules match English headings.
			AcceptLanguage: "en-US,en;q=0.9",
			Headless:       true,
		},
		Proxy: ProxyConfig{
			Enabled:  false,
			Rotation: "round_robin",
		},
		Pagination: PaginationConfig{
			View:           "compact",
			MaxConcurrency: 0,
			MaxItems:       1_000_000,
		},
		Pipeline: PipelineConfig{
			Dedup: true,
		},
		Storage: StorageConfig{
			Type:            "json",
			OutputPath:      "./output",
			MongoDatabase:   "reelgoat",
			MongoCollection: "titles",
			SQLitePath:      "./output/reelgoat.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
