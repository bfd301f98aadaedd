// Package reelgoat provides a public SDK for embedding ReelGoat as a library.
//
// Example usage:
//
//	c, err := reelgoat.New(
//	    reelgoat.WithConcurrency(4),
//	    reelgoat.WithRetries(2, time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	ratings, err := c.Ratings(ctx, "ur12345678", reelgoat.Compact)
package reelgoat

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/client"
	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/fetcher"
	"github.com/IshaanNene/ReelGoat/internal/observability"
)

// Record types.
type (
	Movie          = catalog.Movie
	MediaRecord    = catalog.MediaRecord
	Credit         = catalog.Credit
	Keyword        = catalog.Keyword
	Production     = catalog.Production
	Classification = catalog.Classification
	MediaType      = catalog.MediaType
	ViewKind       = catalog.ViewKind
)

// List layouts.
const (
	Compact = catalog.Compact
	Grid    = catalog.Grid
	Detail  = catalog.Detail
)

// Client is the high-level API for using ReelGoat as a library.
type Client struct {
	cfg     *config.Config
	fetcher fetcher.Fetcher
	client  *client.Client
	logger  *slog.Logger
}

type settings struct {
	cfg    *config.Config
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*settings)

// WithBaseURL points the client at another catalog host.
func WithBaseURL(u string) Option {
	return func(s *settings) { s.cfg.Catalog.BaseURL = u }
}

// WithConcurrency caps concurrent page fetches per list. Zero is unbounded.
func WithConcurrency(n int) Option {
	return func(s *settings) { s.cfg.Pagination.MaxConcurrency = n }
}

// WithRetries retries transient fetch failures with exponential backoff.
func WithRetries(n int, backoff time.Duration) Option {
	return func(s *settings) {
		s.cfg.Fetcher.MaxRetries = n
		s.cfg.Fetcher.RetryBackoff = backoff
	}
}

// WithTimeout sets the per-request transport timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.Fetcher.RequestTimeout = d }
}

// WithUserAgent sets a custom User-Agent.
func WithUserAgent(ua string) Option {
	return func(s *settings) { s.cfg.Fetcher.UserAgents = []string{ua} }
}

// WithProxy enables proxy rotation with the given proxy URLs.
func WithProxy(urls ...string) Option {
	return func(s *settings) {
		s.cfg.Proxy.Enabled = true
		s.cfg.Proxy.URLs = urls
	}
}

// WithBrowser renders pages in a headless browser instead of plain HTTP.
func WithBrowser() Option {
	return func(s *settings) { s.cfg.Fetcher.Type = "browser" }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	s := &settings{
		cfg:    config.DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := config.Validate(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	f, err := fetcher.New(s.cfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	c, err := client.New(s.cfg, f, observability.NewMetrics(s.logger), s.logger)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return &Client{cfg: s.cfg, fetcher: f, client: c, logger: s.logger}, nil
}

// Ratings returns every public rating of user.
func (c *Client) Ratings(ctx context.Context, user string, view ViewKind) ([]*Movie, error) {
	return c.client.Ratings(ctx, user, view)
}

// Watchlist returns the public watchlist of user.
func (c *Client) Watchlist(ctx context.Context, user string) ([]*Movie, error) {
	return c.client.Watchlist(ctx, user)
}

// Title returns a title with its credits and keywords.
func (c *Client) Title(ctx context.Context, id string) (*Movie, error) {
	return c.client.Title(ctx, id)
}

// ResolveRedirect returns where rawURL lands after redirects.
func (c *Client) ResolveRedirect(ctx context.Context, rawURL string) (string, bool) {
	return c.client.ResolveRedirect(ctx, rawURL)
}

// Stats returns the client's counters.
func (c *Client) Stats() map[string]int64 {
	return c.client.Metrics().Snapshot()
}

// Close releases the fetcher.
func (c *Client) Close() error {
	return c.fetcher.Close()
}

// ParseClassification resolves a content rating such as "PG-13" or "R16".
func ParseClassification(label string) (*Classification, bool) {
	return catalog.ParseClassification(label)
}

// ParseView resolves a list layout name.
func ParseView(name string) (ViewKind, error) {
	return catalog.ParseView(name)
}
