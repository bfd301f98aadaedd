package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/retry"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Fetcher is the interface for all page fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL. Non-2xx
	// responses are returned as *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New builds the fetcher selected by cfg.Fetcher.Type and wraps it in the
// configured retry policy.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	var (
		f   Fetcher
		err error
	)
	switch cfg.Fetcher.Type {
	case "", "http":
		f, err = NewHTTPFetcher(cfg, logger)
	case "browser":
		f, err = NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrNoFetcher, cfg.Fetcher.Type)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(f, retry.Policy{
		MaxRetries: cfg.Fetcher.MaxRetries,
		Backoff:    cfg.Fetcher.RetryBackoff,
	}, logger), nil
}

// retrying re-issues failed fetches according to a retry.Policy.
type retrying struct {
	Fetcher
	policy retry.Policy
	logger *slog.Logger
}

// WithRetry wraps f so that transient failures are retried. A policy with
// no retries returns f unchanged.
func WithRetry(f Fetcher, p retry.Policy, logger *slog.Logger) Fetcher {
	if p.Attempts() <= 1 {
		return f
	}
	return &retrying{Fetcher: f, policy: p, logger: logger.With("component", "retry")}
}

func (r *retrying) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	var resp *types.Response
	attempt := 0
	err := retry.Do(ctx, r.policy, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			r.logger.Debug("retrying fetch", "url", req.URLString(), "attempt", attempt)
		}
		var err error
		resp, err = r.Fetcher.Fetch(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
