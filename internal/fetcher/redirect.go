package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RedirectResolver follows redirect chains to find where a link lands.
// Title pages wrap official site links in tracking redirects.
type RedirectResolver struct {
	client *http.Client
	logger *slog.Logger
}

// NewRedirectResolver creates a resolver whose lookups give up after
// timeout. A nil client uses a fresh http.Client.
func NewRedirectResolver(client *http.Client, timeout time.Duration, logger *slog.Logger) *RedirectResolver {
	c := &http.Client{Timeout: timeout}
	if client != nil {
		copied := *client
		copied.Timeout = timeout
		copied.CheckRedirect = nil
		c = &copied
	}
	return &RedirectResolver{client: c, logger: logger.With("component", "redirect_resolver")}
}

// Resolve issues a GET for rawURL, following redirects, and returns the
// final URL. Any failure returns ("", false).
func (r *RedirectResolver) Resolve(ctx context.Context, rawURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		r.logger.Debug("redirect resolve failed", "url", rawURL, "error", err)
		return "", false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("redirect resolve failed", "url", rawURL, "error", err)
		return "", false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		r.logger.Debug("redirect target returned error", "url", rawURL, "status", resp.StatusCode)
		return "", false
	}
	return resp.Request.URL.String(), true
}
