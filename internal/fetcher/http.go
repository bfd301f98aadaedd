package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

const (
	acceptHTML = "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8"

	// Retry-After values outside this range are clamped.
	minRetryAfter     = time.Second
	maxRetryAfter     = 2 * time.Minute
	defaultRetryAfter = 5 * time.Second

	// How much of an error page ends up in a FetchError message.
	errorSnippetSize = 512
)

// HTTPFetcher fetches catalog pages over plain HTTP. Every request asks for
// the configured language so that the extraction rules see the headings
// ("Directed by", "Official Sites") they match on.
type HTTPFetcher struct {
	client     *http.Client
	cfg        *config.FetcherConfig
	proxies    *ProxyManager
	logger     *slog.Logger
	userAgents []string
	uaNext     atomic.Int64
}

// NewHTTPFetcher creates an HTTP fetcher from the fetcher and proxy sections.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	// The site keeps locale and consent state in cookies across list pages.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	f := &HTTPFetcher{
		cfg:        &cfg.Fetcher,
		logger:     logger.With("component", "http_fetcher"),
		userAgents: cfg.Fetcher.UserAgents,
	}

	transport := catalogTransport(&cfg.Fetcher)
	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		f.proxies = NewProxyManager(&cfg.Proxy, logger)
		transport.Proxy = f.proxies.ProxyFunc()
	}

	f.client = &http.Client{
		Transport:     transport,
		Jar:           jar,
		Timeout:       cfg.Fetcher.RequestTimeout,
		CheckRedirect: f.checkRedirect,
	}
	return f, nil
}

// catalogTransport pools connections to the catalog host. Compression is
// negotiated by hand because the transport cannot decode brotli.
func catalogTransport(cfg *config.FetcherConfig) *http.Transport {
	perHost := cfg.MaxIdleConns / 2
	if perHost < 1 {
		perHost = 1
	}
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: perHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.TLSInsecure},
		DisableCompression:  true,
	}
}

func (f *HTTPFetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if !f.cfg.FollowRedirects {
		return http.ErrUseLastResponse
	}
	if len(via) >= f.cfg.MaxRedirects {
		return fmt.Errorf("stopped after %d redirects", f.cfg.MaxRedirects)
	}
	return nil
}

// Fetch GETs one catalog page. Non-2xx statuses come back as
// *types.FetchError; 429 and 5xx are marked retryable.
func (f *HTTPFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := f.newRequest(ctx, req)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err}
	}

	start := time.Now()
	httpResp, err := f.client.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: isRetryableError(err)}
	}
	defer httpResp.Body.Close()

	if err := statusError(req, httpResp); err != nil {
		f.logger.Debug("page refused", "url", req.URLString(), "tag", req.Tag, "status", httpResp.StatusCode)
		return nil, err
	}

	body, err := f.readBody(httpResp)
	if err != nil {
		return nil, &types.FetchError{
			URL:        req.URLString(),
			StatusCode: httpResp.StatusCode,
			Err:        err,
			Retryable:  !errors.Is(err, types.ErrEmptyResponse) && !isDecodeError(err),
		}
	}

	resp := types.NewResponse(req, httpResp, body, elapsed)
	f.logger.Debug("page fetched",
		"url", req.URLString(),
		"tag", req.Tag,
		"offset", req.Offset,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", elapsed,
	)
	return resp, nil
}

// newRequest builds the HTTP request with the catalog headers. Headers set
// on req win.
func (f *HTTPFetcher) newRequest(ctx context.Context, req *types.Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URLString(), nil)
	if err != nil {
		return nil, err
	}

	h := httpReq.Header
	h.Set("User-Agent", f.nextUserAgent())
	h.Set("Accept", acceptHTML)
	h.Set("Accept-Encoding", "gzip, deflate, br")
	if f.cfg.AcceptLanguage != "" {
		h.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
	for key, values := range req.Headers {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
	return httpReq, nil
}

// statusError maps a non-2xx response to a *types.FetchError.
func statusError(req *types.Request, resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		wait := retryAfter(resp.Header.Get("Retry-After"))
		return &types.FetchError{
			URL:        req.URLString(),
			StatusCode: code,
			Err:        fmt.Errorf("HTTP 429: rate limited, retry after %s", wait),
			Retryable:  true,
			RetryAfter: wait,
		}
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetSize))
		return &types.FetchError{
			URL:        req.URLString(),
			StatusCode: code,
			Err:        fmt.Errorf("HTTP %d: %s", code, strings.TrimSpace(string(snippet))),
			Retryable:  code >= 500,
		}
	}
}

// readBody decodes the response body up to the configured size limit.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		r = io.LimitReader(r, f.cfg.MaxBodySize)
	}
	r, err := decoder(resp.Header.Get("Content-Encoding"), r)
	if err != nil {
		return nil, &decodeError{err}
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, types.ErrEmptyResponse
	}
	return body, nil
}

// Close drops idle connections.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns "http".
func (f *HTTPFetcher) Type() string {
	return "http"
}

func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return "ReelGoat/" + config.Version
	}
	return f.userAgents[(f.uaNext.Add(1)-1)%int64(len(f.userAgents))]
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode body: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// decoder wraps r for the given Content-Encoding.
func decoder(encoding string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return r, nil
	}
}

// isRetryableError reports transport failures worth another attempt:
// timeouts, resets and truncated bodies. Cancellation never is.
func isRetryableError(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNREFUSED):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// retryAfter reads a Retry-After header given in seconds or as an HTTP date.
func retryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	var d time.Duration
	if secs, err := strconv.Atoi(header); err == nil {
		d = time.Duration(secs) * time.Second
	} else if t, err := http.ParseTime(header); err == nil {
		d = time.Until(t)
	} else {
		return defaultRetryAfter
	}
	return min(max(d, minRetryAfter), maxRetryAfter)
}
