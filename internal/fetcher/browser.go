package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// BrowserFetcher renders pages in a headless Chromium via Rod. Use it when
// the catalog serves a script-only shell to plain HTTP clients.
type BrowserFetcher struct {
	browser  *rod.Browser
	cfg      *config.FetcherConfig
	logger   *slog.Logger
	proxyMgr *ProxyManager
	pagePool chan *rod.Page
}

// NewBrowserFetcher launches a browser and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:    &cfg.Fetcher,
		logger: logger.With("component", "browser_fetcher"),
	}
	if cfg.Proxy.Enabled && len(cfg.Proxy.URLs) > 0 {
		bf.proxyMgr = NewProxyManager(&cfg.Proxy, logger)
	}

	maxPages := cfg.Pagination.MaxConcurrency
	if maxPages <= 0 {
		maxPages = 8
	}
	bf.pagePool = make(chan *rod.Page, maxPages)

	launchURL, err := bf.launchBrowser()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready", "max_pages", maxPages, "headless", cfg.Fetcher.Headless)
	return bf, nil
}

func (bf *BrowserFetcher) launchBrowser() (string, error) {
	l := launcher.New().
		Headless(bf.cfg.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	if bf.proxyMgr != nil {
		if proxyURL := bf.proxyMgr.Next(); proxyURL != nil {
			l = l.Proxy(proxyURL.String())
		}
	}

	return l.Launch()
}

// Fetch navigates to a URL and returns the rendered page content.
func (bf *BrowserFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	start := time.Now()

	page, err := bf.getPage()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	defer bf.putPage(page)
	page = page.Context(ctx)

	if len(bf.cfg.UserAgents) > 0 {
		ua := bf.cfg.UserAgents[int(start.UnixNano())%len(bf.cfg.UserAgents)]
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: ua}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	if len(req.Headers) > 0 || bf.cfg.AcceptLanguage != "" {
		headers := make([]string, 0, len(req.Headers)*2+2)
		if bf.cfg.AcceptLanguage != "" && req.Headers.Get("Accept-Language") == "" {
			headers = append(headers, "Accept-Language", bf.cfg.AcceptLanguage)
		}
		for k, vals := range req.Headers {
			for _, v := range vals {
				headers = append(headers, k, v)
			}
		}
		if _, err := page.SetExtraHeaders(headers); err != nil {
			bf.logger.Warn("failed to set headers", "error", err)
		}
	}

	timeout := bf.cfg.RequestTimeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}

	if err := page.Timeout(timeout).Navigate(req.URLString()); err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}
	if err := page.Timeout(timeout).WaitStable(300 * time.Millisecond); err != nil {
		bf.logger.Warn("page stability timeout, continuing", "url", req.URLString(), "error", err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: req.URLString(), Err: err, Retryable: true}
	}

	finalURL := req.URLString()
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)
	// Rod does not expose the document status code; a rendered page is 200.
	resp := types.NewBrowserResponse(req, 200, []byte(html), finalURL, duration)

	bf.logger.Debug("browser fetch complete",
		"url", req.URLString(),
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	return resp, nil
}

// Close shuts down the browser and releases resources.
func (bf *BrowserFetcher) Close() error {
	close(bf.pagePool)
	for page := range bf.pagePool {
		_ = page.Close()
	}
	if bf.browser != nil {
		return bf.browser.Close()
	}
	return nil
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}

// getPage takes a page from the pool or opens a new stealth page.
func (bf *BrowserFetcher) getPage() (*rod.Page, error) {
	select {
	case page := <-bf.pagePool:
		return page, nil
	default:
		return stealth.Page(bf.browser)
	}
}

// putPage returns a page to the pool.
func (bf *BrowserFetcher) putPage(page *rod.Page) {
	_ = page.Navigate("about:blank")

	select {
	case bf.pagePool <- page:
	default:
		_ = page.Close()
	}
}
