// Package client exposes the catalog operations: a user's public ratings,
// their watchlist, and full title lookups.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/extract"
	"github.com/IshaanNene/ReelGoat/internal/fetcher"
	"github.com/IshaanNene/ReelGoat/internal/observability"
	"github.com/IshaanNene/ReelGoat/internal/paginate"
	"github.com/IshaanNene/ReelGoat/internal/parser"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Client runs catalog operations over a Fetcher.
type Client struct {
	cfg        *config.CatalogConfig
	base       *url.URL
	fetcher    fetcher.Fetcher
	controller *paginate.Controller
	resolver   *fetcher.RedirectResolver
	structured *parser.StructuredDataExtractor
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// New creates a Client. cfg must have passed config.Validate.
func New(cfg *config.Config, f fetcher.Fetcher, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.Catalog.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, &types.ConfigError{Field: "catalog.base_url", Value: cfg.Catalog.BaseURL, Err: types.ErrInvalidURL}
	}
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &Client{
		cfg:        &cfg.Catalog,
		base:       base,
		fetcher:    f,
		controller: paginate.New(f, paginate.Options{
			MaxConcurrency: cfg.Pagination.MaxConcurrency,
			MaxItems:       cfg.Pagination.MaxItems,
		}, metrics, logger),
		resolver:   fetcher.NewRedirectResolver(nil, cfg.Fetcher.RedirectTimeout, logger),
		structured: parser.NewStructuredDataExtractor(logger),
		metrics:    metrics,
		logger:     logger.With("component", "client"),
	}, nil
}

// Metrics returns the counters the client reports to.
func (c *Client) Metrics() *observability.Metrics {
	return c.metrics
}

func (c *Client) urlFor(template, arg string) string {
	return c.base.String() + fmt.Sprintf(template, url.PathEscape(arg))
}

// RatingsTarget describes the paginated ratings list of user.
func (c *Client) RatingsTarget(user string) paginate.Target {
	ratingsPath := fmt.Sprintf(c.cfg.RatingsPath, url.PathEscape(user))
	return paginate.Target{
		Name:       "ratings",
		SummaryURL: c.urlFor(c.cfg.UserPath, user),
		CountQuery: fmt.Sprintf(`//a[@href="%s"]`, ratingsPath),
		ListURL:    c.base.String() + ratingsPath,
		Missing:    types.ErrNoRatings,
	}
}

// Ratings returns every public rating of user, laid out as view.
func (c *Client) Ratings(ctx context.Context, user string, view catalog.ViewKind) ([]*catalog.Movie, error) {
	c.logger.Info("fetching ratings", "user", user, "view", view.String())
	return c.controller.Collect(ctx, c.RatingsTarget(user), view)
}

// Watchlist returns the public watchlist of user. An empty or private list
// is reported as types.ErrEmptyWatchlist.
func (c *Client) Watchlist(ctx context.Context, user string) ([]*catalog.Movie, error) {
	c.logger.Info("fetching watchlist", "user", user)
	doc, _, err := c.page(ctx, c.urlFor(c.cfg.WatchlistPath, user), "watchlist")
	if err != nil {
		return nil, err
	}
	records := extract.Watchlist(doc)
	if len(records) == 0 {
		return nil, fmt.Errorf("watchlist of %s: %w", user, types.ErrEmptyWatchlist)
	}
	c.metrics.RecordsExtracted.Add(int64(len(records)))
	return records, nil
}

// Title fetches the title page, full credits and keywords of id
// concurrently and merges them into one record. Official site links are
// resolved to their landing URLs; links that fail to resolve are dropped.
// A title page without a name yields a *types.ParseError wrapping
// types.ErrNoTitle and no record.
func (c *Client) Title(ctx context.Context, id string) (*catalog.Movie, error) {
	c.logger.Info("fetching title", "id", id)

	var (
		main     *catalog.Movie
		credits  *catalog.Movie
		keywords []catalog.Keyword
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, resp, err := c.page(gctx, c.urlFor(c.cfg.TitlePath, id), "title")
		if err != nil {
			return err
		}
		sd, err := c.structured.Extract(resp)
		if err != nil {
			c.logger.Warn("structured data unavailable", "id", id, "error", err)
		}
		main = extract.Title(doc, id, sd)
		return nil
	})
	g.Go(func() error {
		doc, _, err := c.page(gctx, c.urlFor(c.cfg.CreditsPath, id), "credits")
		if err != nil {
			return err
		}
		credits = extract.Credits(doc)
		return nil
	})
	g.Go(func() error {
		doc, _, err := c.page(gctx, c.urlFor(c.cfg.KeywordsPath, id), "keywords")
		if err != nil {
			return err
		}
		keywords = extract.Keywords(doc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if main.Title == "" {
		return nil, &types.ParseError{
			URL:      c.urlFor(c.cfg.TitlePath, id),
			Selector: extract.TitleNameQuery,
			Err:      types.ErrNoTitle,
		}
	}

	main.Merge(credits)
	main.Keywords = keywords
	if main.Production != nil && len(main.Production.OfficialSites) > 0 {
		main.Production.OfficialSites = c.resolveSites(ctx, main.Production.OfficialSites)
	}
	c.metrics.RecordsExtracted.Add(1)
	return main, nil
}

// ResolveRedirect follows rawURL, relative to the catalog base when it has
// no host, and returns where it lands.
func (c *Client) ResolveRedirect(ctx context.Context, rawURL string) (string, bool) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	return c.resolver.Resolve(ctx, c.base.ResolveReference(ref).String())
}

func (c *Client) resolveSites(ctx context.Context, hrefs []string) []string {
	sites := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if site, ok := c.ResolveRedirect(ctx, href); ok {
			sites = append(sites, site)
		} else {
			c.logger.Debug("dropping unresolvable official site", "href", href)
		}
	}
	return sites
}

// page fetches rawURL and parses it.
func (c *Client) page(ctx context.Context, rawURL, tag string) (*parser.Node, *types.Response, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, nil, err
	}
	req.Tag = tag

	resp, err := c.fetcher.Fetch(ctx, req)
	if err != nil {
		c.metrics.FetchFailures.Add(1)
		return nil, nil, err
	}
	c.metrics.PagesFetched.Add(1)
	c.metrics.BytesFetched.Add(int64(len(resp.Body)))

	doc, err := parser.Parse(resp.Text())
	if err != nil {
		return nil, nil, &types.ParseError{URL: rawURL, Err: err}
	}
	return doc, resp, nil
}
