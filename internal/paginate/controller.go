// Package paginate discovers how many items a catalog list holds and fans
// out one fetch, parse and extract unit per list page.
package paginate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/extract"
	"github.com/IshaanNene/ReelGoat/internal/fetcher"
	"github.com/IshaanNene/ReelGoat/internal/observability"
	"github.com/IshaanNene/ReelGoat/internal/parser"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Stages reported in *types.StageError.
const (
	StageDiscovery = "discovery"
	StageFetch     = "fetch"
	StageParse     = "parse"
	StageExtract   = "extract"
)

// FirstOffset is the start value of the first list page.
const FirstOffset = 1

// DefaultMaxItems bounds the discovered list size when Options.MaxItems is
// not set.
const DefaultMaxItems = 1_000_000

var (
	// ErrNoCountIndicator is used when a Target does not name its own sentinel.
	ErrNoCountIndicator = errors.New("count indicator not found")

	// ErrCountOutOfRange reports a count indicator above the item limit.
	ErrCountOutOfRange = errors.New("count indicator out of range")
)

var countPattern = regexp.MustCompile(`[0-9,]+`)

// Target describes one paginated list.
type Target struct {
	// Name identifies the target in logs and errors.
	Name string

	// SummaryURL is fetched once to discover the item count.
	SummaryURL string

	// CountQuery selects the node whose text holds the item count.
	CountQuery string

	// ListURL is the page URL; view, sort and start are added per page.
	ListURL string

	// Missing is wrapped in the DiscoveryError when CountQuery matches
	// nothing. Nil means ErrNoCountIndicator.
	Missing error
}

// Options tunes the controller.
type Options struct {
	// MaxConcurrency caps in-flight page units. Zero or less is unbounded.
	MaxConcurrency int

	// MaxItems is the largest item count Discover accepts. Zero or less
	// means DefaultMaxItems.
	MaxItems int
}

// Controller runs discovery and fan-out for list targets.
type Controller struct {
	fetcher fetcher.Fetcher
	opts    Options
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a Controller. A nil metrics collects into a private instance.
func New(f fetcher.Fetcher, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Controller {
	if metrics == nil {
		metrics = observability.NewMetrics(logger)
	}
	return &Controller{
		fetcher: f,
		opts:    opts,
		metrics: metrics,
		logger:  logger.With("component", "paginate"),
	}
}

// Offsets returns the start value of every page: first, first+interval, ...
// while the value does not exceed total. That is ceil(total/interval)
// offsets when first is 1.
func Offsets(first, total, interval int) []int {
	if interval <= 0 || total < first {
		return nil
	}
	var offsets []int
	for off := first; ; off += interval {
		offsets = append(offsets, off)
		if off > total-interval {
			return offsets
		}
	}
}

// PageRequest builds the request for the list page starting at offset.
func PageRequest(listURL string, view catalog.ViewKind, offset int) (*types.Request, error) {
	base, err := types.NewRequest(listURL)
	if err != nil {
		return nil, err
	}
	req := base.WithQuery(map[string]string{
		"view":     view.String(),
		"sort":     "title:asc",
		"defaults": "1",
		"start":    strconv.Itoa(offset),
	})
	req.Tag = "list"
	req.Offset = offset
	return req, nil
}

// Discover fetches the target's summary page and returns the item count.
func (c *Controller) Discover(ctx context.Context, t Target) (int, error) {
	req, err := types.NewRequest(t.SummaryURL)
	if err != nil {
		return 0, &types.DiscoveryError{Target: t.Name, URL: t.SummaryURL, Err: err}
	}
	req.Tag = "summary"

	doc, err := c.page(ctx, req)
	if err != nil {
		return 0, err
	}

	indicator := doc.Find(t.CountQuery)
	if indicator == nil {
		missing := t.Missing
		if missing == nil {
			missing = ErrNoCountIndicator
		}
		return 0, &types.DiscoveryError{Target: t.Name, URL: t.SummaryURL, Err: missing}
	}

	raw := countPattern.FindString(indicator.Text())
	total, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return 0, &types.DiscoveryError{
			Target: t.Name,
			URL:    t.SummaryURL,
			Err:    fmt.Errorf("count indicator %q holds no number", indicator.Text()),
		}
	}

	if limit := c.maxItems(); total > limit {
		return 0, &types.DiscoveryError{
			Target: t.Name,
			URL:    t.SummaryURL,
			Err:    fmt.Errorf("%w: %d items, limit is %d", ErrCountOutOfRange, total, limit),
		}
	}

	c.logger.Debug("discovered list size", "target", t.Name, "total", total)
	return total, nil
}

func (c *Controller) maxItems() int {
	if c.opts.MaxItems > 0 {
		return c.opts.MaxItems
	}
	return DefaultMaxItems
}

// Collect discovers the target's size and extracts every record of every
// list page. The first failing unit cancels the rest and its error is
// returned as a *types.StageError. Record order is not preserved.
func (c *Controller) Collect(ctx context.Context, t Target, view catalog.ViewKind) ([]*catalog.Movie, error) {
	if !view.Valid() {
		return nil, &types.ConfigError{Field: "pagination.view", Value: view.String(), Err: errors.New("unknown view")}
	}

	total, err := c.Discover(ctx, t)
	if err != nil {
		return nil, &types.StageError{Stage: StageDiscovery, Err: err}
	}

	offsets := Offsets(FirstOffset, total, catalog.IntervalFor(view))
	c.metrics.PagesScheduled.Add(int64(len(offsets)))
	c.logger.Info("collecting list",
		"target", t.Name,
		"view", view.String(),
		"total", total,
		"pages", len(offsets),
	)

	var (
		mu      sync.Mutex
		records []*catalog.Movie
	)

	g, gctx := errgroup.WithContext(ctx)
	if c.opts.MaxConcurrency > 0 {
		g.SetLimit(c.opts.MaxConcurrency)
	}

	for _, offset := range offsets {
		g.Go(func() error {
			found, err := c.unit(gctx, t, view, offset)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			records = append(records, found...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Info("list collected", "target", t.Name, "records", len(records))
	return records, nil
}

// unit fetches, parses and extracts the list page starting at offset.
func (c *Controller) unit(ctx context.Context, t Target, view catalog.ViewKind, offset int) ([]*catalog.Movie, error) {
	req, err := PageRequest(t.ListURL, view, offset)
	if err != nil {
		return nil, &types.StageError{Stage: StageFetch, Offset: offset, Err: err}
	}

	doc, err := c.page(ctx, req)
	if err != nil {
		var pe *types.ParseError
		if errors.As(err, &pe) {
			return nil, &types.StageError{Stage: StageParse, Offset: offset, Err: err}
		}
		return nil, &types.StageError{Stage: StageFetch, Offset: offset, Err: err}
	}

	nodes := doc.FindAll(catalog.QueryFor(view))
	records := make([]*catalog.Movie, 0, len(nodes))
	for _, n := range nodes {
		m, err := extract.Item(n, view)
		if err != nil {
			return nil, &types.StageError{Stage: StageExtract, Offset: offset, Err: err}
		}
		if m == nil {
			c.metrics.NodesSkipped.Add(1)
			continue
		}
		records = append(records, m)
	}
	c.metrics.RecordsExtracted.Add(int64(len(records)))

	c.logger.Debug("page extracted", "target", t.Name, "offset", offset, "nodes", len(nodes), "records", len(records))
	return records, nil
}

// page fetches req and parses the body.
func (c *Controller) page(ctx context.Context, req *types.Request) (*parser.Node, error) {
	c.metrics.ActiveFetches.Add(1)
	resp, err := c.fetcher.Fetch(ctx, req)
	c.metrics.ActiveFetches.Add(-1)
	if err != nil {
		c.metrics.FetchFailures.Add(1)
		return nil, err
	}
	c.metrics.PagesFetched.Add(1)
	c.metrics.BytesFetched.Add(int64(len(resp.Body)))

	doc, err := parser.Parse(resp.Text())
	if err != nil {
		return nil, &types.ParseError{URL: req.URLString(), Err: err}
	}
	return doc, nil
}
