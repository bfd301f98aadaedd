package paginate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/fetcher"
	"github.com/IshaanNene/ReelGoat/internal/observability"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	summaryURL = "https://catalog.test/user/ur1"
	listURL    = "https://catalog.test/user/ur1/ratings"
	countQuery = `//a[@href="/user/ur1/ratings"]`
)

var testTarget = Target{Name: "ratings", SummaryURL: summaryURL, CountQuery: countQuery, ListURL: listURL}

// stubFetcher serves the summary page and one canned page per offset.
type stubFetcher struct {
	total   int
	count   string // overrides the formatted total when set
	pages   map[int][]string
	failAt  int
	jitter  bool
	calls   atomic.Int32
	mu      sync.Mutex
	offsets []int
}

func (s *stubFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	s.calls.Add(1)
	if req.URLString() == summaryURL {
		body := `<html><body><p>nothing here</p></body></html>`
		count := s.count
		if count == "" && s.total >= 0 {
			count = commas(s.total)
		}
		if count != "" {
			body = fmt.Sprintf(`<html><body><a href="/user/ur1/ratings">%s Ratings</a></body></html>`, count)
		}
		return &types.Response{Request: req, StatusCode: 200, Body: []byte(body)}, nil
	}

	start, _ := strconv.Atoi(req.URL.Query().Get("start"))
	s.mu.Lock()
	s.offsets = append(s.offsets, start)
	s.mu.Unlock()

	if s.jitter {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
	}
	if start == s.failAt {
		return nil, &types.FetchError{URL: req.URLString(), StatusCode: 503, Err: errors.New("unavailable")}
	}

	var rows strings.Builder
	for _, id := range s.pages[start] {
		fmt.Fprintf(&rows, `<tr data-item-id="%[1]s"><td class="title"><a href="/title/%[1]s/">Title %[1]s</a></td></tr>`, id)
	}
	body := "<html><body><table>" + rows.String() + "</table></body></html>"
	return &types.Response{Request: req, StatusCode: 200, Body: []byte(body)}, nil
}

func (s *stubFetcher) Close() error { return nil }
func (s *stubFetcher) Type() string { return "stub" }

func commas(n int) string {
	s := strconv.Itoa(n)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}

func ids(records []*catalog.Movie) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	sort.Strings(out)
	return out
}

func TestOffsets(t *testing.T) {
	tests := []struct {
		total, interval int
		want            []int
	}{
		{250, 250, []int{1}},
		{251, 250, []int{1, 251}},
		{0, 250, nil},
		{1, 100, []int{1}},
		{300, 100, []int{1, 101, 201}},
		{301, 100, []int{1, 101, 201, 301}},
		{10, 0, nil},
		{500, 250, []int{1, 251}},
	}
	for _, tt := range tests {
		got := Offsets(FirstOffset, tt.total, tt.interval)
		assert.Equal(t, tt.want, got, "total=%d interval=%d", tt.total, tt.interval)
		if tt.interval > 0 {
			assert.Len(t, got, (tt.total+tt.interval-1)/tt.interval, "ceil(%d/%d)", tt.total, tt.interval)
		}
	}
}

func TestOffsetsNearMaxInt(t *testing.T) {
	const maxInt = int(^uint(0) >> 1)
	got := Offsets(maxInt-5, maxInt, 4)
	assert.Equal(t, []int{maxInt - 5, maxInt - 1}, got)
}

func TestCollectRejectsOversizedCount(t *testing.T) {
	for _, count := range []string{
		"9,000,000,000,000,000,000",
		"99,999,999,999,999,999,999",
		"2,000,000,000",
	} {
		f := &stubFetcher{count: count}
		records, err := New(f, Options{}, nil, testLogger).Collect(context.Background(), testTarget, catalog.Compact)
		assert.Nil(t, records, count)

		var de *types.DiscoveryError
		require.True(t, errors.As(err, &de), "%s: got %v", count, err)
		var se *types.StageError
		require.True(t, errors.As(err, &se), count)
		assert.Equal(t, StageDiscovery, se.Stage, count)
		assert.Equal(t, int32(1), f.calls.Load(), "%s: no list page may be fetched", count)
	}
}

func TestDiscoverHonorsMaxItems(t *testing.T) {
	c := New(&stubFetcher{total: 501}, Options{MaxItems: 500}, nil, testLogger)
	_, err := c.Discover(context.Background(), testTarget)
	assert.ErrorIs(t, err, ErrCountOutOfRange)

	total, err := New(&stubFetcher{total: 500}, Options{MaxItems: 500}, nil, testLogger).Discover(context.Background(), testTarget)
	require.NoError(t, err)
	assert.Equal(t, 500, total)
}

func TestPageRequest(t *testing.T) {
	req, err := PageRequest(listURL, catalog.Detail, 101)
	require.NoError(t, err)

	q := req.URL.Query()
	assert.Equal(t, "detail", q.Get("view"))
	assert.Equal(t, "title:asc", q.Get("sort"))
	assert.Equal(t, "1", q.Get("defaults"))
	assert.Equal(t, "101", q.Get("start"))
	assert.Equal(t, 101, req.Offset)
	assert.Equal(t, "/user/ur1/ratings", req.URL.Path)
}

func TestDiscover(t *testing.T) {
	c := New(&stubFetcher{total: 1234}, Options{}, nil, testLogger)
	total, err := c.Discover(context.Background(), testTarget)
	require.NoError(t, err)
	assert.Equal(t, 1234, total)
}

func TestDiscoverMissingIndicator(t *testing.T) {
	sentinel := errors.New("no ratings")
	target := testTarget
	target.Missing = sentinel

	c := New(&stubFetcher{total: -1}, Options{}, nil, testLogger)
	_, err := c.Collect(context.Background(), target, catalog.Compact)

	var de *types.DiscoveryError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "ratings", de.Target)
	assert.ErrorIs(t, err, sentinel)

	var se *types.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageDiscovery, se.Stage)

	_, err = New(&stubFetcher{total: -1}, Options{}, nil, testLogger).Discover(context.Background(), testTarget)
	assert.ErrorIs(t, err, ErrNoCountIndicator)
}

func TestCollectSchedulesCeilPages(t *testing.T) {
	tests := []struct {
		total int
		want  []int
	}{
		{250, []int{1}},
		{251, []int{1, 251}},
		{0, nil},
	}
	for _, tt := range tests {
		f := &stubFetcher{total: tt.total}
		metrics := observability.NewMetrics(testLogger)
		_, err := New(f, Options{}, metrics, testLogger).Collect(context.Background(), testTarget, catalog.Compact)
		require.NoError(t, err)

		sort.Ints(f.offsets)
		assert.Equal(t, tt.want, f.offsets, "total=%d", tt.total)
		assert.Equal(t, int64(len(tt.want)), metrics.PagesScheduled.Load())
	}
}

func TestCollectAggregatesAllUnits(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := &stubFetcher{
			total:  251 + 250,
			jitter: true,
			pages: map[int][]string{
				1:   {"tt0000001", "tt0000002"},
				251: {},
				501: {"tt0000003"},
			},
		}
		records, err := New(f, Options{}, nil, testLogger).Collect(context.Background(), testTarget, catalog.Compact)
		require.NoError(t, err)
		assert.Equal(t, []string{"tt0000001", "tt0000002", "tt0000003"}, ids(records))
	}
}

func TestCollectShortLastPageKeepsSchedule(t *testing.T) {
	f := &stubFetcher{
		total: 260,
		pages: map[int][]string{1: {"tt0000001"}, 251: {"tt0000002"}},
	}
	records, err := New(f, Options{}, nil, testLogger).Collect(context.Background(), testTarget, catalog.Compact)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, f.offsets, 2)
}

func TestCollectPropagatesFetchFailure(t *testing.T) {
	f := &stubFetcher{
		total:  751,
		failAt: 501,
		pages:  map[int][]string{1: {"tt0000001"}, 251: {"tt0000002"}, 751: {"tt0000004"}},
	}
	metrics := observability.NewMetrics(testLogger)
	records, err := New(f, Options{}, metrics, testLogger).Collect(context.Background(), testTarget, catalog.Compact)
	require.Error(t, err)
	assert.Nil(t, records)

	var se *types.StageError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, StageFetch, se.Stage)
	assert.Equal(t, 501, se.Offset)

	var fe *types.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 503, fe.StatusCode)
	assert.GreaterOrEqual(t, metrics.FetchFailures.Load(), int64(1))
}

func TestCollectGridIsUnsupported(t *testing.T) {
	grid := &gridFetcher{stubFetcher: &stubFetcher{total: 5}}

	records, err := New(grid, Options{}, nil, testLogger).Collect(context.Background(), testTarget, catalog.Grid)
	assert.Nil(t, records)

	var uv *types.UnsupportedViewError
	require.True(t, errors.As(err, &uv), "got %v", err)
	var se *types.StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageExtract, se.Stage)
}

type gridFetcher struct {
	*stubFetcher
}

func (g *gridFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.URLString() == summaryURL {
		return g.stubFetcher.Fetch(ctx, req)
	}
	body := `<html><body><div class="list_item grid"><a href="/title/tt0000009/">x</a></div></body></html>`
	return &types.Response{Request: req, StatusCode: 200, Body: []byte(body)}, nil
}

func TestCollectRejectsUnknownView(t *testing.T) {
	f := &stubFetcher{total: 10}
	_, err := New(f, Options{}, nil, testLogger).Collect(context.Background(), testTarget, catalog.ViewKind(42))

	var ce *types.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Zero(t, f.calls.Load(), "nothing is fetched for an unknown view")
}

// limitFetcher records the peak number of concurrent list fetches.
type limitFetcher struct {
	*stubFetcher
	inflight atomic.Int32
	peak     atomic.Int32
}

func (l *limitFetcher) Fetch(ctx context.Context, req *types.Request) (*types.Response, error) {
	if req.URLString() == summaryURL {
		return l.stubFetcher.Fetch(ctx, req)
	}
	n := l.inflight.Add(1)
	defer l.inflight.Add(-1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return l.stubFetcher.Fetch(ctx, req)
}

func TestCollectConcurrencyCap(t *testing.T) {
	f := &limitFetcher{stubFetcher: &stubFetcher{total: 250 * 10}}
	_, err := New(f, Options{MaxConcurrency: 2}, nil, testLogger).Collect(context.Background(), testTarget, catalog.Compact)
	require.NoError(t, err)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
	assert.Len(t, f.offsets, 10)
}

func TestCollectOverHTTP(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/ur9":
			fmt.Fprint(w, `<html><body><a href="/user/ur9/ratings">101 Ratings</a></body></html>`)
		case "/user/ur9/ratings":
			mu.Lock()
			seen = append(seen, r.URL.RawQuery)
			mu.Unlock()
			start := r.URL.Query().Get("start")
			fmt.Fprintf(w, `<html><body>
<div class="list_item odd"><div class="info"><b><a href="/title/tt%[1]s01/">Page %[1]s</a><span>(1999)</span></b></div></div>
</body></html>`, start)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	f, err := fetcher.New(cfg, testLogger)
	require.NoError(t, err)
	defer f.Close()

	target := Target{
		Name:       "ratings",
		SummaryURL: srv.URL + "/user/ur9",
		CountQuery: `//a[@href="/user/ur9/ratings"]`,
		ListURL:    srv.URL + "/user/ur9/ratings",
	}
	records, err := New(f, Options{}, nil, testLogger).Collect(context.Background(), target, catalog.Detail)
	require.NoError(t, err)
	assert.Equal(t, []string{"tt101", "tt10101"}, ids(records))

	sort.Strings(seen)
	assert.Equal(t, []string{
		"defaults=1&sort=title%3Aasc&start=1&view=detail",
		"defaults=1&sort=title%3Aasc&start=101&view=detail",
	}, seen)
}
