package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks counters for a scrape run.
type Metrics struct {
	// Fetch metrics
	PagesFetched   atomic.Int64
	FetchFailures  atomic.Int64
	BytesFetched   atomic.Int64
	ActiveFetches  atomic.Int32
	PagesScheduled atomic.Int64

	// Record metrics
	RecordsExtracted atomic.Int64
	NodesSkipped     atomic.Int64
	RecordsDropped   atomic.Int64
	RecordsStored    atomic.Int64

	logger *slog.Logger
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		logger: logger.With("component", "metrics"),
	}
}

type sample struct {
	name  string
	help  string
	kind  string
	value int64
}

func (m *Metrics) samples() []sample {
	return []sample{
		{"reelgoat_pages_scheduled_total", "List pages scheduled for fetching", "counter", m.PagesScheduled.Load()},
		{"reelgoat_pages_fetched_total", "Pages fetched successfully", "counter", m.PagesFetched.Load()},
		{"reelgoat_fetch_failures_total", "Page fetches that failed", "counter", m.FetchFailures.Load()},
		{"reelgoat_bytes_fetched_total", "Response bytes fetched", "counter", m.BytesFetched.Load()},
		{"reelgoat_active_fetches", "Fetches in flight", "gauge", int64(m.ActiveFetches.Load())},
		{"reelgoat_records_extracted_total", "Records extracted from item nodes", "counter", m.RecordsExtracted.Load()},
		{"reelgoat_nodes_skipped_total", "Item nodes without an identifier or title", "counter", m.NodesSkipped.Load()},
		{"reelgoat_records_dropped_total", "Records dropped by the pipeline", "counter", m.RecordsDropped.Load()},
		{"reelgoat_records_stored_total", "Records written to storage", "counter", m.RecordsStored.Load()},
	}
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	for _, s := range m.samples() {
		fmt.Fprintf(w, "# HELP %s %s\n", s.name, s.help)
		fmt.Fprintf(w, "# TYPE %s %s\n", s.name, s.kind)
		fmt.Fprintf(w, "%s %d\n", s.name, s.value)
	}
}

// StartServer serves metrics on port until ctx is cancelled.
func (m *Metrics) StartServer(ctx context.Context, port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	m.logger.Info("metrics server starting", "addr", srv.Addr, "path", path)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return nil
}

// Snapshot returns all metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"pages_scheduled":   m.PagesScheduled.Load(),
		"pages_fetched":     m.PagesFetched.Load(),
		"fetch_failures":    m.FetchFailures.Load(),
		"bytes_fetched":     m.BytesFetched.Load(),
		"records_extracted": m.RecordsExtracted.Load(),
		"nodes_skipped":     m.NodesSkipped.Load(),
		"records_dropped":   m.RecordsDropped.Load(),
		"records_stored":    m.RecordsStored.Load(),
	}
}
