package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/client"
	"github.com/IshaanNene/ReelGoat/internal/config"
	"github.com/IshaanNene/ReelGoat/internal/fetcher"
	"github.com/IshaanNene/ReelGoat/internal/observability"
	"github.com/IshaanNene/ReelGoat/internal/pipeline"
	"github.com/IshaanNene/ReelGoat/internal/storage"
)

// ratingsCmd creates the "ratings" subcommand.
func ratingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratings <user-id>",
		Short: "Scrape a user's public ratings",
		Long: `Scrape every page of a user's public ratings list.

The list size is read from the user's profile page, then all pages are
fetched concurrently. Use --concurrency to cap parallel page fetches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "ratings", func(ctx context.Context, s *session) ([]*catalog.Movie, error) {
				view, err := catalog.ParseView(s.cfg.Pagination.View)
				if err != nil {
					return nil, err
				}
				return s.client.Ratings(ctx, args[0], view)
			})
		},
	}
	addOutputFlags(cmd)
	cmd.Flags().StringVar(&viewName, "view", "", "list layout: compact or detail (grid has no extraction rules)")
	cmd.Flags().IntVar(&concurrent, "concurrency", 0, "max concurrent page fetches (0 = all pages at once)")
	return cmd
}

// watchlistCmd creates the "watchlist" subcommand.
func watchlistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist <user-id>",
		Short: "Scrape a user's public watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "watchlist", func(ctx context.Context, s *session) ([]*catalog.Movie, error) {
				return s.client.Watchlist(ctx, args[0])
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

// titleCmd creates the "title" subcommand.
func titleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "title <title-id>...",
		Short: "Look up titles with credits and keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, "title", func(ctx context.Context, s *session) ([]*catalog.Movie, error) {
				records := make([]*catalog.Movie, 0, len(args))
				for _, id := range args {
					m, err := s.client.Title(ctx, id)
					if err != nil {
						return nil, fmt.Errorf("title %s: %w", id, err)
					}
					records = append(records, m)
				}
				return records, nil
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

// session holds everything one command run needs.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	fetcher fetcher.Fetcher
	client  *client.Client
	pipe    *pipeline.Pipeline
	store   storage.Storage
	runID   string
}

func newSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &session{
		cfg:    cfg,
		logger: setupLogger(&cfg.Logging),
		runID:  storage.NewRunID(),
	}
	s.logger = s.logger.With("run_id", s.runID)
	s.metrics = observability.NewMetrics(s.logger)

	if cfg.Metrics.Enabled {
		if err := s.metrics.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			s.logger.Warn("failed to start metrics server", "error", err)
		}
	}

	if s.fetcher, err = fetcher.New(cfg, s.logger); err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	if s.client, err = client.New(cfg, s.fetcher, s.metrics, s.logger); err != nil {
		s.close()
		return nil, err
	}
	if s.pipe, err = pipeline.FromConfig(&cfg.Pipeline, s.metrics, s.logger); err != nil {
		s.close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	if s.store, err = storage.New(ctx, &cfg.Storage, s.runID, s.logger); err != nil {
		s.close()
		return nil, fmt.Errorf("create storage: %w", err)
	}
	return s, nil
}

func (s *session) close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("close storage", "error", err)
		}
	}
	if s.fetcher != nil {
		_ = s.fetcher.Close()
	}
}

// run wires a session, executes scrape and writes the surviving records.
func run(cmd *cobra.Command, name string, scrape func(context.Context, *session) ([]*catalog.Movie, error)) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.close()

	s.logger.Info("starting "+name,
		"fetcher", s.fetcher.Type(),
		"output", s.cfg.Storage.OutputPath,
		"format", s.cfg.Storage.Type,
	)

	start := time.Now()
	records, err := scrape(ctx, s)
	if err != nil {
		return err
	}

	kept, err := s.pipe.Run(records)
	if err != nil {
		return err
	}
	if err := s.store.Store(ctx, kept); err != nil {
		return fmt.Errorf("store records: %w", err)
	}
	s.metrics.RecordsStored.Add(int64(len(kept)))

	elapsed := time.Since(start)
	stats := s.metrics.Snapshot()
	s.logger.Info(name+" complete",
		"elapsed", elapsed,
		"pages", stats["pages_fetched"],
		"records", len(kept),
		"dropped", stats["records_dropped"],
	)

	fmt.Printf("\n✅ %s complete in %s\n", name, elapsed.Round(time.Millisecond))
	fmt.Printf("   Pages:     %v fetched, %v failed\n", stats["pages_fetched"], stats["fetch_failures"])
	fmt.Printf("   Records:   %v extracted, %v dropped, %v stored\n",
		stats["records_extracted"], stats["records_dropped"], stats["records_stored"])
	fmt.Printf("   Output:    %s (%s)\n", s.cfg.Storage.OutputPath, s.store.Name())
	fmt.Printf("   Run ID:    %s\n", s.runID)
	return nil
}
