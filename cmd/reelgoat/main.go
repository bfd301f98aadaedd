package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/ReelGoat/internal/config"
)

var (
	cfgFile     string
	verbose     bool
	outputPath  string
	outputType  string
	viewName    string
	concurrent  int
	maxRetries  int
	mediaTypes  []string
	dedup       bool
	fetcherType string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reelgoat",
		Short: "ReelGoat: media catalog scraper",
		Long: `ReelGoat turns public catalog pages into structured title records.

Features:
  • Public ratings lists in compact or detail layout, fetched page-parallel
  • Public watchlists
  • Full title lookups: details, credits, keywords
  • JSON, JSONL, CSV, SQLite and MongoDB output
  • Plain HTTP or headless browser fetching, with proxy rotation
  • Prometheus metrics endpoint`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(ratingsCmd())
	rootCmd.AddCommand(watchlistCmd())
	rootCmd.AddCommand(titleCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addOutputFlags registers the flags shared by every scraping command.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory (default from config)")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: json, jsonl, csv, sqlite, mongodb")
	cmd.Flags().IntVar(&maxRetries, "max-retries", -1, "retries per failed page fetch (-1 = use config, default 0)")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher: http or browser")
	cmd.Flags().StringSliceVar(&mediaTypes, "type", nil, "keep only these media types (e.g. Feature,TVMovie)")
	cmd.Flags().BoolVar(&dedup, "dedup", true, "drop records with a repeated title ID")
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ReelGoat %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			out, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

// setupLogger creates a structured logger from the logging config.
// --verbose wins over the configured level.
func setupLogger(cfg *config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
	if viewName != "" {
		cfg.Pagination.View = viewName
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Pagination.MaxConcurrency = concurrent
	}
	if maxRetries >= 0 {
		cfg.Fetcher.MaxRetries = maxRetries
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if len(mediaTypes) > 0 {
		cfg.Pipeline.Types = mediaTypes
	}
	if cmd.Flags().Changed("dedup") {
		cfg.Pipeline.Dedup = dedup
	}
}
