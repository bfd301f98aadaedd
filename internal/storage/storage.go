package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/config"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of records.
	Store(ctx context.Context, records []*catalog.Movie) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// Record is a catalog record as written by every backend: the record plus
// the run that produced it.
type Record struct {
	RunID         string    `json:"run_id"     bson:"run_id"`
	ScrapedAt     time.Time `json:"scraped_at" bson:"scraped_at"`
	catalog.Movie `bson:",inline"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

func envelope(runID string, at time.Time, m *catalog.Movie) Record {
	return Record{RunID: runID, ScrapedAt: at, Movie: *m}
}

// New creates the backend selected by cfg.Type. Records are stamped with
// runID, or a fresh one when runID is empty.
func New(ctx context.Context, cfg *config.StorageConfig, runID string, logger *slog.Logger) (Storage, error) {
	if runID == "" {
		runID = NewRunID()
	}
	switch cfg.Type {
	case "json", "jsonl", "csv":
		return NewFileStorage(cfg.Type, cfg.OutputPath, runID, logger)
	case "mongodb":
		return NewMongoStorage(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, runID, logger)
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.OutputPath, "reelgoat.db")
		}
		return NewSQLiteStorage(ctx, path, runID, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
