package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS titles (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL,
	year            INTEGER,
	type            TEXT NOT NULL,
	rating          REAL,
	user_rating     REAL,
	votes           INTEGER,
	runtime_minutes INTEGER,
	classification  TEXT,
	genres          TEXT,
	record_json     TEXT NOT NULL,
	run_id          TEXT NOT NULL,
	scraped_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_titles_run_id ON titles(run_id);
CREATE INDEX IF NOT EXISTS idx_titles_type ON titles(type);
`

const sqliteUpsert = `
INSERT INTO titles (id, title, year, type, rating, user_rating, votes, runtime_minutes,
                    classification, genres, record_json, run_id, scraped_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	year = excluded.year,
	type = excluded.type,
	rating = excluded.rating,
	user_rating = excluded.user_rating,
	votes = excluded.votes,
	runtime_minutes = excluded.runtime_minutes,
	classification = excluded.classification,
	genres = excluded.genres,
	record_json = excluded.record_json,
	run_id = excluded.run_id,
	scraped_at = excluded.scraped_at`

// SQLiteStorage upserts records into a local SQLite database. Queryable
// columns are kept alongside the full record as JSON.
type SQLiteStorage struct {
	db     *sql.DB
	path   string
	runID  string
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath.
func NewSQLiteStorage(ctx context.Context, dbPath, runID string, logger *slog.Logger) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("create database dir: %w", err)}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("open database: %w", err)}
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("create schema: %w", err)}
	}

	return &SQLiteStorage{
		db:     db,
		path:   dbPath,
		runID:  runID,
		logger: logger.With("component", "sqlite_storage"),
	}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

func (s *SQLiteStorage) Store(ctx context.Context, records []*catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("begin: %w", err)}
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsert)
	if err != nil {
		return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("prepare: %w", err)}
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, m := range records {
		data, err := json.Marshal(envelope(s.runID, now, m))
		if err != nil {
			return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("encode %s: %w", m.ID, err)}
		}
		if _, err := stmt.ExecContext(ctx,
			m.ID,
			m.Title,
			nullInt(m.Year != nil, m.YearValue()),
			m.Type.String(),
			nullFloat(m.Rating),
			nullFloat(m.UserRating),
			nullIntPtr(m.Votes),
			nullInt(m.Runtime != nil, m.RuntimeMinutes()),
			nullClassification(m.Classification),
			strings.Join(m.Genres, "|"),
			string(data),
			s.runID,
			now,
		); err != nil {
			return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("upsert %s: %w", m.ID, err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("commit: %w", err)}
	}
	s.count += len(records)
	s.logger.Debug("records stored in sqlite", "count", len(records), "total", s.count)
	return nil
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "path", s.path, "total_records", s.count)
	return s.db.Close()
}

func nullInt(set bool, v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: set}
}

func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullClassification(c *catalog.Classification) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}
