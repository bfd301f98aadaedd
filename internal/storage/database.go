package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// MongoStorage upserts records into a MongoDB collection keyed by title ID,
// so rerunning a scrape refreshes documents instead of duplicating them.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	runID      string
	mu         sync.Mutex
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to uri and verifies the connection.
func NewMongoStorage(ctx context.Context, uri, database, collection, runID string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		runID:      runID,
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(ctx context.Context, records []*catalog.Movie) error {
	if len(records) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(records))
	for _, m := range records {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": m.ID}).
			SetReplacement(envelope(s.runID, now, m)).
			SetUpsert(true))
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	res, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return &types.StorageError{Backend: "mongodb", Err: fmt.Errorf("bulk upsert: %w", err)}
	}

	s.count += len(records)
	s.logger.Debug("records stored in mongodb",
		"count", len(records),
		"upserted", res.UpsertedCount,
		"modified", res.ModifiedCount,
		"total", s.count,
	)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "total_records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// --- Multi-Storage Fan-Out ---

// MultiStorage writes records to multiple backends.
type MultiStorage struct {
	backends []Storage
	logger   *slog.Logger
}

// NewMultiStorage creates a storage that fans out to multiple backends.
func NewMultiStorage(backends []Storage, logger *slog.Logger) *MultiStorage {
	return &MultiStorage{
		backends: backends,
		logger:   logger.With("component", "multi_storage"),
	}
}

func (s *MultiStorage) Name() string { return "multi" }

// Store writes to every backend and returns the first failure.
func (s *MultiStorage) Store(ctx context.Context, records []*catalog.Movie) error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Store(ctx, records); err != nil {
			s.logger.Error("backend store failed", "backend", backend.Name(), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *MultiStorage) Close() error {
	var firstErr error
	for _, backend := range s.backends {
		if err := backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
