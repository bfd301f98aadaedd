package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/ReelGoat/internal/catalog"
	"github.com/IshaanNene/ReelGoat/internal/types"
)

// --- JSON Storage ---

// JSONStorage buffers records and writes them as one JSON array on Close.
type JSONStorage struct {
	path    string
	runID   string
	records []Record
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewJSONStorage creates a new JSON file storage.
func NewJSONStorage(outputPath, runID string, logger *slog.Logger) (*JSONStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "json", Err: fmt.Errorf("create output dir: %w", err)}
	}

	return &JSONStorage{
		path:    outputPath,
		runID:   runID,
		records: make([]Record, 0),
		logger:  logger.With("component", "json_storage"),
	}, nil
}

func (s *JSONStorage) Name() string { return "json" }

func (s *JSONStorage) Store(_ context.Context, records []*catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, m := range records {
		s.records = append(s.records, envelope(s.runID, now, m))
	}
	s.logger.Debug("records buffered", "count", len(records), "total", len(s.records))
	return nil
}

func (s *JSONStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("create output file: %w", err)}
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.records); err != nil {
		return &types.StorageError{Backend: "json", Err: fmt.Errorf("encode JSON: %w", err)}
	}

	s.logger.Info("JSON written", "path", s.path, "records", len(s.records))
	return nil
}

// --- JSONL Storage ---

// JSONLStorage writes one JSON object per line as records arrive.
type JSONLStorage struct {
	path   string
	runID  string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

// NewJSONLStorage creates a new JSONL file storage.
func NewJSONLStorage(outputPath, runID string, logger *slog.Logger) (*JSONLStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("create output dir: %w", err)}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("create output file: %w", err)}
	}

	return &JSONLStorage{
		path:   outputPath,
		runID:  runID,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_storage"),
	}, nil
}

func (s *JSONLStorage) Name() string { return "jsonl" }

func (s *JSONLStorage) Store(_ context.Context, records []*catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, m := range records {
		if err := s.enc.Encode(envelope(s.runID, now, m)); err != nil {
			return &types.StorageError{Backend: "jsonl", Err: fmt.Errorf("encode JSONL: %w", err)}
		}
		s.count++
	}
	return nil
}

func (s *JSONLStorage) Close() error {
	s.logger.Info("JSONL written", "path", s.path, "records", s.count)
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// --- CSV Storage ---

// csvColumns is the fixed CSV layout. Multi-valued fields are joined with
// "|".
var csvColumns = []string{
	"id", "title", "year", "type", "rating", "user_rating", "votes",
	"runtime_minutes", "classification", "genres", "directors", "episode_name",
	"synopsis", "poster_url", "run_id",
}

// CSVStorage writes records as CSV rows.
type CSVStorage struct {
	path          string
	runID         string
	file          *os.File
	writer        *csv.Writer
	headerWritten bool
	mu            sync.Mutex
	count         int
	logger        *slog.Logger
}

// NewCSVStorage creates a new CSV file storage.
func NewCSVStorage(outputPath, runID string, logger *slog.Logger) (*CSVStorage, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output dir: %w", err)}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output file: %w", err)}
	}

	return &CSVStorage{
		path:   outputPath,
		runID:  runID,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(_ context.Context, records []*catalog.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.headerWritten {
		if err := s.writer.Write(csvColumns); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV header: %w", err)}
		}
		s.headerWritten = true
	}

	for _, m := range records {
		if err := s.writer.Write(csvRow(m, s.runID)); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write CSV row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	return s.writer.Error()
}

func (s *CSVStorage) Close() error {
	s.logger.Info("CSV written", "path", s.path, "records", s.count)
	if s.writer != nil {
		s.writer.Flush()
	}
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

func csvRow(m *catalog.Movie, runID string) []string {
	var classification string
	if m.Classification != nil {
		classification = m.Classification.String()
	}
	directors := make([]string, 0, len(m.Directors))
	for _, d := range m.Directors {
		directors = append(directors, d.Name)
	}
	return []string{
		m.ID,
		m.Title,
		optInt(m.Year != nil, m.YearValue()),
		m.Type.String(),
		optFloat(m.Rating),
		optFloat(m.UserRating),
		optIntPtr(m.Votes),
		optInt(m.Runtime != nil, m.RuntimeMinutes()),
		classification,
		strings.Join(m.Genres, "|"),
		strings.Join(directors, "|"),
		m.EpisodeName,
		m.Synopsis,
		m.PosterURL,
		runID,
	}
}

func optInt(set bool, v int) string {
	if !set {
		return ""
	}
	return strconv.Itoa(v)
}

func optIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// NewFileStorage creates the file-based storage for storageType inside
// outputDir.
func NewFileStorage(storageType, outputDir, runID string, logger *slog.Logger) (Storage, error) {
	switch storageType {
	case "json":
		return NewJSONStorage(filepath.Join(outputDir, "results.json"), runID, logger)
	case "jsonl":
		return NewJSONLStorage(filepath.Join(outputDir, "results.jsonl"), runID, logger)
	case "csv":
		return NewCSVStorage(filepath.Join(outputDir, "results.csv"), runID, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}
