package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrEmptyResponse  = errors.New("empty response body")
	ErrInvalidURL     = errors.New("invalid URL")
	ErrEmptyWatchlist = errors.New("watchlist is empty or not public")
	ErrNoRatings      = errors.New("user has no ratings or their ratings aren't public")
	ErrNoTitle        = errors.New("page has no title name")
	ErrMaxRetries     = errors.New("max retries exceeded")
	ErrNoFetcher      = errors.New("no fetcher available for request")
	ErrProxyExhausted = errors.New("all proxies exhausted")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL      string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.URL, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConfigError reports a configuration value that cannot be used, such as an
// unknown view name.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DiscoveryError is returned when the total result count for a target cannot
// be determined.
type DiscoveryError struct {
	Target string
	URL    string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for %s (%s): %v", e.Target, e.URL, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// UnsupportedViewError is returned when a view has no extraction rules.
type UnsupportedViewError struct {
	View string
}

func (e *UnsupportedViewError) Error() string {
	return fmt.Sprintf("view %q is not supported for extraction", e.View)
}

// StageError attributes a failure inside a paginated collection to the stage
// and page offset it happened at.
type StageError struct {
	Stage  string
	Offset int
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed at offset %d: %v", e.Stage, e.Offset, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors that occur in the post-processing pipeline.
type PipelineError struct {
	Stage    string
	RecordID string
	Err      error
}

func (e *PipelineError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("pipeline error at stage %q (record %s): %v", e.Stage, e.RecordID, e.Err)
	}
	return fmt.Sprintf("pipeline error at stage %q: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
