// Package retry re-runs transient failures with exponential backoff.
package retry

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/IshaanNene/ReelGoat/internal/types"
)

// Policy bounds a retry loop. The zero value makes a single attempt.
type Policy struct {
	// MaxRetries is the number of extra attempts after the first.
	MaxRetries int
	// Backoff is the wait before the first retry; it doubles after each.
	Backoff time.Duration
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries <= 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// Do executes fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done. The last error is returned.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	var lastErr error
	backoff := p.Backoff
	attempts := p.Attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) || attempt == attempts {
			return lastErr
		}

		wait := backoff
		var fe *types.FetchError
		if errors.As(lastErr, &fe) && fe.RetryAfter > wait {
			wait = fe.RetryAfter
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(wait):
		}
		backoff *= 2
	}

	return lastErr
}

// IsRetryable reports whether err is a transient failure: a fetch error
// marked retryable, or a network timeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fe *types.FetchError
	if errors.As(err, &fe) {
		return fe.Retryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return false
}
