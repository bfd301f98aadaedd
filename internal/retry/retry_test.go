package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/IshaanNene/ReelGoat/internal/types"
)

func transient() error {
	return &types.FetchError{URL: "https://example.com", StatusCode: 503, Err: errors.New("unavailable"), Retryable: true}
}

func TestZeroPolicyFailsFast(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return transient()
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetriesTransientErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxRetries: 3, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		if calls < 3 {
			return transient()
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestStopsOnPermanentError(t *testing.T) {
	calls := 0
	notFound := &types.FetchError{URL: "https://example.com", StatusCode: 404, Err: errors.New("not found")}
	err := Do(context.Background(), Policy{MaxRetries: 5, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		return notFound
	})
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 1, calls)
}

func TestExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxRetries: 2, Backoff: time.Millisecond}, func(context.Context) error {
		calls++
		return transient()
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxRetries: 5, Backoff: time.Hour}, func(context.Context) error {
		calls++
		cancel()
		return transient()
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(errors.New("boom")))
	assert.True(t, IsRetryable(transient()))
}
