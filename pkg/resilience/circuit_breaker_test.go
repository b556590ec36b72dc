package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCircuitBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	config := DefaultCircuitBreakerConfig("test")
	config.FailureThreshold = 3
	cb := NewCircuitBreaker(config, discardLogger())
	ctx := context.Background()

	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		_, err := cb.Execute(ctx, func() (interface{}, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := cb.Execute(ctx, func() (interface{}, error) {
		called = true
		return nil, nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"), discardLogger())

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestRetryWithResultSucceedsAfterTransientFailures(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialDelay = time.Millisecond
	config.RetryableErrors = func(err error) bool { return true }

	attempts := 0
	result, err := RetryWithResult(context.Background(), config, func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithResultStopsOnNonRetryableError(t *testing.T) {
	config := DefaultRetryConfig()
	config.InitialDelay = time.Millisecond

	permanent := errors.New("permanent")
	attempts := 0
	_, err := RetryWithResult(context.Background(), config, func() (string, error) {
		attempts++
		return "", permanent
	})
	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithResultExhaustsAttempts(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxAttempts = 2
	config.InitialDelay = time.Millisecond
	config.RetryableErrors = func(err error) bool { return true }

	attempts := 0
	_, err := RetryWithResult(context.Background(), config, func() (int, error) {
		attempts++
		return 0, errors.New("still down")
	})
	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.Contains(t, err.Error(), "max retries")
}
