package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned when a call is rejected without being attempted
// because the breaker guarding that dependency is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// CircuitBreakerConfig tunes when a breaker trips and how it recovers.
type CircuitBreakerConfig struct {
	Name                  string
	MaxRequests           uint32        // trial requests allowed while half-open
	Interval              time.Duration // closed-state window after which counts reset
	Timeout               time.Duration // open-state wait before probing again
	FailureThreshold      uint32        // consecutive failures that trip the breaker
	FailureRatioThreshold float64
	MinRequestsToTrip     uint32 // minimum requests in the window before the ratio applies
}

// DefaultCircuitBreakerConfig returns the settings used for the service's
// downstream dependencies unless a caller overrides them.
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                  name,
		MaxRequests:           DefaultMaxRequests,
		Interval:              DefaultInterval,
		Timeout:               DefaultTimeout,
		FailureThreshold:      DefaultFailureThreshold,
		FailureRatioThreshold: DefaultFailureRatioThreshold,
		MinRequestsToTrip:     DefaultMinRequestsToTrip,
	}
}

// CircuitBreaker guards calls to a downstream dependency (the order sheet,
// MongoDB, Kafka) so an unhealthy dependency fails fast instead of holding
// every request until its timeout.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *slog.Logger
}

// NewCircuitBreaker creates a breaker that trips on a run of consecutive
// failures or, once enough calls have been seen, on the overall failure ratio.
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= config.FailureThreshold {
				return true
			}
			if counts.Requests >= config.MinRequestsToTrip {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return ratio >= config.FailureRatioThreshold
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		name:   config.Name,
		logger: logger,
	}
}

// Execute runs fn through the breaker. Rejections while the breaker is open
// or saturated with half-open trial requests wrap ErrCircuitOpen.
func (c *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.cb.Execute(fn)
	switch err {
	case gobreaker.ErrOpenState, gobreaker.ErrTooManyRequests:
		c.logger.Warn("Call rejected by circuit breaker", "name", c.name)
		return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, c.name)
	}
	return result, err
}

// State reports the breaker's current state.
func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

// RetryConfig tunes the retry helper for read-side calls that are safe to
// repeat. Writes in this service are never auto-retried.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors func(error) bool
}

// DefaultRetryConfig retries nothing until the caller marks errors retryable.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   DefaultRetryMaxAttempts,
		InitialDelay:  DefaultRetryInitialDelay,
		MaxDelay:      DefaultRetryMaxDelay,
		BackoffFactor: DefaultRetryBackoffFactor,
		RetryableErrors: func(err error) bool {
			return false
		},
	}
}

// RetryWithResult runs fn with exponential backoff until it succeeds, the
// error is not retryable, the context is done, or attempts run out.
func RetryWithResult[T any](ctx context.Context, config *RetryConfig, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if config.RetryableErrors != nil && !config.RetryableErrors(err) {
			return zero, err
		}

		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return zero, fmt.Errorf("max retries (%d) exceeded: %w", config.MaxAttempts, lastErr)
}
