// Package retry wraps unreliable external operations with exponential backoff.
// Transient failures (rate limits, overload) are retried; everything else
// propagates immediately.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonesrussell/gocampaign/internal/domain"
)

var (
	// ErrMaxAttemptsExceeded is returned when max retry attempts are exceeded.
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

// Defaults. The 2s/4s/8s backoff sequence is tuned for provider rate limits,
// not for network blips.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 2 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// IsRetryable determines if an error should be retried.
	// Defaults to domain.IsTransient.
	IsRetryable func(error) bool
}

// DefaultConfig returns the default retry configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		IsRetryable:  domain.IsTransient,
	}
}

// Do executes fn with retry and exponential backoff. The operation must not
// mutate its arguments across attempts. Do carries no state between
// invocations and is safe for concurrent use on independent operations.
//
// Callers invoking non-idempotent effects (sending mail, publishing a post)
// must guard against double effects themselves: a retry may follow an
// upstream success whose acknowledgment was lost.
func Do(ctx context.Context, config Config, fn func() error) error {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = DefaultInitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = DefaultMaxDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = DefaultMultiplier
	}
	if config.IsRetryable == nil {
		config.IsRetryable = domain.IsTransient
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if !config.IsRetryable(err) {
			return err
		}

		if attempt < config.MaxAttempts {
			delay := backoffDelay(config, attempt)

			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxAttemptsExceeded, config.MaxAttempts, lastErr)
}

// backoffDelay computes delay = initial * multiplier^(attempt-1), capped at MaxDelay.
func backoffDelay(config Config, attempt int) time.Duration {
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(config.Multiplier, float64(attempt-1)))
	if delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// DoWithDefaults executes fn with the default retry configuration.
func DoWithDefaults(ctx context.Context, fn func() error) error {
	return Do(ctx, DefaultConfig(), fn)
}
