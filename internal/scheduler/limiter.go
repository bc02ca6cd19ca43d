// Package scheduler provides the pacing and periodic-job machinery for the
// pipeline: a token-bucket limiter for sequential external calls and a cron
// runner for the inbox scan and rank re-tracking.
package scheduler

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/gocampaign/internal/logger"
)

const defaultCallsPerSecond = 1.0

// Limiter paces sequential external calls with a token bucket. Stages wait on
// it between items instead of sleeping a fixed interval, so the pacing is an
// explicit policy rather than a side effect of call latency.
type Limiter struct {
	limiter *rate.Limiter
	log     logger.Logger
}

// NewLimiter creates a limiter allowing callsPerSecond sustained calls with
// the given burst.
func NewLimiter(callsPerSecond float64, burst int, log logger.Logger) *Limiter {
	if callsPerSecond <= 0 {
		callsPerSecond = defaultCallsPerSecond
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(callsPerSecond), burst),
		log:     log,
	}
}

// Wait blocks until the next call is allowed or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		l.log.Warn("rate limiter wait aborted", logger.Error(err))
		return err
	}

	return nil
}

// Allow reports whether a call may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
