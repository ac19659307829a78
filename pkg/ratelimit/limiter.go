package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for request pacing
type Limiter interface {
	// Wait blocks until the rate limit allows another request
	Wait(ctx context.Context) error
	// Interval returns the configured spacing between requests
	Interval() time.Duration
}

// IntervalLimiter enforces a fixed minimum spacing between requests.
//
// The crawl limit is a sliding-window request budget, so every request
// consumes budget whether it succeeds or fails. Pacing applies in steady
// state, not just after failures.
type IntervalLimiter struct {
	limiter  *rate.Limiter
	interval time.Duration
}

// NewIntervalLimiter creates a pacer that admits one request per interval.
// Burst is 1: the first request goes through immediately, every subsequent
// one waits out the full spacing.
func NewIntervalLimiter(interval time.Duration) *IntervalLimiter {
	return &IntervalLimiter{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
	}
}

// Wait blocks until the next request is allowed or the context is cancelled
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Interval returns the configured spacing between requests
func (l *IntervalLimiter) Interval() time.Duration {
	return l.interval
}
