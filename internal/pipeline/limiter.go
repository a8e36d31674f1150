package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter caps the rate of outgoing recognition calls process-wide. It is
// constructed once and shared by reference across all workers; it is the
// only serialization point between the worker pools and the recognition
// service.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter releases at most permits per window, spaced evenly.
func NewLimiter(permits int, window time.Duration) *Limiter {
	if permits < 1 {
		permits = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(permits)), 1),
	}
}

// Acquire blocks until a permit is available. It only returns an error when
// the context is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
