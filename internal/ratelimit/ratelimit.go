// Package ratelimit throttles calls to upstream gas sources.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every caller of one upstream.
type Limiter struct {
	limiter *rate.Limiter
}

// New allows requestsPerSecond calls with the given burst. A non-positive
// rate disables limiting.
func New(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Wait blocks until a token is available or the context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow reports whether a call may proceed right now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
