package ratelimiter

import (
	"context"
	"time"
)

// RateLimiter is the interface for rate limiting. Allow returns true if a
// request may proceed now, false otherwise.
type RateLimiter interface {
	Allow() bool
}

// Wait blocks until the limiter admits a request or the context is done.
// It polls rather than reserving, which is sufficient for the low request
// volumes the vocabulary services see.
func Wait(ctx context.Context, rl RateLimiter) error {
	if rl == nil {
		return nil
	}
	for {
		if rl.Allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
}
