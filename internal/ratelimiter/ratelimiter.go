// Package ratelimiter provides token-bucket request rate limiting.
//
// The server uses it to shed load before a request reaches the storage
// layer: tokens refill at a sustained rate, each admitted request
// consumes one, and burst capacity absorbs short spikes.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter wraps golang.org/x/time/rate with the configuration
// conventions used by the server: a zero sustained rate means
// unlimited, and burst defaults to the sustained rate when unset.
//
// Thread Safety: Safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained with
// up to burst requests admitted at once.
//
// Parameters:
//   - requestsPerSecond: Maximum sustained rate; 0 disables limiting
//   - burst: Bucket capacity; 0 falls back to requestsPerSecond
//
// Returns:
//   - *RateLimiter: A configured limiter
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed, consuming a token when
// it does. This is the reject-on-overload path used by the HTTP layer.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled. Used
// where throttling is preferable to rejection.
//
// Returns:
//   - error: The context error if cancelled before a token was available
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the current number of available tokens. Primarily
// useful for monitoring and tests; the value may change immediately
// after the call.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
