package scholar

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// HeaderRetryAfter is the retry-after header (seconds or HTTP date).
	HeaderRetryAfter = "Retry-After"

	// DefaultBackoff applies when a rate limited response has no usable
	// Retry-After header.
	DefaultBackoff = time.Minute
)

// RateLimiter paces requests proactively and backs off reactively after
// the service signals rate limiting.
type RateLimiter struct {
	bucket *rate.Limiter
	now    func() time.Time

	mu           sync.Mutex
	blockedUntil time.Time
}

// NewRateLimiter creates a limiter allowing one request per interval.
// A non-positive interval disables proactive pacing.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(limit, 1),
		now:    time.Now,
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	blockedUntil := r.blockedUntil
	r.mu.Unlock()

	if wait := blockedUntil.Sub(r.now()); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.bucket.Wait(ctx)
}

// Backoff blocks requests until the deadline derived from resp.
// Returns the deadline.
func (r *RateLimiter) Backoff(resp *http.Response) time.Time {
	until := r.now().Add(retryAfter(resp, r.now()))

	r.mu.Lock()
	defer r.mu.Unlock()
	if until.After(r.blockedUntil) {
		r.blockedUntil = until
	}
	return r.blockedUntil
}

// BlockedUntil returns the current backoff deadline, zero if none.
func (r *RateLimiter) BlockedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blockedUntil
}

// retryAfter parses the Retry-After header as seconds or an HTTP date.
func retryAfter(resp *http.Response, now time.Time) time.Duration {
	if resp == nil {
		return DefaultBackoff
	}
	value := resp.Header.Get(HeaderRetryAfter)
	if value == "" {
		return DefaultBackoff
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return DefaultBackoff
}
