package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/jobdigest/internal/model"
)

// HostRateLimiter enforces a minimum delay between requests to the same host.
type HostRateLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time     // key: host
	minDelay  time.Duration            // default delay between requests to the same host
	overrides map[string]time.Duration // per-host delay, replaces minDelay
}

// NewHostRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same host. overrides may be nil.
func NewHostRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *HostRateLimiter {
	return &HostRateLimiter{
		lastCall:  make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

// DelayFor returns the minimum spacing applied to host.
func (r *HostRateLimiter) DelayFor(host string) time.Duration {
	if d, ok := r.overrides[host]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until enough time has passed since the last request to host.
// Returns an error if the context is cancelled while waiting.
func (r *HostRateLimiter) Wait(ctx context.Context, host string) error {
	delay := r.DelayFor(host)

	r.mu.Lock()
	last, ok := r.lastCall[host]
	now := time.Now()

	if !ok || now.Sub(last) >= delay {
		r.lastCall[host] = now
		r.mu.Unlock()
		return nil
	}

	// Reserve the next slot before releasing the lock so concurrent
	// callers queue behind each other instead of firing together.
	next := last.Add(delay)
	r.lastCall[host] = next
	r.mu.Unlock()

	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", host, ctx.Err())
	case <-timer.C:
	}
	return nil
}

// Ensure RateLimitedAdapter implements model.SourceAdapter.
var _ model.SourceAdapter = (*RateLimitedAdapter)(nil)

// RateLimitedAdapter is a decorator that enforces host-level rate limiting
// before delegating to the wrapped SourceAdapter.
type RateLimitedAdapter struct {
	inner   model.SourceAdapter
	limiter *HostRateLimiter
	host    string
}

// NewRateLimitedAdapter wraps a SourceAdapter with host-level rate limiting.
// All adapters targeting the same host should share the same limiter instance.
func NewRateLimitedAdapter(inner model.SourceAdapter, limiter *HostRateLimiter, host string) *RateLimitedAdapter {
	return &RateLimitedAdapter{
		inner:   inner,
		limiter: limiter,
		host:    host,
	}
}

// Name returns the wrapped adapter's name.
func (f *RateLimitedAdapter) Name() string { return f.inner.Name() }

// Fetch waits for the rate limiter to allow a request, then delegates to
// the wrapped adapter.
func (f *RateLimitedAdapter) Fetch(ctx context.Context) ([]model.NormalizedJob, error) {
	if err := f.limiter.Wait(ctx, f.host); err != nil {
		return nil, err
	}
	return f.inner.Fetch(ctx)
}
