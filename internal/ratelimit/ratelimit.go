// Package ratelimit enforces per-provider vendor rate limits with a token
// bucket, so an exhausted bucket surfaces as a transient failure rather than
// blocking the caller indefinitely (spec §5, "Rate-limit discipline").
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/signalforge/equityedge/internal/errkind"
)

// Registry owns one token bucket per provider key.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	// ratePerSec and burst are applied to limiters created on demand;
	// callers with a non-default rate should use NewLimiter directly.
	ratePerSec float64
	burst      int
}

// NewRegistry builds a Registry whose limiters allow ratePerSec requests per
// second on average, with bursts up to burst.
func NewRegistry(ratePerSec float64, burst int) *Registry {
	return &Registry{
		limiters:   make(map[string]*rate.Limiter),
		ratePerSec: ratePerSec,
		burst:      burst,
	}
}

func (r *Registry) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(r.ratePerSec), r.burst)
	r.limiters[key] = l
	return l
}

// Allow reports whether a call against key may proceed right now, without
// waiting. A denial is surfaced as a Transient error so it engages the same
// retry/breaker path as a network failure, per spec §5.
func (r *Registry) Allow(op, key string) error {
	if !r.limiterFor(key).Allow() {
		return errkind.Transientf(op, rateLimitedErr{key: key})
	}
	return nil
}

// Wait blocks until a token for key is available or ctx is done.
func (r *Registry) Wait(ctx context.Context, op, key string) error {
	if err := r.limiterFor(key).Wait(ctx); err != nil {
		return errkind.Transientf(op, err)
	}
	return nil
}

type rateLimitedErr struct{ key string }

func (e rateLimitedErr) Error() string { return "rate limit exceeded for " + e.key }
