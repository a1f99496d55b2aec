// Package ratelimit implements a token bucket rate limiter keyed by
// endpoint class, used to respect Polygon.io plan budgets.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/marketdesk/mcp-polygon/internal/telemetry"
)

// Limiter manages per-endpoint rate limits.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// Config holds rate limiter configuration. A non-positive RPS disables
// limiting entirely.
type Config struct {
	RequestsPerSec float64
	Burst          int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.RequestsPerSec)
	if cfg.RequestsPerSec <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the given endpoint,
// respecting the context.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	l.mu.Lock()
	limiter, exists := l.limiters[endpoint]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[endpoint] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		telemetry.ObserveRateLimitDelay(endpoint, delay)
	}
	return nil
}
