// Package ratelimit implements the token bucket that gates all outgoing
// API requests. One bucket is shared by every concurrent request of a
// client instance; admission order among blocked waiters is not FIFO.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit gating.
var (
	dtRateLimitTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dt_rate_limit_tokens",
		Help: "Tokens currently available in the request rate limit bucket",
	})

	dtRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dt_rate_limit_wait_seconds",
		Help:    "Time spent waiting for rate limit admission",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// ErrCostExceedsBurst is returned when an acquisition can never be
// satisfied because it asks for more tokens than the bucket can hold.
var ErrCostExceedsBurst = errors.New("cost exceeds burst capacity")

// Config holds the token bucket parameters.
type Config struct {
	// RefillRate is the sustained admission rate in tokens per second.
	RefillRate float64

	// Burst is the bucket capacity: the number of requests that may be
	// admitted back-to-back after an idle period.
	Burst int
}

// DefaultConfig returns a safe default bucket configuration (10 req/s, burst 10).
func DefaultConfig() Config {
	return Config{
		RefillRate: 10,
		Burst:      10,
	}
}

// Bucket is a token bucket with lazy refill. Tokens are recomputed from the
// elapsed wall-clock time at each acquisition; no background goroutine runs.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time

	refillRate float64
	burst      int

	// now is swappable so tests can advance time without sleeping.
	now func() time.Time

	logger zerolog.Logger
}

// State is a point-in-time snapshot of the bucket, exposed for
// diagnostics only. Mutation happens exclusively through Acquire.
type State struct {
	Tokens     float64
	RefillRate float64
	Burst      int
	LastRefill time.Time
}

// NewBucket creates a token bucket that starts full.
func NewBucket(cfg Config, logger zerolog.Logger) (*Bucket, error) {
	if cfg.Burst <= 0 {
		return nil, fmt.Errorf("burst must be positive (got %d)", cfg.Burst)
	}
	if cfg.RefillRate < 0 {
		return nil, fmt.Errorf("refill rate must not be negative (got %f)", cfg.RefillRate)
	}

	return &Bucket{
		tokens:     float64(cfg.Burst),
		lastRefill: time.Now(),
		refillRate: cfg.RefillRate,
		burst:      cfg.Burst,
		now:        time.Now,
		logger:     logger,
	}, nil
}

// Acquire blocks until cost tokens are available, then deducts them.
// It never fails for a satisfiable request; it only delays. A cost larger
// than the bucket capacity can never be satisfied and returns an error
// immediately instead of blocking forever. Cancellation of ctx aborts
// the wait with ctx.Err().
func (b *Bucket) Acquire(ctx context.Context, cost int) error {
	if cost <= 0 {
		return fmt.Errorf("cost must be positive (got %d)", cost)
	}
	if cost > b.burst {
		return fmt.Errorf("%w: cost %d, burst %d", ErrCostExceedsBurst, cost, b.burst)
	}

	start := time.Now()
	defer func() {
		dtRateLimitWaitSeconds.Observe(time.Since(start).Seconds())
	}()

	for {
		b.mu.Lock()
		b.refillLocked()

		if b.tokens >= float64(cost) {
			b.tokens -= float64(cost)
			dtRateLimitTokens.Set(b.tokens)
			b.mu.Unlock()
			return nil
		}

		wait := b.waitForLocked(cost)
		b.mu.Unlock()

		// The lock is never held while suspended; siblings keep draining
		// and refilling the bucket underneath us, so re-check after waking.
		if wait <= 0 {
			// Rate is zero and the bucket cannot recover: only
			// cancellation can release this waiter.
			<-ctx.Done()
			return ctx.Err()
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Snapshot returns the current bucket state after applying lazy refill.
func (b *Bucket) Snapshot() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()

	return State{
		Tokens:     b.tokens,
		RefillRate: b.refillRate,
		Burst:      b.burst,
		LastRefill: b.lastRefill,
	}
}

// SetNow overrides the bucket clock. Tests only.
func (b *Bucket) SetNow(now func() time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	b.lastRefill = now()
}

// refillLocked credits tokens for the wall-clock time elapsed since the
// last refill. Caller holds b.mu.
func (b *Bucket) refillLocked() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	b.tokens += elapsed.Seconds() * b.refillRate
	if b.tokens > float64(b.burst) {
		b.tokens = float64(b.burst)
	}
	b.lastRefill = now
}

// waitForLocked estimates how long until cost tokens accumulate.
// Returns 0 when the deficit can never be recovered (zero refill rate).
// Caller holds b.mu.
func (b *Bucket) waitForLocked(cost int) time.Duration {
	if b.refillRate <= 0 {
		return 0
	}

	deficit := float64(cost) - b.tokens
	wait := time.Duration(deficit / b.refillRate * float64(time.Second))
	if wait < time.Millisecond {
		wait = time.Millisecond
	}
	return wait
}
