package client

import (
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for retry operations.
var (
	dtRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dt_retries_total",
		Help: "Total number of retry attempts by error kind",
	}, []string{"error_kind"})

	dtRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dt_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_kind"})

	dtRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dt_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error kind",
	}, []string{"error_kind"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxRetries is the maximum number of attempts per logical request
	// (including the initial request).
	MaxRetries int

	// BaseDelay is the backoff before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff growth.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Decision is the outcome of consulting the retry policy after a failed attempt.
type Decision struct {
	// Retry indicates another attempt should be made after Delay.
	Retry bool

	// Delay is the backoff to apply before the next attempt. Zero when giving up.
	Delay time.Duration
}

// Decide is the retry policy: a pure function of the error kind and the
// 1-based attempt number that just failed. Retryable kinds get exponential
// backoff BaseDelay*2^(attempt-1) capped at MaxDelay, with full jitter
// (uniform in [0, capped delay]) to avoid synchronized retries across
// concurrent requests.
func (c RetryConfig) Decide(kind ErrorKind, attempt int) Decision {
	if !Retryable(kind) || attempt >= c.MaxRetries {
		return Decision{}
	}

	delay := c.BaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			delay = c.MaxDelay
			break
		}
	}
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	// Full jitter.
	if delay > 0 {
		delay = time.Duration(rand.Int63n(int64(delay) + 1))
	}

	return Decision{Retry: true, Delay: delay}
}
