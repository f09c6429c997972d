// Package batch fans a collection of logical API requests out to a bounded
// pool of concurrent executors and collects results in input order. One
// item's terminal failure never cancels or delays its siblings.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/osintworks/domaintools-client/pkg/client"
)

// Prometheus metrics for batch runs.
var (
	dtBatchItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dt_batch_items_total",
		Help: "Total batch items by terminal status",
	}, []string{"status"})

	dtBatchInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dt_batch_inflight",
		Help: "Batch items currently in flight",
	})

	dtBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dt_batch_duration_seconds",
		Help:    "Wall-clock duration of batch runs",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 300},
	})
)

// DefaultConcurrency is the bound on simultaneously in-flight requests
// when the caller does not configure one.
const DefaultConcurrency = 10

// Status is the caller-visible terminal state of one batch item.
type Status string

const (
	// StatusSuccess means the item completed with a payload.
	StatusSuccess Status = "success"

	// StatusFailed means the item exhausted its attempts or hit a
	// non-retryable error.
	StatusFailed Status = "failed"

	// StatusCancelled means the batch was cancelled before the item finished.
	StatusCancelled Status = "cancelled"
)

// Item is the outcome for one request. Exactly one of Payload/Err is set
// for success/failed; cancelled items carry an Err of kind cancelled.
type Item struct {
	ID       string
	Status   Status
	Payload  map[string]any
	Err      *client.APIError
	Attempts int
}

// Executor runs one logical request to a terminal outcome. The returned
// error is non-nil only for fatal configuration mistakes.
type Executor interface {
	Execute(ctx context.Context, req client.Request) (client.Outcome, error)
}

// Coordinator distributes requests across a bounded worker pool.
type Coordinator struct {
	exec        Executor
	concurrency int
}

// NewCoordinator creates a batch coordinator over the given executor.
func NewCoordinator(exec Executor, concurrency int) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{
		exec:        exec,
		concurrency: concurrency,
	}
}

type job struct {
	index int
	req   client.Request
}

// Run executes all requests and returns one Item per request, same length
// and order as the input regardless of completion order. Cancelling ctx
// stops admitting new work; finished items keep their real outcome and
// unfinished ones come back with StatusCancelled. A fatal configuration
// error aborts the whole run and is returned as the sole result.
func (c *Coordinator) Run(ctx context.Context, requests []client.Request) ([]Item, error) {
	if len(requests) == 0 {
		return []Item{}, nil
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := log.With().Str("component", "batch").Str("run_id", runID).Logger()

	logger.Info().
		Int("items", len(requests)).
		Int("concurrency", c.concurrency).
		Msg("Starting batch run")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make([]Item, len(requests))
	jobs := make(chan job)

	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)

	setFatal := func(err error) {
		fatalMu.Lock()
		if fatalErr == nil {
			fatalErr = err
			cancel()
		}
		fatalMu.Unlock()
	}

	// Feeder owns the jobs channel. It never stops early: every index must
	// reach a worker so every output slot gets written, even if only with
	// a cancellation marker.
	go func() {
		defer close(jobs)
		for i, req := range requests {
			jobs <- job{index: i, req: req}
		}
	}()

	workers := c.concurrency
	if workers > len(requests) {
		workers = len(requests)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				// Admission gate: once the run is cancelled no new
				// request starts, but in-flight siblings finish.
				if runCtx.Err() != nil {
					items[j.index] = cancelledItem(j.req)
					continue
				}

				dtBatchInflight.Inc()
				outcome, err := c.exec.Execute(runCtx, j.req)
				dtBatchInflight.Dec()

				if err != nil {
					logger.Error().Err(err).Str("id", j.req.ID).Msg("Fatal error - aborting batch")
					setFatal(err)
					items[j.index] = cancelledItem(j.req)
					continue
				}

				items[j.index] = fromOutcome(j.req, outcome)
			}
		}()
	}

	wg.Wait()
	dtBatchDuration.Observe(time.Since(start).Seconds())

	fatalMu.Lock()
	err := fatalErr
	fatalMu.Unlock()
	if err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("Batch aborted")
		return nil, err
	}

	succeeded, failed, cancelled := 0, 0, 0
	for _, item := range items {
		switch item.Status {
		case StatusSuccess:
			succeeded++
		case StatusFailed:
			failed++
		case StatusCancelled:
			cancelled++
		}
		dtBatchItemsTotal.WithLabelValues(string(item.Status)).Inc()
	}

	logger.Info().
		Int("succeeded", succeeded).
		Int("failed", failed).
		Int("cancelled", cancelled).
		Dur("duration", time.Since(start)).
		Msg("Batch run complete")

	return items, nil
}

// Result pairs the items of an asynchronous run with its fatal error, if any.
type Result struct {
	Items []Item
	Err   error
}

// Go runs the batch asynchronously and delivers the result on the returned
// channel. It shares all decision logic with Run; the channel form exists
// for call sites that multiplex batches with other work.
func (c *Coordinator) Go(ctx context.Context, requests []client.Request) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		items, err := c.Run(ctx, requests)
		out <- Result{Items: items, Err: err}
	}()
	return out
}

// DomainProfiles is a convenience wrapper running profile lookups for a
// list of domains.
func DomainProfiles(ctx context.Context, exec Executor, domains []string, concurrency int) ([]Item, error) {
	requests := make([]client.Request, len(domains))
	for i, domain := range domains {
		requests[i] = client.DomainProfileRequest(domain)
	}
	return NewCoordinator(exec, concurrency).Run(ctx, requests)
}

// fromOutcome folds an executor outcome into a batch item.
func fromOutcome(req client.Request, outcome client.Outcome) Item {
	item := Item{
		ID:       req.ID,
		Attempts: outcome.Attempts,
	}

	switch {
	case outcome.Err == nil:
		item.Status = StatusSuccess
		item.Payload = outcome.Payload
	case outcome.Err.Kind == client.KindCancelled:
		item.Status = StatusCancelled
		item.Err = outcome.Err
	default:
		item.Status = StatusFailed
		item.Err = outcome.Err
	}

	return item
}

// cancelledItem marks a request that never got to run.
func cancelledItem(req client.Request) Item {
	return Item{
		ID:     req.ID,
		Status: StatusCancelled,
		Err: &client.APIError{
			Kind:    client.KindCancelled,
			Message: "batch cancelled before completion",
		},
	}
}
