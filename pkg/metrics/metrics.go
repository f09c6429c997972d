// Package metrics provides the centralized Prometheus metrics registry for
// the DomainTools client. All metrics are defined in their respective
// packages (client, batch, cache, ratelimit) to maintain modularity and
// avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - dt_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//     (plus the synthetic statuses "cache_hit" and "network_error")
//   - dt_request_duration_seconds{endpoint} (Histogram): Logical request duration by endpoint
//   - dt_errors_total{kind} (Counter): Classified failures by error kind
//
// Retry Metrics (pkg/client):
//   - dt_retries_total{error_kind} (Counter): Retry attempts by error kind
//   - dt_retry_backoff_seconds{error_kind} (Histogram): Backoff duration by error kind
//   - dt_retry_exhausted_total{error_kind} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - dt_rate_limit_tokens (Gauge): Tokens currently available in the bucket
//   - dt_rate_limit_wait_seconds (Histogram): Time spent waiting for admission
//
// Batch Metrics (pkg/batch):
//   - dt_batch_items_total{status} (Counter): Items by terminal status (success, failed, cancelled)
//   - dt_batch_inflight (Gauge): Items currently in flight
//   - dt_batch_duration_seconds (Histogram): Wall-clock duration of batch runs
//
// Cache Metrics (pkg/cache):
//   - dt_cache_hits_total (Counter): Cache hits
//   - dt_cache_misses_total (Counter): Cache misses
//   - dt_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   rate(dt_cache_hits_total[5m]) /
//   (rate(dt_cache_hits_total[5m]) + rate(dt_cache_misses_total[5m]))
//
//   # Failure Rate by Kind
//   rate(dt_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(dt_request_duration_seconds_bucket[5m]))
//
//   # Rate Limit Pressure
//   histogram_quantile(0.95, rate(dt_rate_limit_wait_seconds_bucket[5m]))
