// Package metrics documents the Prometheus metrics exported by the client.
// Metrics are defined next to the code that records them (api, ratelimit,
// cache, catalog) and registered via promauto on the default registerer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Gatherer serves the default registerer, which promauto registers every
// package metric on.
var Gatherer = prometheus.DefaultGatherer

// Names lists every metric family the client registers.
var Names = []string{
	"oneapi_requests_total",
	"oneapi_request_duration_seconds",
	"oneapi_errors_total",
	"oneapi_scheduler_waits_total",
	"oneapi_scheduler_wait_seconds",
	"oneapi_retries_total",
	"oneapi_requests_in_window",
	"oneapi_cache_hits_total",
	"oneapi_cache_misses_total",
	"oneapi_cache_entries",
	"oneapi_catalog_operation_duration_seconds",
}

// Handler returns the /metrics handler for Gatherer.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/api):
//   - oneapi_requests_total{endpoint, status} (Counter): requests by route template and HTTP status
//   - oneapi_request_duration_seconds{endpoint} (Histogram): request duration by route template
//   - oneapi_errors_total{class} (Counter): non-200 responses by error class
//
// Scheduler Metrics (pkg/ratelimit):
//   - oneapi_scheduler_waits_total (Counter): times a request waited for window capacity
//   - oneapi_scheduler_wait_seconds (Histogram): length of those waits
//   - oneapi_retries_total{error_class} (Counter): 429 retries
//   - oneapi_requests_in_window (Gauge): requests in the window after the last admission
//
// Cache Metrics (pkg/cache):
//   - oneapi_cache_hits_total{kind} (Counter): hits by kind (movie, movies, quotes, character)
//   - oneapi_cache_misses_total{kind} (Counter): misses by kind
//   - oneapi_cache_entries{kind} (Gauge): cached entries by kind
//
// Catalog Metrics (pkg/catalog):
//   - oneapi_catalog_operation_duration_seconds{operation} (Histogram): facade call duration
//
// Example Prometheus Queries:
//
//   # Character name cache hit rate
//   sum(rate(oneapi_cache_hits_total{kind="character"}[5m])) /
//   (sum(rate(oneapi_cache_hits_total{kind="character"}[5m])) + sum(rate(oneapi_cache_misses_total{kind="character"}[5m])))
//
//   # Time spent waiting for the rate-limit window
//   rate(oneapi_scheduler_wait_seconds_sum[5m])
//
//   # 429 rate
//   rate(oneapi_errors_total{class="too_many_requests"}[5m])
//
//   # P95 request latency
//   histogram_quantile(0.95, rate(oneapi_request_duration_seconds_bucket[5m]))
