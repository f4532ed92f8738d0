// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"method", "route"},
	)

	ValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_validation_failures_total",
			Help: "Total number of payload validation failures by table and error code",
		},
		[]string{"table", "code"},
	)

	AirtableRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_airtable_requests_total",
			Help: "Total number of requests forwarded to the Airtable API",
		},
		[]string{"operation", "status"},
	)

	AirtableRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_airtable_request_duration_seconds",
			Help: "Duration of Airtable API calls in seconds",
		},
		[]string{"operation"},
	)

	RecordCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_record_cache_hits_total",
			Help: "Total number of record reads served from cache",
		},
		[]string{"table"},
	)

	RecordCacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_record_cache_misses_total",
			Help: "Total number of record reads that missed the cache",
		},
		[]string{"table"},
	)
)
