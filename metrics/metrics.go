package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsurvey_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qsurvey_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	QueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsurvey_store_queries_total",
			Help: "Total number of store operations",
		},
		[]string{"op", "status"},
	)
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qsurvey_store_query_duration_seconds",
			Help:    "Store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	PoolReconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qsurvey_db_reconnects_total",
			Help: "Number of times the database handle was discarded and reopened",
		},
	)
	SourceFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qsurvey_source_fetch_failures_total",
			Help: "Source view reads that failed and produced a degraded configuration",
		},
		[]string{"view"},
	)
)

// ObserveQuery records the outcome of a store operation started at start.
func ObserveQuery(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	QueryTotal.WithLabelValues(op, status).Inc()
	QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
