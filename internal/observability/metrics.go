package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes recorded by the query orchestrator.
const (
	FetchApplied = "applied"
	FetchFailed  = "failed"
	FetchStale   = "stale"
)

// Metrics exposes the service's prometheus collectors.
type Metrics struct {
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorTotal      *prometheus.CounterVec
	fetchTotal      *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
	exportedRows    prometheus.Counter
	activeViews     prometheus.Gauge
}

var metricsSingleton = sync.OnceValue(func() *Metrics {
	return &Metrics{
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "person_admin",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served.",
		}, []string{"path", "method", "status"}),
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "person_admin",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errorTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "person_admin",
			Name:      "http_errors_total",
			Help:      "Total number of HTTP requests answered with a domain error.",
		}, []string{"path", "method", "code"}),
		fetchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "person_admin",
			Name:      "list_fetch_total",
			Help:      "List view fetches by outcome.",
		}, []string{"result"}),
		cacheTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "person_admin",
			Name:      "query_cache_total",
			Help:      "People query cache lookups by result.",
		}, []string{"result"}),
		exportedRows: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "person_admin",
			Name:      "export_requested_rows_total",
			Help:      "Rows submitted to the export action.",
		}),
		activeViews: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "person_admin",
			Name:      "active_views",
			Help:      "List view sessions currently held in memory.",
		}),
	}
})

// NewMetrics returns the process-wide collectors.
func NewMetrics() *Metrics {
	return metricsSingleton()
}

// RecordRequest counts a served request and its latency.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError counts a request answered with a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errorTotal.WithLabelValues(path, method, code).Inc()
}

// RecordFetch counts a list view fetch by outcome.
func (m *Metrics) RecordFetch(result string) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(result).Inc()
}

// RecordCacheLookup counts a query cache hit or miss.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// RecordExport counts rows handed to the export action.
func (m *Metrics) RecordExport(rows int) {
	if m == nil {
		return
	}
	m.exportedRows.Add(float64(rows))
}

// SetActiveViews reports the number of live view sessions.
func (m *Metrics) SetActiveViews(n int) {
	if m == nil {
		return
	}
	m.activeViews.Set(float64(n))
}
