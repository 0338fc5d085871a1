package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the PhD talent service.
// Metrics are organized by subsystem: HTTP, data fetches, aggregation, chat
// and import. All counters and histograms are registered via promauto with
// the default Prometheus registry.
//
// A nil *Metrics is valid; every Record method is then a no-op.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests, labeled by method, route pattern and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes HTTP request duration in seconds, labeled by method and route pattern.
	HTTPRequestDuration *prometheus.HistogramVec

	// FetchErrors counts failed data source reads, labeled by table.
	FetchErrors *prometheus.CounterVec

	// AggregationDuration observes pipeline run time in seconds, labeled by view.
	AggregationDuration *prometheus.HistogramVec

	// PublicationsDeduplicated counts publications dropped as duplicates.
	PublicationsDeduplicated prometheus.Counter

	// ChatRequestsTotal counts chat completions, labeled by provider and status.
	ChatRequestsTotal *prometheus.CounterVec

	// ChatRequestDuration observes chat completion latency in seconds, labeled by provider.
	ChatRequestDuration *prometheus.HistogramVec

	// ImportRowsTotal counts rows written by the importer, labeled by table.
	ImportRowsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// HTTP
		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// Data source
		FetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Total number of failed data source reads by table",
		}, []string{"table"}),

		// Pipeline
		AggregationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of pipeline aggregation in seconds by view",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"view"}),
		PublicationsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publications_deduplicated_total",
			Help:      "Total number of publications dropped as duplicates",
		}),

		// Chat
		ChatRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Total number of chat completion requests by provider and status",
		}, []string{"provider", "status"}),
		ChatRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "Duration of chat completion requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"provider"}),

		// Import
		ImportRowsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Total number of rows written by the importer by table",
		}, []string{"table"}),
	}
}

// RecordHTTPRequest records a completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordFetchError records a failed read of table.
func (m *Metrics) RecordFetchError(table string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(table).Inc()
}

// RecordAggregation records one pipeline run for view.
func (m *Metrics) RecordAggregation(view string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.AggregationDuration.WithLabelValues(view).Observe(durationSeconds)
}

// RecordPublicationsDeduplicated adds count dropped duplicates.
func (m *Metrics) RecordPublicationsDeduplicated(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.PublicationsDeduplicated.Add(float64(count))
}

// RecordChatRequest records a chat completion attempt.
func (m *Metrics) RecordChatRequest(provider, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ChatRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ChatRequestDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordImportRows adds count rows written to table.
func (m *Metrics) RecordImportRows(table string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.ImportRowsTotal.WithLabelValues(table).Add(float64(count))
}
