package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for fetches and job runs.
type Metrics struct {
	Registry         *prometheus.Registry
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  prometheus.Histogram
	RetriesTotal     prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	JobsTotal        *prometheus.CounterVec
	RowsWrittenTotal prometheus.Counter
	SchemaDriftTotal prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fapool_requests_total",
			Help: "Total HTTP attempts issued against the provider.",
		},
		[]string{"mode"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fapool_request_duration_seconds",
			Help:    "Provider request latency per attempt.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fapool_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fapool_errors_total",
			Help: "Total number of failed attempts by type.",
		},
		[]string{"error_type"},
	)
	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fapool_jobs_total",
			Help: "Jobs finished by terminal status.",
		},
		[]string{"status"},
	)
	rows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fapool_rows_written_total",
			Help: "Rows persisted to output artifacts.",
		},
	)
	drift := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fapool_schema_drift_total",
			Help: "Responses whose shape no longer held a row sequence.",
		},
	)

	registry.MustRegister(requests, requestDuration, retries, errorsTotal, jobs, rows, drift)

	return &Metrics{
		Registry:         registry,
		RequestsTotal:    requests,
		RequestDuration:  requestDuration,
		RetriesTotal:     retries,
		ErrorsTotal:      errorsTotal,
		JobsTotal:        jobs,
		RowsWrittenTotal: rows,
		SchemaDriftTotal: drift,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(mode string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(mode).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncJob counts a finished job.
func (m *Metrics) IncJob(status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
}

// AddRows adds persisted rows.
func (m *Metrics) AddRows(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsWrittenTotal.Add(float64(n))
}

// IncSchemaDrift counts a shape mismatch.
func (m *Metrics) IncSchemaDrift() {
	if m == nil {
		return
	}
	m.SchemaDriftTotal.Inc()
}
