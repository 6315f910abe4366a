// Package metrics holds the Prometheus collectors shared by the form engine,
// the backend client and the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reconciliations counts matrix reshapes performed by form stores.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedlab_matrix_reconciliations_total",
		Help: "Total matrix reshapes triggered by dimension changes",
	}, []string{"algorithm"})

	// CoercionFallbacks counts cell inputs that could not be parsed and were zeroed.
	CoercionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedlab_coercion_fallbacks_total",
		Help: "Total malformed inputs replaced by the type's zero value",
	}, []string{"data_type"})

	// Submissions counts execution requests by outcome
	// (completed, failed, rejected, stale).
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedlab_submissions_total",
		Help: "Total form submissions by outcome",
	}, []string{"outcome"})

	// SubmissionLatency observes execution-service round trips.
	SubmissionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedlab_submission_latency_seconds",
		Help:    "Execution service round-trip latency",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	})

	// SchemaFetchDuration observes schema provider lookups by source.
	SchemaFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedlab_schema_fetch_duration_seconds",
		Help:    "Duration of algorithm schema lookups",
		Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"source"})

	// HTTPRequests counts served requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schedlab_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration observes request handling time by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedlab_http_request_duration_seconds",
		Help:    "HTTP request handling duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// RunsPruned counts run history rows removed by retention.
	RunsPruned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schedlab_runs_pruned_total",
		Help: "Total runs deleted by the retention sweep",
	})

	// ActiveForms tracks live form stores.
	ActiveForms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "schedlab_active_forms",
		Help: "Number of live form sessions",
	})
)

// Submission outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeStale     = "stale"
)
