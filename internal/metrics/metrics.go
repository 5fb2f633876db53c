package metrics

import "github.com/prometheus/client_golang/prometheus"

// Run result label values for RunsTotal.
const (
	RunResultCompleted = "completed"
	RunResultAborted   = "aborted"
	RunResultRejected  = "rejected"
)

var (
	// RunsTotal counts batch run invocations by final result.
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewpulse_runs_total",
			Help: "Total number of batch runs by result",
		},
		[]string{"result"},
	)

	// TenantOutcomes counts per-tenant outcomes across all runs.
	TenantOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewpulse_tenant_outcomes_total",
			Help: "Total number of per-tenant outcomes by status",
		},
		[]string{"status"},
	)

	// RunDuration observes wall-clock duration of completed runs.
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewpulse_run_duration_seconds",
			Help:    "Duration of batch runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ClassificationRequests counts calls to the sentiment service.
	ClassificationRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewpulse_classification_requests_total",
			Help: "Total classification service calls by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RunsTotal,
		TenantOutcomes,
		RunDuration,
		ClassificationRequests,
	)
}
