// Package observability holds the process-wide Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "task_api"

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// HTTPRequests counts handled requests.
	// Labels: method, route (the registered pattern), status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration measures request latency.
	// Labels: method, route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SyncOperations counts relationship synchronizer runs.
	// Labels: operation, outcome (success, error)
	SyncOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assignment",
		Name:      "operations_total",
		Help:      "Relationship synchronizer operations by outcome",
	}, []string{"operation", "outcome"})

	// SyncTasksTouched counts tasks rewritten by bulk assignment updates.
	// Labels: phase (release, claim)
	SyncTasksTouched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "assignment",
		Name:      "tasks_updated_total",
		Help:      "Tasks rewritten by bulk assignment updates",
	}, []string{"phase"})

	// QueryRejections counts query parameters rejected by the translator.
	// Labels: collection, param
	QueryRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "query",
		Name:      "rejections_total",
		Help:      "Query parameters rejected as invalid",
	}, []string{"collection", "param"})
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
