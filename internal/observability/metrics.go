package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce     sync.Once
	requestsTotal    *prometheus.CounterVec
	latencySeconds   *prometheus.HistogramVec
	errorsTotal      *prometheus.CounterVec
	cascadeOpsTotal  *prometheus.CounterVec
	scoredItemsTotal prometheus.Counter
	evaluationsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the service.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "audit_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		cascadeOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_cascade_operations_total",
			Help: "Total number of cascade engine operations applied.",
		}, []string{"operation"})

		scoredItemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_scored_items_total",
			Help: "Total number of checklist items scored through batches.",
		})

		evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "audit_evaluations_total",
			Help: "Total number of session evaluations by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(requestsTotal, latencySeconds, errorsTotal, cascadeOpsTotal, scoredItemsTotal, evaluationsTotal)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// CascadeOperations exposes the counter for cascade engine operations.
func CascadeOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return cascadeOpsTotal
}

// ScoredItems exposes the counter for scored checklist items.
func ScoredItems() prometheus.Counter {
	RegisterMetrics()
	return scoredItemsTotal
}

// Evaluations exposes the counter for session evaluations by outcome.
func Evaluations() *prometheus.CounterVec {
	RegisterMetrics()
	return evaluationsTotal
}
