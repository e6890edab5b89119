package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtrack_backend_requests_total",
		Help: "Upstream backend requests by method and outcome",
	}, []string{"method", "outcome"}) // outcome=ok|not_found|client_error|server_error|transport

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buildtrack_backend_request_duration_seconds",
		Help:    "Upstream backend request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	ValidationRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtrack_validation_rejections_total",
		Help: "Saves rejected before any backend call, by rule",
	}, []string{"rule"})

	WizardSavesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtrack_wizard_saves_total",
		Help: "Wizard step saves by step and outcome",
	}, []string{"step", "outcome"}) // outcome=saved|failed|rejected

	AggregationSkipsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtrack_aggregation_skips_total",
		Help: "Projects left out of an aggregation view, by reason",
	}, []string{"view", "reason"}) // reason=absent|error

	BulkOperationItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildtrack_bulk_items_total",
		Help: "Items processed by bulk operations, by outcome",
	}, []string{"operation", "outcome"})
)

func RecordBackendRequest(method, outcome string, seconds float64) {
	BackendRequestsTotal.WithLabelValues(method, outcome).Inc()
	BackendRequestDuration.WithLabelValues(method).Observe(seconds)
}

func IncValidationRejection(rule string) {
	if rule == "" {
		rule = "unknown"
	}
	ValidationRejectionsTotal.WithLabelValues(rule).Inc()
}

func IncWizardSave(step, outcome string) {
	WizardSavesTotal.WithLabelValues(step, outcome).Inc()
}

func IncAggregationSkip(view, reason string) {
	AggregationSkipsTotal.WithLabelValues(view, reason).Inc()
}

func AddBulkItems(operation string, succeeded, failed int) {
	BulkOperationItemsTotal.WithLabelValues(operation, "success").Add(float64(succeeded))
	BulkOperationItemsTotal.WithLabelValues(operation, "failure").Add(float64(failed))
}
