package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Roster operations used as metric label values.
const (
	OperationSignup     = "signup"
	OperationUnregister = "unregister"
)

var (
	rosterChangeCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "registry",
		Name:      "roster_changes_total",
		Help:      "Number of successful roster mutations grouped by operation.",
	}, []string{"operation"})

	rosterRejectionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "registry",
		Name:      "roster_rejections_total",
		Help:      "Number of rejected roster mutations grouped by operation and reason.",
	}, []string{"operation", "reason"})

	rosterSizeGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "activities_service",
		Subsystem: "registry",
		Name:      "roster_size",
		Help:      "Current number of participants per activity.",
	}, []string{"activity"})

	publishFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activities_service",
		Subsystem: "events",
		Name:      "publish_failures_total",
		Help:      "Number of roster events that could not be published.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(rosterChangeCounter, rosterRejectionCounter, rosterSizeGauge, publishFailureCounter)
}

// RecordRosterChange counts a successful mutation.
func RecordRosterChange(operation string) {
	rosterChangeCounter.WithLabelValues(operation).Inc()
}

// RecordRosterRejection counts a failed mutation.
func RecordRosterRejection(operation, reason string) {
	rosterRejectionCounter.WithLabelValues(operation, reason).Inc()
}

// SetRosterSize sets the roster size gauge. The registry calls it while
// holding its write lock so the gauge follows mutation order.
func SetRosterSize(activity string, size int) {
	rosterSizeGauge.WithLabelValues(activity).Set(float64(size))
}

// RecordPublishFailure counts a roster event that failed to publish.
func RecordPublishFailure(eventType string) {
	publishFailureCounter.WithLabelValues(eventType).Inc()
}

// PublishFailures returns the publish failure counter for eventType.
func PublishFailures(eventType string) prometheus.Counter {
	return publishFailureCounter.WithLabelValues(eventType)
}
