// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitness_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_notifications_created_total",
			Help: "Notifications written to user feeds",
		},
		[]string{"kind"},
	)

	// PairingDecisions counts accepted, rejected and capacity_rejected outcomes.
	PairingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_pairing_decisions_total",
			Help: "Trainer change request decisions",
		},
		[]string{"outcome"},
	)

	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_storage_operations_total",
			Help: "Object storage calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	// StorageBreakerState is 0 closed, 1 half-open, 2 open.
	StorageBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fitness_storage_breaker_state",
			Help: "Circuit breaker state of the object storage client",
		},
		[]string{"name"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitness_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"rule"},
	)
)

// Pairing decision outcomes.
const (
	OutcomeAccepted         = "accepted"
	OutcomeRejected         = "rejected"
	OutcomeCapacityRejected = "capacity_rejected"
)

// RecordNotification counts a created notification.
func RecordNotification(kind string) {
	NotificationsCreated.WithLabelValues(kind).Inc()
}

// RecordPairingDecision counts a resolve/adjudicate outcome.
func RecordPairingDecision(outcome string) {
	PairingDecisions.WithLabelValues(outcome).Inc()
}

// RecordStorageOperation counts an object storage call.
func RecordStorageOperation(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	StorageOperations.WithLabelValues(operation, result).Inc()
}
