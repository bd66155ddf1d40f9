package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_hold_attempts_total",
			Help: "Seat hold attempts by outcome",
		},
		[]string{"outcome"},
	)

	lockStoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seat_lock_store_duration_seconds",
			Help:    "Latency of seat lock store operations",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"operation"},
	)

	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Committed booking status transitions",
		},
		[]string{"from", "to"},
	)

	reconciliationAnomalies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_reconciliation_anomalies_total",
			Help: "Payments that could not be matched to seats and need manual handling",
		},
		[]string{"kind"},
	)

	scheduleConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schedule_conflicts_total",
			Help: "Schedule creations rejected for overlapping an existing sailing",
		},
	)
)

func TrackHoldOutcome(outcome string) {
	holdOutcomes.WithLabelValues(outcome).Inc()
}

func TrackLockStore(operation string, started time.Time) {
	lockStoreLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func TrackTransition(from, to string) {
	bookingTransitions.WithLabelValues(from, to).Inc()
}

func TrackReconciliationAnomaly(kind string) {
	reconciliationAnomalies.WithLabelValues(kind).Inc()
}

func TrackScheduleConflict() {
	scheduleConflicts.Inc()
}
