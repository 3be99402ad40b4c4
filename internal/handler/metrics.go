package handler

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	statusUpdatesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "status_updates_processed_total",
			Help:      "Total number of successfully applied kitchen status updates",
		},
	)

	statusUpdatesFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "status_updates_failed_total",
			Help:      "Total number of failed status update attempts",
		},
	)

	statusUpdatesDuplicate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "status_updates_duplicate_total",
			Help:      "Total number of redelivered status updates skipped",
		},
	)

	statusUpdatesDLQ = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "status_updates_dlq_total",
			Help:      "Total number of status updates written to DLQ",
		},
	)

	commitErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "commit_errors_total",
			Help:      "Total number of Kafka commit errors",
		},
	)

	statusUpdateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "status_update_duration_seconds",
			Help:      "Histogram of status update processing durations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	statusUpdatesInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "order_service",
			Subsystem: "kafka_consumer",
			Name:      "status_updates_in_progress",
			Help:      "Number of status updates currently being processed",
		},
	)
)

var idempotentReplays = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "order_service",
		Subsystem: "http",
		Name:      "idempotent_replays_total",
		Help:      "Total number of order placements answered from the idempotency store",
	},
)

func RegisterMetrics() {
	prometheus.MustRegister(
		statusUpdatesProcessed,
		statusUpdatesFailed,
		statusUpdatesDuplicate,
		statusUpdatesDLQ,
		commitErrors,
		statusUpdateDuration,
		statusUpdatesInProgress,

		idempotentReplays,
	)
}
