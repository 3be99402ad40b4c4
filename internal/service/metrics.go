package service

import (
	"strings"

	"github.com/SergeyBogomolovv/lafete-order-service/internal/entities"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliveriesBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Name:      "deliveries_booked_total",
			Help:      "Couriers booked with the delivery partner",
		},
	)

	placementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Name:      "placements_total",
			Help:      "Order placements by result",
		},
		[]string{"result"},
	)

	placementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "order_service",
			Name:      "placement_duration_seconds",
			Help:      "Time spent placing an order, retries included",
			Buckets:   prometheus.DefBuckets,
		},
	)

	statusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "order_service",
			Name:      "status_changes_total",
			Help:      "Applied order status transitions by target status",
		},
		[]string{"status"},
	)
)

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ToLower(string(entities.KindOf(err)))
}
