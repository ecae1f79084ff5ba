package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PointsAwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "points_awarded_total",
		Help: "Total points credited by the award engine",
	})

	AwardsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "awards_total",
		Help: "Total number of accepted award operations",
	})

	AwardsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "awards_rejected_total",
		Help: "Total number of rejected award operations",
	}, []string{"reason"})

	RedemptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "redemptions_total",
		Help: "Total number of issued claims",
	})

	RedemptionsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redemptions_rejected_total",
		Help: "Total number of rejected redemptions",
	}, []string{"reason"})

	ReservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "offer_reservations_total",
		Help: "Total number of accepted offer reservations",
	})

	ReservationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "offer_reservations_rejected_total",
		Help: "Total number of rejected offer reservations",
	}, []string{"reason"})

	StockGateHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_gate_hits_total",
		Help: "Redis stock gate outcomes",
	}, []string{"outcome"})

	PickupTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pickup_transitions_total",
		Help: "Total number of pickup state transitions",
	}, []string{"entity", "status"})

	BadgesGrantedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "badges_granted_total",
		Help: "Total number of badges granted by the worker",
	})

	AwardLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "award_latency_seconds",
		Help:    "Latency of award operations",
		Buckets: prometheus.DefBuckets,
	})

	ReservationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "offer_reservation_latency_seconds",
		Help:    "Latency of offer reservation operations",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
