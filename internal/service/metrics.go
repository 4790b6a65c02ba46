package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigmarket_orders_created_total",
			Help: "Orders created, by package type.",
		},
		[]string{"package_type"},
	)

	orderTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigmarket_order_transitions_total",
			Help: "Order status transition attempts, by action and result.",
		},
		[]string{"action", "result"},
	)

	disputesOpenedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gigmarket_disputes_opened_total",
			Help: "Disputes opened.",
		},
	)

	reviewMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigmarket_review_mutations_total",
			Help: "Review submissions and deletions that committed.",
		},
		[]string{"operation"},
	)

	integrityViolationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gigmarket_aggregate_integrity_violations_total",
			Help: "Aggregate recomputations aborted because the result was impossible.",
		},
	)

	aggregateCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gigmarket_aggregate_cache_requests_total",
			Help: "Aggregate cache lookups, by result.",
		},
		[]string{"result"},
	)
)
