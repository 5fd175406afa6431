// Package metrics holds the Prometheus collectors shared across packages.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakila_query_duration_seconds",
			Help:    "Duration of data-access queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	QueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakila_query_errors_total",
			Help: "Data-access query errors by kind",
		},
		[]string{"operation", "table", "kind"},
	)

	ExistenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakila_table_existence_lookups_total",
			Help: "Table-existence lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sakila_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakila_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker by result (success, failure, rejected)",
		},
		[]string{"name", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakila_http_requests_total",
			Help: "HTTP requests by route and status class",
		},
		[]string{"method", "route", "status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakila_admin_events_total",
			Help: "Admin events published by type and sink",
		},
		[]string{"type", "sink"},
	)
)
