package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "practicesite_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestCache counts GET lookups in the client request cache by result (hit|miss|shared).
	RequestCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practicesite_request_cache_total",
			Help: "Client request cache lookups by result",
		},
		[]string{"result"},
	)

	// RequestCacheEvictions counts entries dropped from the client request cache (ceiling|expired|forget).
	RequestCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practicesite_request_cache_evictions_total",
			Help: "Client request cache evictions by reason",
		},
		[]string{"reason"},
	)

	// Mutations counts admin mutations by entity, operation and result (success|failure).
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practicesite_mutations_total",
			Help: "Admin mutations by entity, operation and result",
		},
		[]string{"entity", "op", "result"},
	)

	// ReorderDivergence counts reorders whose confirmed order differed from the optimistic one.
	ReorderDivergence = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practicesite_reorder_divergence_total",
			Help: "Reorders where the server order differed from the optimistic order",
		},
		[]string{"entity"},
	)
)

var (
	// MaintenanceRuns counts background job runs by job and result (success|failure).
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practicesite_maintenance_runs_total",
			Help: "Background maintenance job runs by job and result",
		},
		[]string{"job", "result"},
	)

	// MaintenanceDuration measures background job run time.
	MaintenanceDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "practicesite_maintenance_duration_seconds",
			Help:    "Background maintenance job duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)
