// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SimulationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propsim_simulations_completed_total",
			Help: "Total number of simulation runs completed",
		},
		[]string{"rental_type"},
	)

	SimulationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propsim_simulations_failed_total",
			Help: "Total number of simulation runs rejected or failed",
		},
		[]string{"error_code"},
	)

	SimulationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "propsim_simulation_duration_seconds",
			Help: "Duration of a full simulation run in seconds",
		},
		[]string{"rental_type"},
	)

	SweepSamplesEvaluated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "propsim_sweep_samples_evaluated_total",
			Help: "Total number of down-payment sweep samples evaluated",
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "propsim_cache_requests_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"}, // hit, miss, error
	)

	StorageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "propsim_storage_op_duration_seconds",
			Help: "Duration of repository operations in seconds",
		},
		[]string{"op"},
	)
)
