// Package metrics provides Prometheus metrics exporters for the excavator
// cycle-analysis pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "excavator_pipeline"

var (
	// stageDuration is a histogram of per-stage processing duration in seconds.
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Histogram of pipeline stage processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// stageElementsTotal counts frames/classifications/events/cycles processed per stage.
	stageElementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_elements_total",
			Help:      "Total number of elements processed by a stage",
		},
		[]string{"stage", "status"}, // status: success, soft_failure
	)

	// runsActive is a gauge of currently executing pipeline runs.
	runsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of currently active pipeline runs",
		},
	)

	// runDuration is a histogram of total pipeline run duration.
	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Histogram of total pipeline run duration in seconds",
			Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"}, // status: success, error, cancelled
	)

	// providerRequestDuration is a histogram of external-model call duration.
	providerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Duration of external vision/text model calls in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"role", "model"}, // role: vision, text
	)

	// providerRequestsTotal counts external-model calls.
	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of external model calls",
		},
		[]string{"role", "model", "status"}, // status: success, retry, failure
	)

	// circuitBreakerTrips counts circuit-breaker openings.
	circuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of times a provider circuit breaker tripped open",
		},
		[]string{"role"},
	)

	// cyclesDetectedTotal counts cycles by completeness.
	cyclesDetectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_detected_total",
			Help:      "Total number of cycles detected, by completeness",
		},
		[]string{"completeness"}, // complete, partial
	)

	allMetrics = []prometheus.Collector{
		stageDuration,
		stageElementsTotal,
		runsActive,
		runDuration,
		providerRequestDuration,
		providerRequestsTotal,
		circuitBreakerTrips,
		cyclesDetectedTotal,
	}
)

// RecordStageDuration records the wall-clock duration of a completed stage.
func RecordStageDuration(stage string, durationSeconds float64) {
	stageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordStageElement records one processed record (frame, classification,
// event, or cycle) for a stage.
func RecordStageElement(stage, status string) {
	stageElementsTotal.WithLabelValues(stage, status).Inc()
}

// RecordRunStart marks the start of a pipeline run.
func RecordRunStart() {
	runsActive.Inc()
}

// RecordRunEnd marks the end of a pipeline run.
func RecordRunEnd(status string, durationSeconds float64) {
	runsActive.Dec()
	runDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordProviderRequest records one external-model call attempt.
func RecordProviderRequest(role, model, status string, durationSeconds float64) {
	providerRequestDuration.WithLabelValues(role, model).Observe(durationSeconds)
	providerRequestsTotal.WithLabelValues(role, model, status).Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker opening for a provider role.
func RecordCircuitBreakerTrip(role string) {
	circuitBreakerTrips.WithLabelValues(role).Inc()
}

// RecordCycleDetected records one cycle of the given completeness.
func RecordCycleDetected(completeness string) {
	cyclesDetectedTotal.WithLabelValues(completeness).Inc()
}

// Collectors exposes every metric for registration against a caller-owned registry.
func Collectors() []prometheus.Collector {
	return allMetrics
}
