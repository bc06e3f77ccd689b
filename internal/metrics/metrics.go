// Package metrics exposes Prometheus collectors for the article pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepress_items_total",
			Help: "Total processed items, labeled by terminal status.",
		},
		[]string{"status"},
	)

	fetchTierAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notepress_fetch_tier_attempts_total",
			Help: "Fetch tier attempts, labeled by tier and outcome.",
		},
		[]string{"tier", "outcome"},
	)

	summarizeRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notepress_summarize_retries_total",
			Help: "Total summarization retries after transient failures.",
		},
	)

	unitsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notepress_units_in_flight",
			Help: "Units of work currently admitted by the concurrency gate.",
		},
	)

	unitDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notepress_unit_duration_seconds",
			Help:    "Wall time per unit of work, fetch through note write.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)
)

// ObserveItem counts one finished unit by terminal status.
func ObserveItem(status string) {
	itemsTotal.WithLabelValues(status).Inc()
}

// ObserveTierAttempt counts one fetch tier attempt outcome
// (success, short, error).
func ObserveTierAttempt(tier, outcome string) {
	fetchTierAttemptsTotal.WithLabelValues(tier, outcome).Inc()
}

// AddSummarizeRetry counts one transient-failure retry.
func AddSummarizeRetry() {
	summarizeRetriesTotal.Inc()
}

// UnitStarted marks a unit admitted by the gate.
func UnitStarted() {
	unitsInFlight.Inc()
}

// UnitFinished marks a unit done and records its duration.
func UnitFinished(d time.Duration) {
	unitsInFlight.Dec()
	unitDurationSeconds.Observe(d.Seconds())
}
