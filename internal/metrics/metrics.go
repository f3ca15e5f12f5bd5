// Package metrics exposes pipeline counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cv_ranker"

// Attempt outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeFailure     = "failure"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeFallback    = "fallback"
)

// Candidate outcomes.
const (
	CandidateRanked   = "ranked"
	CandidateFiltered = "filtered"
	CandidateExcluded = "excluded"
)

// Metrics holds the collectors of one Orchestrator. A nil *Metrics records nothing.
type Metrics struct {
	JobsFinished     *prometheus.CounterVec
	JobsActive       prometheus.Gauge
	AdapterAttempts  *prometheus.CounterVec
	AdapterDuration  *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec
	CandidateResults *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg gets a private registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		JobsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_finished_total",
				Help:      "Total number of ranking jobs that reached a terminal state",
			},
			[]string{"state", "reason"},
		),
		JobsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "jobs_active",
				Help:      "Number of ranking jobs in progress",
			},
		),
		AdapterAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adapter_attempts_total",
				Help:      "Total number of adapter calls by outcome",
			},
			[]string{"adapter", "outcome"},
		),
		AdapterDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "adapter_call_duration_seconds",
				Help:      "Duration of adapter calls in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"adapter"},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "breaker_state",
				Help:      "Circuit breaker state per adapter: 0 closed, 1 half-open, 2 open",
			},
			[]string{"adapter"},
		),
		CandidateResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "candidates_total",
				Help:      "Total number of candidates by final outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) JobStarted() {
	if m == nil {
		return
	}
	m.JobsActive.Inc()
}

func (m *Metrics) JobFinished(state, reason string) {
	if m == nil {
		return
	}
	m.JobsActive.Dec()
	m.JobsFinished.WithLabelValues(state, reason).Inc()
}

func (m *Metrics) Attempt(adapter, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.AdapterAttempts.WithLabelValues(adapter, outcome).Inc()
	if outcome == OutcomeSuccess || outcome == OutcomeFailure {
		m.AdapterDuration.WithLabelValues(adapter).Observe(took.Seconds())
	}
}

func (m *Metrics) Breaker(adapter string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(adapter).Set(state)
}

func (m *Metrics) Candidates(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CandidateResults.WithLabelValues(outcome).Add(float64(n))
}
