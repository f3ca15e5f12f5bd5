package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.JobStarted()
	m.JobStarted()
	m.JobFinished("COMPLETED", "")
	m.Attempt("extraction", OutcomeSuccess, 20*time.Millisecond)
	m.Attempt("extraction", OutcomeFailure, time.Second)
	m.Attempt("extraction", OutcomeCircuitOpen, 0)
	m.Breaker("extraction", 2)
	m.Candidates(CandidateRanked, 6)
	m.Candidates(CandidateExcluded, 0)

	if got := testutil.ToFloat64(m.JobsActive); got != 1 {
		t.Fatalf("expected 1 active job, got %v", got)
	}
	if got := testutil.ToFloat64(m.JobsFinished.WithLabelValues("COMPLETED", "")); got != 1 {
		t.Fatalf("expected 1 finished job, got %v", got)
	}
	if got := testutil.ToFloat64(m.AdapterAttempts.WithLabelValues("extraction", OutcomeCircuitOpen)); got != 1 {
		t.Fatalf("expected 1 rejected attempt, got %v", got)
	}
	if got := testutil.CollectAndCount(m.AdapterDuration); got != 1 {
		t.Fatalf("expected one duration series, got %d", got)
	}
	if got := testutil.ToFloat64(m.BreakerState.WithLabelValues("extraction")); got != 2 {
		t.Fatalf("expected open breaker gauge, got %v", got)
	}
	if got := testutil.ToFloat64(m.CandidateResults.WithLabelValues(CandidateRanked)); got != 6 {
		t.Fatalf("expected 6 ranked candidates, got %v", got)
	}
	if got := testutil.CollectAndCount(m.CandidateResults); got != 1 {
		t.Fatalf("zero additions must not create series, got %d", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.JobStarted()
	m.JobFinished("FAILED", "cancelled")
	m.Attempt("analysis", OutcomeFailure, time.Second)
	m.Breaker("analysis", 0)
	m.Candidates(CandidateFiltered, 1)
}

func TestNewWithoutRegistry(t *testing.T) {
	// Two instances must not collide on a shared registry.
	New(nil).JobStarted()
	New(nil).JobStarted()
}
