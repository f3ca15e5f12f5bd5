package pipeline

import (
	"errors"
	"fmt"
)

// Failure reasons recorded on FAILED jobs.
const (
	ReasonAnalysisFailed      = "analysis_failed"
	ReasonBelowMinimumSuccess = "below_minimum_success_rate"
	ReasonCancelled           = "cancelled"
	ReasonNoCandidatesScored  = "no_candidates_scored"
)

var (
	ErrInvalidSubmission = errors.New("invalid submission")
	ErrJobNotFound       = errors.New("job not found")
	ErrJobPending        = errors.New("job is still running")
	ErrJobFinished       = errors.New("job already finished")
	// ErrCircuitOpen is returned for calls rejected by an open circuit breaker.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrCancelled   = errors.New("job cancelled")
)

// JobFailedError is returned by Result for FAILED jobs.
type JobFailedError struct {
	JobID  string
	Reason string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", e.JobID, e.Reason)
}

func (e *JobFailedError) Unwrap() error {
	if e.Reason == ReasonCancelled {
		return ErrCancelled
	}
	return nil
}

func invalidSubmission(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSubmission, reason)
}
