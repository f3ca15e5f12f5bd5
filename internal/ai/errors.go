package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks failures worth retrying: rate limits, server errors, timeouts.
	ErrTransient = errors.New("transient adapter failure")
	// ErrInvalidInput marks failures caused by the document itself. A retry cannot fix them.
	ErrInvalidInput = errors.New("invalid adapter input")
	// ErrUnavailable marks adapter-side failures a retry cannot fix either:
	// rejected credentials, unknown model. They count against the adapter's health.
	ErrUnavailable = errors.New("adapter unavailable")

	ErrExtraction = errors.New("extraction failed")
	ErrAnalysis   = errors.New("analysis failed")
)

// Adapter kinds.
const (
	KindExtraction = "extraction"
	KindAnalysis   = "analysis"
	KindSimilarity = "similarity"
)

// AdapterError carries the adapter kind and subject of a failed call.
type AdapterError struct {
	Kind    string
	Subject string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Subject, e.Err)
}

func (e *AdapterError) Unwrap() []error {
	var kindErr error
	switch e.Kind {
	case KindExtraction:
		kindErr = ErrExtraction
	case KindAnalysis:
		kindErr = ErrAnalysis
	}
	if kindErr == nil {
		return []error{e.Err}
	}
	return []error{kindErr, e.Err}
}

// Transient wraps err so that errors.Is(err, ErrTransient) holds.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// InvalidInput wraps err so that errors.Is(err, ErrInvalidInput) holds.
func InvalidInput(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
