package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/ai"
	"github.com/spigell/cv-ranker/internal/metrics"
)

// breaker guards one adapter type. It is shared by every job of an Orchestrator.
type breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker[any]
}

func newBreaker(name string, cfg BreakerConfig, m *metrics.Metrics, logger *zap.Logger) *breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("adapter", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			m.Breaker(name, stateValue(to))
		},
		IsSuccessful: isAdapterHealthy,
	}

	m.Breaker(name, stateValue(gobreaker.StateClosed))
	return &breaker{name: name, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// isAdapterHealthy decides which errors count against the adapter.
// Job cancellation and rejected input say nothing about the adapter's health;
// timeouts and an unavailable adapter do.
func isAdapterHealthy(err error) bool {
	return err == nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ai.ErrInvalidInput)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

func (b *breaker) State() gobreaker.State {
	return b.cb.State()
}

// guard runs fn through the breaker. Rejected calls return ErrCircuitOpen
// without running fn.
func guard[T any](b *breaker, fn func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrCircuitOpen, b.name)
	}

	value, _ := out.(T)
	return value, err
}

// callWithTimeout runs fn under its own deadline. It returns when the deadline
// passes even if fn does not observe its context.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		value, err := fn(ctx)
		done <- result{value: value, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
