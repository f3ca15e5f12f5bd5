// Package retry runs operations with exponential backoff and jitter.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	Attempts  int           `mapstructure:"attempts" validate:"gte=0,lte=20"`
	BaseDelay time.Duration `mapstructure:"base-delay" validate:"gte=0"`
	MaxDelay  time.Duration `mapstructure:"max-delay" validate:"gte=0"`
	// Jitter is the randomization factor applied to each delay, in [0,1].
	// A delay d becomes a random value in [d*(1-jitter), d*(1+jitter)].
	Jitter float64 `mapstructure:"jitter" validate:"gte=0,lte=1"`
}

// DefaultPolicy is three attempts starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  3,
		BaseDelay: 500 * time.Millisecond,
		MaxDelay:  10 * time.Second,
		Jitter:    0.5,
	}
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = def.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = def.MaxDelay
	}
	return p
}

// NewBackOff returns the delay schedule of the policy: doubling from BaseDelay,
// capped at MaxDelay before jitter, never giving up on elapsed time.
func (p Policy) NewBackOff() *backoff.ExponentialBackOff {
	p = p.withDefaults()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = 2
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Permanent marks err as not retryable.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls op until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. It returns the number of attempts made and the last
// error, unwrapped from Permanent. When ctx ends while waiting between
// attempts the context error is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error) (int, error) {
	return do(ctx, p, op, nil)
}

func do(ctx context.Context, p Policy, op func(ctx context.Context, attempt int) error, timer backoff.Timer) (int, error) {
	p = p.withDefaults()

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx, attempt)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	schedule := backoff.WithContext(backoff.WithMaxRetries(p.NewBackOff(), uint64(p.Attempts-1)), ctx)
	err := backoff.RetryNotifyWithTimer(operation, schedule, nil, timer)
	return attempt, err
}
