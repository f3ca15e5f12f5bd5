package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// instantTimer fires immediately and remembers the requested delays.
type instantTimer struct {
	delays []time.Duration
	c      chan time.Time
}

func newInstantTimer() *instantTimer {
	return &instantTimer{c: make(chan time.Time, 1)}
}

func (t *instantTimer) Start(d time.Duration) {
	t.delays = append(t.delays, d)
	t.c <- time.Now()
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func TestDoRetriesUntilSuccess(t *testing.T) {
	timer := newInstantTimer()

	calls := 0
	attempts, err := do(context.Background(), Policy{Attempts: 3, BaseDelay: time.Second, MaxDelay: time.Minute}, func(context.Context, int) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, timer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("expected 3 attempts, got %d (calls %d)", attempts, calls)
	}

	want := []time.Duration{time.Second, 2 * time.Second}
	if len(timer.delays) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), timer.delays)
	}
	for i, d := range want {
		if timer.delays[i] != d {
			t.Fatalf("wait %d: expected %v, got %v", i, d, timer.delays[i])
		}
	}
}

func TestDoStopsAfterAttempts(t *testing.T) {
	boom := errors.New("boom")
	attempts, err := do(context.Background(), Policy{Attempts: 2}, func(context.Context, int) error {
		return boom
	}, newInstantTimer())
	if !errors.Is(err, boom) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDoPermanentError(t *testing.T) {
	timer := newInstantTimer()

	invalid := errors.New("invalid input")
	attempts, err := do(context.Background(), Policy{Attempts: 5}, func(context.Context, int) error {
		return Permanent(invalid)
	}, timer)
	if err != invalid {
		t.Fatalf("expected unwrapped permanent error, got %v", err)
	}
	if attempts != 1 || len(timer.delays) != 0 {
		t.Fatalf("permanent errors must not be retried")
	}
}

func TestDoCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	failed := errors.New("failed")
	attempts, err := do(ctx, Policy{Attempts: 5}, func(context.Context, int) error {
		cancel()
		return failed
	}, newInstantTimer())
	if !errors.Is(err, failed) {
		t.Fatalf("expected the attempt error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected to stop after cancellation, got %d attempts", attempts)
	}
}

func TestDoStopsWaitingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	attempts, err := Do(ctx, Policy{Attempts: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}, func(context.Context, int) error {
		return errors.New("temporary")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancelled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestBackOffJitterAndCap(t *testing.T) {
	p := Policy{Attempts: 5, BaseDelay: time.Second, MaxDelay: 3 * time.Second, Jitter: 0.5}

	for i := 0; i < 50; i++ {
		b := p.NewBackOff()
		var d time.Duration
		for j := 0; j < 4; j++ {
			d = b.NextBackOff()
		}
		if d > 4500*time.Millisecond || d < 1500*time.Millisecond {
			t.Fatalf("backoff %v outside the jitter window", d)
		}
	}

	p.Jitter = 0
	b := p.NewBackOff()
	b.NextBackOff()
	if d := b.NextBackOff(); d != 2*time.Second {
		t.Fatalf("expected 2s without jitter, got %v", d)
	}
}

func TestPermanentIgnoresNil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}
