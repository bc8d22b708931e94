package reconcile

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"nbtether/internal/clock"
	nberr "nbtether/internal/errors"
	"nbtether/internal/logging"
	"nbtether/internal/metrics"
)

type tickFunc func(context.Context) error

func (f tickFunc) Tick(ctx context.Context) error { return f(ctx) }

func newLoop(r Reconciler, threshold int, clk clock.Clock) *Loop {
	return &Loop{
		Name:       "test",
		Reconciler: r,
		Interval:   30 * time.Second,
		Breaker:    NewBreaker(threshold),
		Clock:      clk,
		Logger:     logging.Discard(),
		Metrics:    metrics.New(),
	}
}

func TestLoopHaltsAfterThresholdFailures(t *testing.T) {
	var ticks atomic.Int32
	failing := tickFunc(func(ctx context.Context) error {
		ticks.Add(1)
		return nberr.New("endpoint unreachable")
	})

	fc := clock.Fake(time.Now())
	loop := newLoop(failing, 3, fc)

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	for i := 0; i < 3; i++ {
		fc.WaitForWaiters(1)
		fc.Advance(loop.Interval)
	}

	err := <-done
	if !nberr.Is(err, nberr.ErrTooManyFailures) {
		t.Fatalf("err = %v, want too-many-failures", err)
	}
	if got := ticks.Load(); got != 3 {
		t.Errorf("ticks = %d, want exactly the threshold", got)
	}
}

func TestLoopSuccessResetsFailureCount(t *testing.T) {
	// Two failures, a success, two more failures: never reaches a
	// threshold of three.
	var ticks atomic.Int32
	mixed := tickFunc(func(ctx context.Context) error {
		n := ticks.Add(1)
		if n == 3 {
			return nil
		}
		return nberr.New("flaky")
	})

	fc := clock.Fake(time.Now())
	loop := newLoop(mixed, 3, fc)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	for i := 0; i < 5; i++ {
		fc.WaitForWaiters(1)
		fc.Advance(loop.Interval)
	}
	fc.WaitForWaiters(1)
	cancel()

	if err := <-done; !nberr.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if got := ticks.Load(); got != 5 {
		t.Errorf("ticks = %d, want 5", got)
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	quiet := tickFunc(func(ctx context.Context) error { return nil })

	fc := clock.Fake(time.Now())
	loop := newLoop(quiet, 3, fc)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	fc.WaitForWaiters(1)
	cancel()
	if err := <-done; !nberr.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
