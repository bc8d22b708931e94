// Package reconcile contains the two polling loops that keep the
// notebook's tunnel and its desired endpoint binding in agreement with
// reality: the reconnector repairs liveness drift, the switcher
// repairs desired-target drift.
//
// Each loop runs a single Reconciler sequentially.  A tick returns an
// error instead of panicking; the loop driver counts it, logs it, and
// keeps going until the failure budget runs out.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nbtether/internal/clock"
	nberr "nbtether/internal/errors"
	"nbtether/internal/metrics"
)

// Reconciler performs one reconciliation pass.
type Reconciler interface {
	Tick(ctx context.Context) error
}

// Loop drives a Reconciler on a fixed interval until the context is
// cancelled or the breaker trips.
type Loop struct {
	Name       string
	Reconciler Reconciler
	Interval   time.Duration
	Breaker    *Breaker
	Clock      clock.Clock
	Logger     *slog.Logger
	Metrics    *metrics.Collector
}

// Run blocks until ctx is cancelled (returning ctx.Err()) or the
// consecutive-failure budget is exhausted (returning a wrapped
// ErrTooManyFailures).  Each iteration sleeps the interval first, so a
// freshly started loop does not race the bootstrap connect.
func (l *Loop) Run(ctx context.Context) error {
	l.Logger.Info("reconciler starting", "loop", l.Name, "interval", l.Interval)
	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("reconciler stopping", "loop", l.Name)
			return ctx.Err()
		case <-l.Clock.After(l.Interval):
		}

		err := l.Reconciler.Tick(ctx)
		l.Metrics.TickCompleted(err != nil)
		l.Breaker.Observe(err != nil)
		if err != nil {
			l.Logger.Error("tick failed", "loop", l.Name,
				"consecutive", l.Breaker.Count(), "error", err)
			if l.Breaker.Tripped() {
				l.Logger.Error("failure budget exhausted, stopping",
					"loop", l.Name, "failures", l.Breaker.Count())
				return fmt.Errorf("%s: %d consecutive failures: %w",
					l.Name, l.Breaker.Count(), nberr.ErrTooManyFailures)
			}
		}
	}
}
