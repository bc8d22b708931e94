package directory

// wait.go - the ready-wait state machine.  The directory rejects
// concurrent updates to an endpoint, so every mutation is bracketed by
// a wait for the previous update to drain.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"nbtether/internal/clock"
	nberr "nbtether/internal/errors"
)

// ReadyWaiter polls an endpoint's update status until it leaves
// IN_PROGRESS.
type ReadyWaiter struct {
	Client  Client
	Clock   clock.Clock
	Logger  *slog.Logger
	Poll    time.Duration // sub-interval between status polls
	Timeout time.Duration // overall budget for one wait
}

// Wait blocks until the endpoint is ready to accept an update.
//
// COMPLETED or an absent status return nil promptly.  FAILED returns
// an error satisfying errors.IsUpdateFailed.  Exhausting the overall
// timeout logs an error and returns nil: the caller proceeds, and the
// directory's own conflict rejection catches an update issued too
// early.
func (w *ReadyWaiter) Wait(ctx context.Context, name string) error {
	deadline := w.Clock.Now().Add(w.Timeout)

	for w.Clock.Now().Before(deadline) {
		w.Logger.Debug("waiting for endpoint to be ready", "endpoint", name)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.Clock.After(w.Poll):
		}

		ep, err := w.Client.Describe(ctx, name)
		if err != nil {
			return fmt.Errorf("polling endpoint %s: %w", name, err)
		}

		switch ep.UpdateStatus {
		case StatusNone:
			return nil
		case StatusCompleted:
			w.Logger.Debug("endpoint is ready", "endpoint", name)
			return nil
		case StatusFailed:
			return fmt.Errorf("endpoint %s: %w", name, nberr.ErrUpdateFailed)
		}
	}

	w.Logger.Error("timed out waiting for endpoint to be ready",
		"endpoint", name, "timeout", w.Timeout)
	return nil
}
