// Package clock provides an injectable time abstraction so that loop
// and wait logic can be tested deterministically.  Production code
// receives [Real]; tests receive a [FakeClock] advanced by hand.
package clock

import "time"

// Clock abstracts the time operations nbtether uses.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// ── Real clock ───────────────────────────────────────────────────────

type realClock struct{}

// Real returns the Clock backed by the time package.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (realClock) Sleep(d time.Duration)                  { time.Sleep(d) }
