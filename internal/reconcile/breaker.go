package reconcile

import "time"

// Threshold derives the consecutive-failure limit from the failure
// budget and the tick interval.  With a 48 hour budget a 30s loop gets
// 5760 ticks and a 300s loop gets 576.
func Threshold(maxFailHours int, interval time.Duration) int {
	return maxFailHours * 3600 / int(interval/time.Second)
}

// Breaker counts consecutive failing ticks.  It exists to stop a loop
// from hammering the remote API during a sustained outage or after the
// endpoint it tracks has been deleted; the external scheduler restarts
// the process later, which starts a fresh count.
type Breaker struct {
	threshold int
	count     int
}

// NewBreaker returns a Breaker that trips once threshold consecutive
// failures have been observed.
func NewBreaker(threshold int) *Breaker {
	return &Breaker{threshold: threshold}
}

// Observe records the outcome of one tick.  A success resets the
// count to zero.
func (b *Breaker) Observe(failed bool) {
	if failed {
		b.count++
	} else {
		b.count = 0
	}
}

// Tripped reports whether the failure budget is exhausted.
func (b *Breaker) Tripped() bool {
	return b.count >= b.threshold
}

// Count returns the current consecutive-failure count.
func (b *Breaker) Count() int { return b.count }
