// Package metrics provides lightweight counters for tracking the
// runtime behavior of the nbtether daemons.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks reconciliation and connection statistics.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	ticksTotal     atomic.Int64
	tickFailures   atomic.Int64
	connects       atomic.Int64
	disconnects    atomic.Int64
	tunnelRestarts atomic.Int64
	probes         atomic.Int64
	probeFailures  atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastTick     time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Tick metrics ─────────────────────────────────────────────────────

// TickCompleted records a reconciler tick; failed marks whether it
// ended in a counted failure.
func (c *Collector) TickCompleted(failed bool) {
	if c == nil {
		return
	}
	c.ticksTotal.Add(1)
	if failed {
		c.tickFailures.Add(1)
	}
	c.mu.Lock()
	c.lastTick = time.Now()
	c.mu.Unlock()
}

// Ticks returns the lifetime tick count.
func (c *Collector) Ticks() int64 {
	if c == nil {
		return 0
	}
	return c.ticksTotal.Load()
}

// TickFailures returns the lifetime failed-tick count.
func (c *Collector) TickFailures() int64 {
	if c == nil {
		return 0
	}
	return c.tickFailures.Load()
}

// ── Connection metrics ───────────────────────────────────────────────

// ConnectCompleted records a successful connect.
func (c *Collector) ConnectCompleted() {
	if c == nil {
		return
	}
	c.connects.Add(1)
}

// DisconnectCompleted records a disconnect.
func (c *Collector) DisconnectCompleted() {
	if c == nil {
		return
	}
	c.disconnects.Add(1)
}

// TunnelRestarted records a stop/start cycle of the tunnel.
func (c *Collector) TunnelRestarted() {
	if c == nil {
		return
	}
	c.tunnelRestarts.Add(1)
}

// Connects returns the lifetime connect count.
func (c *Collector) Connects() int64 {
	if c == nil {
		return 0
	}
	return c.connects.Load()
}

// Disconnects returns the lifetime disconnect count.
func (c *Collector) Disconnects() int64 {
	if c == nil {
		return 0
	}
	return c.disconnects.Load()
}

// TunnelRestarts returns the lifetime tunnel restart count.
func (c *Collector) TunnelRestarts() int64 {
	if c == nil {
		return 0
	}
	return c.tunnelRestarts.Load()
}

// ── Probe metrics ────────────────────────────────────────────────────

// ProbeCompleted records a liveness probe and its outcome.
func (c *Collector) ProbeCompleted(alive bool) {
	if c == nil {
		return
	}
	c.probes.Add(1)
	if !alive {
		c.probeFailures.Add(1)
	}
}

// Probes returns the lifetime probe count.
func (c *Collector) Probes() int64 {
	if c == nil {
		return 0
	}
	return c.probes.Load()
}

// ProbeFailures returns how many probes found the tunnel dead.
func (c *Collector) ProbeFailures() int64 {
	if c == nil {
		return 0
	}
	return c.probeFailures.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError stores the most recent error message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	Ticks            int64  `json:"ticks"`
	TickFailures     int64  `json:"tick_failures"`
	Connects         int64  `json:"connects"`
	Disconnects      int64  `json:"disconnects"`
	TunnelRestarts   int64  `json:"tunnel_restarts"`
	Probes           int64  `json:"probes"`
	ProbeFailures    int64  `json:"probe_failures"`
	LastTick         string `json:"last_tick,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:           time.Since(c.startTime).Truncate(time.Second).String(),
		Ticks:            c.ticksTotal.Load(),
		TickFailures:     c.tickFailures.Load(),
		Connects:         c.connects.Load(),
		Disconnects:      c.disconnects.Load(),
		TunnelRestarts:   c.tunnelRestarts.Load(),
		Probes:           c.probes.Load(),
		ProbeFailures:    c.probeFailures.Load(),
		LastErrorMessage: c.lastErrorMsg,
	}
	if !c.lastTick.IsZero() {
		s.LastTick = c.lastTick.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
	}
	return s
}

// JSON renders the snapshot for logging.
func (c *Collector) JSON() string {
	b, err := json.Marshal(c.Snapshot())
	if err != nil {
		return "{}"
	}
	return string(b)
}
