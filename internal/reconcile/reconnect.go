package reconcile

import (
	"context"
	"log/slog"
	"time"

	"nbtether/internal/binding"
	"nbtether/internal/clock"
	"nbtether/internal/connection"
	"nbtether/internal/directory"
	"nbtether/internal/keys"
	"nbtether/internal/metrics"
	"nbtether/tunnel"
)

// Reconnector repairs tunnel liveness drift for the currently bound
// endpoint.  An unbound notebook makes every tick a no-op.
type Reconnector struct {
	Binding   *binding.Store
	Keys      *keys.Rotator
	Directory directory.Client
	Tunnel    tunnel.Controller
	Prober    connection.Prober
	Connector *connection.Connector
	Clock     clock.Clock
	Logger    *slog.Logger
	Metrics   *metrics.Collector

	// SettleDelay is the pause between a tunnel restart and the
	// follow-up probe.
	SettleDelay time.Duration

	// HeartbeatInterval bounds how often a healthy tick still
	// describes the bound endpoint, so a deleted endpoint is noticed
	// while the tunnel happens to stay up.  Zero disables the
	// heartbeat.
	HeartbeatInterval time.Duration

	lastHeartbeat time.Time
}

// Tick performs one reconnect pass.
func (r *Reconnector) Tick(ctx context.Context) error {
	name, err := r.Binding.Load()
	if err != nil {
		return err
	}
	if name == "" {
		r.Logger.Info("not bound to an endpoint, nothing to repair")
		return nil
	}

	if alive := r.Prober.Alive(ctx); alive {
		r.Metrics.ProbeCompleted(true)
		r.Logger.Debug("tunnel is live", "endpoint", name)
		return r.heartbeat(ctx, name)
	}
	r.Metrics.ProbeCompleted(false)
	r.Logger.Warn("tunnel is down", "endpoint", name)

	ep, err := r.Directory.Describe(ctx, name)
	if err != nil {
		return err
	}
	if ep.UpdateStatus == directory.StatusInProgress {
		// Another actor is mutating the endpoint; back off one tick.
		r.Logger.Info("endpoint update in progress, backing off", "endpoint", name)
		return nil
	}

	// If our key is still registered the endpoint side is intact and a
	// tunnel restart may be all that is needed.
	pub, err := r.Keys.CurrentPublicKey()
	if err != nil {
		r.Logger.Warn("no local public key, doing a full repair", "error", err)
	} else if ep.HasKey(pub) {
		r.Logger.Info("key still registered, restarting tunnel", "endpoint", name)
		if err := tunnel.Restart(ctx, r.Tunnel); err != nil {
			return err
		}
		r.Metrics.TunnelRestarted()
		r.Clock.Sleep(r.SettleDelay)
		if r.Prober.Alive(ctx) {
			r.Logger.Info("tunnel recovered", "endpoint", name)
			return nil
		}
		r.Logger.Warn("tunnel still down after restart", "endpoint", name)
	}

	// Full repair: tear the connection down and rebuild it against the
	// same endpoint.
	if err := r.Connector.Disconnect(ctx, name); err != nil {
		return err
	}
	return r.Connector.Connect(ctx, name)
}

// heartbeat describes the bound endpoint at most once per
// HeartbeatInterval so its deletion surfaces as a tick failure.
func (r *Reconnector) heartbeat(ctx context.Context, name string) error {
	if r.HeartbeatInterval <= 0 {
		return nil
	}
	now := r.Clock.Now()
	if !r.lastHeartbeat.IsZero() && now.Sub(r.lastHeartbeat) < r.HeartbeatInterval {
		return nil
	}
	if _, err := r.Directory.Describe(ctx, name); err != nil {
		return err
	}
	r.lastHeartbeat = now
	return nil
}
