// Package connection implements the connect/disconnect protocol that
// binds the notebook to a development endpoint.
//
// Connect and Disconnect are both safe to re-run: key revocation and
// registration have set semantics on the endpoint, the keypair is
// regenerated from scratch on every connect, and the binding write is
// the last step of a successful connect.
package connection

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"nbtether/internal/binding"
	"nbtether/internal/clock"
	"nbtether/internal/directory"
	"nbtether/internal/keys"
	"nbtether/internal/metrics"
	"nbtether/tunnel"
)

// Prober reports whether the forwarded service is reachable.
type Prober interface {
	Alive(ctx context.Context) bool
}

// Connector composes the key rotator, tunnel controller, directory
// client, and binding store into the connect/disconnect sequences.
// All fields are required.
type Connector struct {
	Binding   *binding.Store
	Keys      *keys.Rotator
	Matcher   keys.Matcher
	Directory directory.Client
	Tunnel    tunnel.Controller
	Prober    Prober
	Waiter    *directory.ReadyWaiter
	Clock     clock.Clock
	Logger    *slog.Logger
	Metrics   *metrics.Collector

	// TargetPath is the tunnel-target file, written after a
	// successful key registration.
	TargetPath string

	// SettleDelay is how long to wait between starting the tunnel and
	// the first liveness probe.
	SettleDelay time.Duration
}

// Connect binds the notebook to the named endpoint: revoke stale keys,
// rotate the keypair, register the new public key, point the tunnel at
// the endpoint's address, start it, and persist the binding.
//
// The initial revocation is best-effort: a dead or inaccessible old
// endpoint must not block reconnection.  The first liveness probe is
// also best-effort; a reconciler tick retries if the tunnel is still
// down.
func (c *Connector) Connect(ctx context.Context, name string) error {
	c.Logger.Info("connecting to endpoint", "endpoint", name)

	if err := c.revokeOwnedKeys(ctx, name); err != nil {
		c.Logger.Error("failed to revoke stale keys, continuing", "endpoint", name, "error", err)
	}

	pub, err := c.Keys.Rotate()
	if err != nil {
		return fmt.Errorf("rotating keypair: %w", err)
	}

	if err := c.Waiter.Wait(ctx, name); err != nil {
		return err
	}
	c.Logger.Info("registering public key", "endpoint", name)
	if err := c.Directory.AddPublicKeys(ctx, name, []string{pub}); err != nil {
		return err
	}
	if err := c.Waiter.Wait(ctx, name); err != nil {
		return err
	}

	ep, err := c.Directory.Describe(ctx, name)
	if err != nil {
		return err
	}
	addr := ep.Address()
	if addr == "" {
		return fmt.Errorf("endpoint %s has no address", name)
	}
	if err := os.WriteFile(c.TargetPath, []byte(addr), 0o644); err != nil {
		return fmt.Errorf("writing tunnel target: %w", err)
	}
	c.Logger.Info("tunnel target saved", "endpoint", name, "addr", addr)

	if err := c.Tunnel.Start(ctx); err != nil {
		return err
	}
	c.Logger.Info("waiting for tunnel to settle", "delay", c.SettleDelay)
	c.Clock.Sleep(c.SettleDelay)

	alive := c.Prober.Alive(ctx)
	c.Metrics.ProbeCompleted(alive)
	if !alive {
		// First-attempt best-effort: a later reconciler tick repairs
		// the tunnel if it is still down.
		c.Logger.Warn("liveness probe failed after connect", "endpoint", name)
	}

	if err := c.Binding.Save(name); err != nil {
		return err
	}
	c.setConnectionTag(ctx, "ready")
	c.Metrics.ConnectCompleted()
	c.Logger.Info("connected to endpoint", "endpoint", name)
	return nil
}

// Disconnect unbinds the notebook from the named endpoint: clear the
// binding, revoke the notebook's keys, stop the tunnel, and record the
// state tag.
//
// The binding is cleared first so that a concurrently scheduled
// reconnect tick sees "unbound" and does not race to repair a target
// that is being torn down.
func (c *Connector) Disconnect(ctx context.Context, name string) error {
	c.Logger.Info("disconnecting from endpoint", "endpoint", name)

	if err := c.Binding.Clear(); err != nil {
		return err
	}

	if err := c.revokeOwnedKeys(ctx, name); err != nil {
		c.Logger.Error("failed to revoke keys, continuing", "endpoint", name, "error", err)
	}

	if err := c.Tunnel.Stop(ctx); err != nil {
		return err
	}

	c.setConnectionTag(ctx, "disconnected")
	c.Metrics.DisconnectCompleted()
	c.Logger.Info("disconnected from endpoint", "endpoint", name)
	return nil
}

// ── internal ─────────────────────────────────────────────────────────

// revokeOwnedKeys deletes every key on the endpoint that belongs to
// this notebook, including leftovers from notebooks that shared its
// name.
func (c *Connector) revokeOwnedKeys(ctx context.Context, name string) error {
	ep, err := c.Directory.Describe(ctx, name)
	if err != nil {
		return err
	}
	owned := c.Matcher.Owned(ep.PublicKeys)
	if len(owned) == 0 {
		c.Logger.Info("no keys to revoke", "endpoint", name)
		return nil
	}

	if err := c.Waiter.Wait(ctx, name); err != nil {
		return err
	}
	c.Logger.Info("revoking keys", "endpoint", name, "count", len(owned))
	if err := c.Directory.DeletePublicKeys(ctx, name, owned); err != nil {
		return err
	}
	return c.Waiter.Wait(ctx, name)
}

// setConnectionTag records the connection state on the notebook
// resource.  Tag failures must never affect connect or disconnect.
func (c *Connector) setConnectionTag(ctx context.Context, value string) {
	if err := c.Directory.SetConnectionTag(ctx, value); err != nil {
		c.Logger.Error("failed to update connection tag", "value", value, "error", err)
	}
}
