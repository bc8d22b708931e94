// Package tunnel controls the local secure forwarding process that
// connects the notebook to the endpoint's address, and probes the
// forwarded service for liveness.
//
// Two controllers are provided: ExecController drives an external
// autossh-style system service through configured command lines, and
// SSHController forwards a local port in-process over SSH.  Both read
// their target from the tunnel-target file written by the connection
// protocol after a successful key registration.
package tunnel

import "context"

// Controller starts and stops the local tunnel.
type Controller interface {
	// Start brings the tunnel up toward the current target address.
	Start(ctx context.Context) error

	// Stop tears the tunnel down.  Stopping a tunnel that is not
	// running is a no-op.
	Stop(ctx context.Context) error
}

// Restart stops and then starts the tunnel.
func Restart(ctx context.Context, c Controller) error {
	if err := c.Stop(ctx); err != nil {
		return err
	}
	return c.Start(ctx)
}
