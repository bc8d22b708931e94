package reconcile

import (
	"context"
	"log/slog"

	"nbtether/internal/binding"
	"nbtether/internal/connection"
	"nbtether/internal/directory"
)

// Switcher moves the notebook between endpoints when the desired
// target recorded on the notebook resource stops matching the current
// binding.
type Switcher struct {
	Binding   *binding.Store
	Directory directory.Client
	Connector *connection.Connector
	Logger    *slog.Logger
}

// Tick performs one switch pass.  Disconnect clears the binding before
// touching the endpoint, so a reconnect tick that fires mid-switch
// sees the notebook as unbound instead of repairing the outgoing
// target.
func (s *Switcher) Tick(ctx context.Context) error {
	current, err := s.Binding.Load()
	if err != nil {
		return err
	}
	desired, err := s.Directory.DesiredTarget(ctx)
	if err != nil {
		return err
	}
	if current == desired {
		s.Logger.Debug("binding matches desired target", "endpoint", current)
		return nil
	}

	s.Logger.Info("switching endpoints", "from", current, "to", desired)
	if current != "" {
		if err := s.Connector.Disconnect(ctx, current); err != nil {
			return err
		}
	}
	if desired != "" {
		return s.Connector.Connect(ctx, desired)
	}
	return nil
}
