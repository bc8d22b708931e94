package tunnel

// exec.go - tunnel control through an external forwarding service
// (autossh under the init system, historically).  The service reads
// the tunnel-target file itself; this controller only starts and
// stops it.

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	nberr "nbtether/internal/errors"
)

// Runner executes a command line.  It exists so tests can intercept
// the service-control commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// execRunner runs commands through os/exec.
type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w (output: %s)", name, err, strings.TrimSpace(string(out)))
	}
	if len(out) > 0 {
		r.logger.Debug("tunnel command output", "command", name, "output", strings.TrimSpace(string(out)))
	}
	return nil
}

// ExecController implements Controller with start/stop command lines.
type ExecController struct {
	startCmd  []string
	stopCmd   []string
	reloadCmd []string // optional, run before start
	runner    Runner
	logger    *slog.Logger
}

// NewExecController parses the configured command lines.  reloadCmd
// may be empty.
func NewExecController(startCmd, stopCmd, reloadCmd string, logger *slog.Logger) (*ExecController, error) {
	start := strings.Fields(startCmd)
	stop := strings.Fields(stopCmd)
	if len(start) == 0 || len(stop) == 0 {
		return nil, fmt.Errorf("tunnel start and stop commands are required")
	}
	return &ExecController{
		startCmd:  start,
		stopCmd:   stop,
		reloadCmd: strings.Fields(reloadCmd),
		runner:    execRunner{logger: logger},
		logger:    logger,
	}, nil
}

// SetRunner overrides the command runner.  Intended for tests.
func (c *ExecController) SetRunner(r Runner) { c.runner = r }

// Start implements Controller.
func (c *ExecController) Start(ctx context.Context) error {
	if len(c.reloadCmd) > 0 {
		if err := c.runner.Run(ctx, c.reloadCmd[0], c.reloadCmd[1:]...); err != nil {
			return nberr.WrapTunnel("start", "", err)
		}
	}
	c.logger.Info("starting tunnel service")
	if err := c.runner.Run(ctx, c.startCmd[0], c.startCmd[1:]...); err != nil {
		return nberr.WrapTunnel("start", "", err)
	}
	c.logger.Info("started tunnel service")
	return nil
}

// Stop implements Controller.  A failing stop command usually means
// the service was not running, so it is logged and not treated as an
// error.
func (c *ExecController) Stop(ctx context.Context) error {
	c.logger.Info("stopping tunnel service")
	if err := c.runner.Run(ctx, c.stopCmd[0], c.stopCmd[1:]...); err != nil {
		c.logger.Warn("tunnel stop command failed", "error", err)
		return nil
	}
	c.logger.Info("stopped tunnel service")
	return nil
}
