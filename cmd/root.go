// Package cmd wires up the CLI flags and dispatches to the tethering
// subcommands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"nbtether/config"
	"nbtether/internal/binding"
	"nbtether/internal/clock"
	"nbtether/internal/connection"
	"nbtether/internal/directory"
	nberr "nbtether/internal/errors"
	"nbtether/internal/identity"
	"nbtether/internal/keys"
	"nbtether/internal/logging"
	"nbtether/internal/metrics"
	"nbtether/internal/reconcile"
	"nbtether/tunnel"
)

// version is overridable at link time:
//
//	go build -ldflags "-X nbtether/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the requested subcommand.
func Execute(ctx context.Context, args []string) error {
	cfg := config.New()
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("nbtether", flag.ContinueOnError)

	// ── identity ─────────────────────────────────────────────────
	fs.StringVar(&cfg.IdentityPath, "identity-file", cfg.IdentityPath, "Notebook resource-metadata JSON")
	fs.StringVar(&cfg.NotebookName, "notebook-name", cfg.NotebookName, "Override the notebook name from the identity file")

	// ── files ────────────────────────────────────────────────────
	fs.StringVar(&cfg.BindingPath, "binding-file", cfg.BindingPath, "File persisting the bound endpoint name")
	fs.StringVar(&cfg.TunnelTargetPath, "target-file", cfg.TunnelTargetPath, "File holding the tunnel target address")
	fs.StringVar(&cfg.KeyDir, "key-dir", cfg.KeyDir, "Directory for the SSH keypair")
	fs.StringVar(&cfg.KeyName, "key-name", cfg.KeyName, "Private key file name")

	// ── directory service ────────────────────────────────────────
	fs.StringVar(&cfg.DirectoryEndpoint, "directory-endpoint", cfg.DirectoryEndpoint, "Directory API URL (overrides the endpoint file)")
	fs.StringVar(&cfg.DirectoryEndpointPath, "directory-endpoint-file", cfg.DirectoryEndpointPath, "File holding the directory API URL")
	fs.StringVar(&cfg.EndpointTagKey, "endpoint-tag", cfg.EndpointTagKey, "Notebook tag naming the desired endpoint")

	// ── tunnel ───────────────────────────────────────────────────
	fs.StringVar(&cfg.TunnelMode, "tunnel-mode", cfg.TunnelMode, `Tunnel driver: "exec" or "ssh"`)
	fs.StringVar(&cfg.TunnelStartCmd, "tunnel-start-cmd", cfg.TunnelStartCmd, "Exec mode: tunnel start command")
	fs.StringVar(&cfg.TunnelStopCmd, "tunnel-stop-cmd", cfg.TunnelStopCmd, "Exec mode: tunnel stop command")
	fs.StringVar(&cfg.SSHUser, "ssh-user", cfg.SSHUser, "SSH mode: remote user")
	fs.IntVar(&cfg.SSHPort, "ssh-port", cfg.SSHPort, "SSH mode: remote port")

	// ── liveness ─────────────────────────────────────────────────
	fs.StringVar(&cfg.LivenessURL, "liveness-url", cfg.LivenessURL, "Local URL probed for tunnel liveness")

	// ── reconcile tuning ─────────────────────────────────────────
	reconnectSec := int(cfg.ReconnectInterval / time.Second)
	switchSec := int(cfg.SwitchInterval / time.Second)
	fs.IntVar(&reconnectSec, "reconnect-interval", reconnectSec, "Reconnect tick period in seconds")
	fs.IntVar(&switchSec, "switch-interval", switchSec, "Switch tick period in seconds")
	fs.IntVar(&cfg.MaxFailHours, "max-fail-hours", cfg.MaxFailHours, "Consecutive-failure budget in hours")

	// ── key matching ─────────────────────────────────────────────
	fs.StringVar(&cfg.MatchStrategy, "match", cfg.MatchStrategy, `Key ownership rule: "comment" or "substring"`)

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.LogPath, "log-file", cfg.LogPath, "Rotated log file (empty for stderr only)")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")

	var showVersion, showHelp, dryRun bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&dryRun, "dry-run", false, "Validate configuration and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("nbtether %s\n", version)
		return nil
	}

	cfg.ReconnectInterval = time.Duration(reconnectSec) * time.Second
	cfg.SwitchInterval = time.Duration(switchSec) * time.Second

	if err := cfg.Validate(); err != nil {
		return err
	}
	if dryRun {
		return nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(fs)
		return fmt.Errorf("subcommand required")
	}

	logger := logging.New(cfg)

	switch rest[0] {
	case "bootstrap":
		return runBootstrap(ctx, cfg, logger, rest[1:])
	case "reconnectd":
		return runReconnectd(ctx, cfg, logger)
	case "switchd":
		return runSwitchd(ctx, cfg, logger)
	case "wait":
		return runWait(ctx, cfg, logger)
	default:
		return fmt.Errorf("unknown subcommand %q (use --help for usage)", rest[0])
	}
}

// ── component wiring ─────────────────────────────────────────────────

type components struct {
	notebook string
	store    *binding.Store
	dir      directory.Client
	prober   *tunnel.Prober
	conn     *connection.Connector
	rotator  *keys.Rotator
	tun      tunnel.Controller
	metrics  *metrics.Collector
}

func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	id, err := identity.Load(cfg.IdentityPath)
	if err != nil {
		return nil, err
	}
	notebook := cfg.NotebookName
	if notebook == "" {
		notebook = id.Name
	}

	dir, err := directory.NewAWSClient(ctx, cfg, id.ARN)
	if err != nil {
		return nil, err
	}

	var tun tunnel.Controller
	switch cfg.TunnelMode {
	case config.TunnelModeSSH:
		tun = tunnel.NewSSHController(&tunnel.SSHConfig{
			TargetPath:    cfg.TunnelTargetPath,
			User:          cfg.SSHUser,
			Port:          cfg.SSHPort,
			KeyPath:       cfg.PrivateKeyPath(),
			LocalForward:  cfg.LocalForward,
			RemoteForward: cfg.RemoteForward,
		}, logger)
	default:
		tun, err = tunnel.NewExecController(
			cfg.TunnelStartCmd, cfg.TunnelStopCmd, cfg.TunnelReloadCmd, logger)
		if err != nil {
			return nil, err
		}
	}

	store := binding.New(cfg.BindingPath)
	rotator := keys.NewRotator(cfg.PrivateKeyPath(), cfg.PublicKeyPath(), notebook, logger)
	matcher := keys.NewMatcher(notebook, cfg.MatchStrategy == config.MatchStrategySubstring)
	prober := tunnel.NewProber(cfg.LivenessURL, cfg.ProbeTimeout, logger)
	collector := metrics.New()
	waiter := &directory.ReadyWaiter{
		Client:  dir,
		Clock:   clock.Real(),
		Logger:  logger,
		Poll:    cfg.ReadyPollInterval,
		Timeout: cfg.ReadyTimeout,
	}
	conn := &connection.Connector{
		Binding:     store,
		Keys:        rotator,
		Matcher:     matcher,
		Directory:   dir,
		Tunnel:      tun,
		Prober:      prober,
		Waiter:      waiter,
		Clock:       clock.Real(),
		Logger:      logger,
		Metrics:     collector,
		TargetPath:  cfg.TunnelTargetPath,
		SettleDelay: cfg.SettleDelay,
	}

	return &components{
		notebook: notebook,
		store:    store,
		dir:      dir,
		prober:   prober,
		conn:     conn,
		rotator:  rotator,
		tun:      tun,
		metrics:  collector,
	}, nil
}

// ── subcommands ──────────────────────────────────────────────────────

// runBootstrap performs the initial connect.  The endpoint may be
// named as a positional argument; otherwise the notebook's desired
// target tag decides.
func runBootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("bootstrap takes at most one endpoint name")
	}
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}

	name := ""
	if len(args) == 1 {
		name = args[0]
	}
	if name == "" {
		name, err = c.dir.DesiredTarget(ctx)
		if err != nil {
			return err
		}
	}
	if name == "" {
		logger.Info("no endpoint requested, nothing to do", "notebook", c.notebook)
		return nil
	}
	return c.conn.Connect(ctx, name)
}

func runReconnectd(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	loop := &reconcile.Loop{
		Name: "reconnect",
		Reconciler: &reconcile.Reconnector{
			Binding:           c.store,
			Keys:              c.rotator,
			Directory:         c.dir,
			Tunnel:            c.tun,
			Prober:            c.prober,
			Connector:         c.conn,
			Clock:             clock.Real(),
			Logger:            logger,
			Metrics:           c.metrics,
			SettleDelay:       cfg.SettleDelay,
			HeartbeatInterval: cfg.HeartbeatInterval,
		},
		Interval: cfg.ReconnectInterval,
		Breaker:  reconcile.NewBreaker(reconcile.Threshold(cfg.MaxFailHours, cfg.ReconnectInterval)),
		Clock:    clock.Real(),
		Logger:   logger,
		Metrics:  c.metrics,
	}
	return runLoop(ctx, loop)
}

func runSwitchd(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	c, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	loop := &reconcile.Loop{
		Name: "switch",
		Reconciler: &reconcile.Switcher{
			Binding:   c.store,
			Directory: c.dir,
			Connector: c.conn,
			Logger:    logger,
		},
		Interval: cfg.SwitchInterval,
		Breaker:  reconcile.NewBreaker(reconcile.Threshold(cfg.MaxFailHours, cfg.SwitchInterval)),
		Clock:    clock.Real(),
		Logger:   logger,
		Metrics:  c.metrics,
	}
	return runLoop(ctx, loop)
}

// runLoop treats signal-driven cancellation as a clean exit.
func runLoop(ctx context.Context, loop *reconcile.Loop) error {
	err := loop.Run(ctx)
	if nberr.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runWait blocks until the forwarded service answers or the gate times
// out.  Notebook lifecycle hooks use it to delay "ready" until the
// tunnel actually works.
func runWait(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	prober := tunnel.NewProber(cfg.LivenessURL, cfg.ProbeTimeout, logger)
	err := prober.WaitAlive(ctx, clock.Real(),
		config.DefaultWaitGateInterval, config.DefaultWaitGateTimeout)
	if nberr.Is(err, nberr.ErrProbeTimeout) {
		fmt.Fprintf(os.Stderr, `nbtether: the forwarded service did not answer within %v.

Things to check:
  - the development endpoint still exists and is in a READY state
  - the endpoint lists this notebook's public key (%s)
  - the directory API is not throttling requests from this account
  - the tunnel service is running and %s is reachable
  - recent errors in %s
`, config.DefaultWaitGateTimeout, cfg.PublicKeyPath(), cfg.LivenessURL, cfg.LogPath)
	}
	return err
}

// ── usage ────────────────────────────────────────────────────────────

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `nbtether – notebook to development endpoint tether v%s

Keeps a notebook instance connected to its development endpoint: key
rotation, SSH tunnel management, and background reconciliation.

Usage:
  nbtether [options] bootstrap [endpoint]   Connect once (endpoint from tag if omitted)
  nbtether [options] reconnectd             Run the tunnel-repair loop
  nbtether [options] switchd                Run the endpoint-switch loop
  nbtether [options] wait                   Block until the tunnel is live

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  nbtether bootstrap my-endpoint            Connect to a named endpoint
  nbtether --tunnel-mode ssh reconnectd     Repair loop with the in-process tunnel
  nbtether -vv switchd                      Switch loop with debug logging
  nbtether wait && start-kernel             Gate a dependent service on liveness
`)
}
