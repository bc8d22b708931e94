// Package config defines the runtime configuration for nbtether and
// provides helpers for loading the directory endpoint override and
// validating the assembled configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds every tuneable for an nbtether process.
type Config struct {
	// ── Identity ─────────────────────────────────────────────────────
	IdentityPath string // resource-metadata JSON (name + ARN)
	NotebookName string // override; defaults to the identity file value

	// ── Files ────────────────────────────────────────────────────────
	BindingPath      string // persisted name of the bound endpoint
	TunnelTargetPath string // endpoint address consumed by the tunnel
	KeyDir           string // directory holding the local keypair
	KeyName          string // private key file name; public is KeyName+".pub"

	// ── Directory service ────────────────────────────────────────────
	DirectoryEndpoint     string // explicit directory API URL override
	DirectoryEndpointPath string // file holding the URL when no override
	EndpointTagKey        string // notebook tag naming the desired endpoint
	ConnectionTagKey      string // observability tag written best-effort

	// ── Liveness ─────────────────────────────────────────────────────
	LivenessURL  string // local HTTP address of the forwarded service
	ProbeTimeout time.Duration

	// ── Tunnel ───────────────────────────────────────────────────────
	TunnelMode      string // "exec" (external service) or "ssh" (in-process)
	TunnelStartCmd  string // exec mode: command line to start the tunnel
	TunnelStopCmd   string // exec mode: command line to stop the tunnel
	TunnelReloadCmd string // exec mode: optional pre-start reload command
	SSHUser         string // ssh mode: remote user
	SSHPort         int    // ssh mode: remote port
	LocalForward    string // ssh mode: local listen address
	RemoteForward   string // ssh mode: remote dial address

	// ── Reconcilers ──────────────────────────────────────────────────
	ReconnectInterval time.Duration
	SwitchInterval    time.Duration
	MaxFailHours      int
	HeartbeatInterval time.Duration

	// ── Ready-wait ───────────────────────────────────────────────────
	ReadyPollInterval time.Duration
	ReadyTimeout      time.Duration
	SettleDelay       time.Duration // pause between tunnel start and probe

	// ── Key ownership matching ───────────────────────────────────────
	MatchStrategy string // "comment" (exact) or "substring" (legacy)

	// ── Output ───────────────────────────────────────────────────────
	LogPath string // rotated log file; empty disables the file sink
	Verbose int
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		IdentityPath:          DefaultIdentityPath,
		BindingPath:           DefaultBindingPath,
		TunnelTargetPath:      DefaultTunnelTargetPath,
		KeyDir:                DefaultKeyDir,
		KeyName:               DefaultKeyName,
		DirectoryEndpointPath: DefaultDirectoryEndpointPath,
		EndpointTagKey:        DefaultEndpointTagKey,
		ConnectionTagKey:      DefaultConnectionTagKey,
		LivenessURL:           DefaultLivenessURL,
		ProbeTimeout:          DefaultProbeTimeout,
		TunnelMode:            TunnelModeExec,
		TunnelStartCmd:        DefaultTunnelStartCmd,
		TunnelStopCmd:         DefaultTunnelStopCmd,
		TunnelReloadCmd:       DefaultTunnelReloadCmd,
		SSHUser:               DefaultSSHUser,
		SSHPort:               DefaultSSHPort,
		LocalForward:          DefaultLocalForward,
		RemoteForward:         DefaultRemoteForward,
		ReconnectInterval:     DefaultReconnectInterval,
		SwitchInterval:        DefaultSwitchInterval,
		MaxFailHours:          DefaultMaxFailHours,
		HeartbeatInterval:     DefaultHeartbeatInterval,
		ReadyPollInterval:     DefaultReadyPollInterval,
		ReadyTimeout:          DefaultReadyTimeout,
		SettleDelay:           DefaultSettleDelay,
		MatchStrategy:         MatchStrategyComment,
		LogPath:               DefaultLogPath,
	}
}

// PrivateKeyPath returns the full path of the private key file.
func (c *Config) PrivateKeyPath() string {
	return filepath.Join(c.KeyDir, c.KeyName)
}

// PublicKeyPath returns the full path of the public key file.
func (c *Config) PublicKeyPath() string {
	return c.PrivateKeyPath() + ".pub"
}

// ResolveDirectoryEndpoint returns the directory API URL: an explicit
// override wins, otherwise the endpoint file is consulted, otherwise
// the SDK default applies (empty string).
func (c *Config) ResolveDirectoryEndpoint() (string, error) {
	if c.DirectoryEndpoint != "" {
		return c.DirectoryEndpoint, nil
	}
	if c.DirectoryEndpointPath == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.DirectoryEndpointPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading directory endpoint from %s: %w", c.DirectoryEndpointPath, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.BindingPath == "" {
		return fmt.Errorf("binding file path is required")
	}
	if c.KeyDir == "" || c.KeyName == "" {
		return fmt.Errorf("key directory and key name are required")
	}
	if c.LivenessURL == "" {
		return fmt.Errorf("liveness URL is required")
	}

	switch c.TunnelMode {
	case TunnelModeExec:
		if c.TunnelStartCmd == "" || c.TunnelStopCmd == "" {
			return fmt.Errorf("exec tunnel mode requires start and stop commands")
		}
	case TunnelModeSSH:
		if c.TunnelTargetPath == "" {
			return fmt.Errorf("ssh tunnel mode requires a tunnel target file")
		}
		if c.LocalForward == "" || c.RemoteForward == "" {
			return fmt.Errorf("ssh tunnel mode requires local and remote forward addresses")
		}
		if c.SSHPort < 1 || c.SSHPort > 65535 {
			return fmt.Errorf("ssh port %d out of range 1-65535", c.SSHPort)
		}
	default:
		return fmt.Errorf("unknown tunnel mode %q (want %q or %q)",
			c.TunnelMode, TunnelModeExec, TunnelModeSSH)
	}

	switch c.MatchStrategy {
	case MatchStrategyComment, MatchStrategySubstring:
	default:
		return fmt.Errorf("unknown match strategy %q (want %q or %q)",
			c.MatchStrategy, MatchStrategyComment, MatchStrategySubstring)
	}

	if c.ReconnectInterval <= 0 || c.SwitchInterval <= 0 {
		return fmt.Errorf("reconcile intervals must be positive")
	}
	if c.MaxFailHours <= 0 {
		return fmt.Errorf("max fail hours must be positive")
	}
	if c.ReadyPollInterval <= 0 || c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready-wait intervals must be positive")
	}
	if c.ReadyPollInterval > c.ReadyTimeout {
		return fmt.Errorf("ready poll interval %v exceeds overall timeout %v",
			c.ReadyPollInterval, c.ReadyTimeout)
	}
	return nil
}
