package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, environment variable loading, and tests.

// Tunnel modes.
const (
	// TunnelModeExec drives an external forwarding service (autossh
	// style) through start/stop command lines.
	TunnelModeExec = "exec"
	// TunnelModeSSH forwards a local port in-process over SSH.
	TunnelModeSSH = "ssh"
)

// Key ownership matching strategies.
const (
	// MatchStrategyComment matches a remote key when its comment field
	// equals the notebook name exactly.
	MatchStrategyComment = "comment"
	// MatchStrategySubstring matches a remote key when the notebook
	// name appears anywhere in the key text.  Kept for compatibility
	// with deployments that relied on the historical behavior.
	MatchStrategySubstring = "substring"
)

const (
	// DefaultReconnectInterval is the reconnect reconciler tick period.
	DefaultReconnectInterval = 300 * time.Second

	// DefaultSwitchInterval is the switch reconciler tick period.
	DefaultSwitchInterval = 30 * time.Second

	// DefaultMaxFailHours bounds how long a reconciler keeps retrying
	// consecutive failures before halting.
	DefaultMaxFailHours = 48

	// DefaultHeartbeatInterval is how often a healthy reconnect tick
	// additionally describes the bound endpoint.
	DefaultHeartbeatInterval = 3600 * time.Second

	// DefaultReadyPollInterval is the sub-interval of the ready-wait
	// state machine.
	DefaultReadyPollInterval = 5 * time.Second

	// DefaultReadyTimeout caps a single ready-wait.
	DefaultReadyTimeout = 600 * time.Second

	// DefaultSettleDelay is the pause between starting the tunnel and
	// the first liveness probe.
	DefaultSettleDelay = 10 * time.Second

	// DefaultProbeTimeout is the per-request liveness probe timeout.
	DefaultProbeTimeout = 10 * time.Second

	// DefaultWaitGateTimeout caps the blocking liveness gate.
	DefaultWaitGateTimeout = 1800 * time.Second

	// DefaultWaitGateInterval is the probe period of the liveness gate.
	DefaultWaitGateInterval = 5 * time.Second

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22
)

// File locations and service addresses.
const (
	DefaultIdentityPath          = "/opt/ml/metadata/resource-metadata.json"
	DefaultBindingPath           = "/home/ec2-user/glue/current_dev_endpoint"
	DefaultTunnelTargetPath      = "/home/ec2-user/glue/autossh.host"
	DefaultKeyDir                = "/home/ec2-user/glue/ssh"
	DefaultKeyName               = "glue_key"
	DefaultDirectoryEndpointPath = "/home/ec2-user/glue/glue_endpoint.txt"
	DefaultLivenessURL           = "http://localhost:8998"
	DefaultLogPath               = "/var/log/nbtether.log"
)

// Notebook tags.
const (
	DefaultEndpointTagKey   = "aws-glue-dev-endpoint"
	DefaultConnectionTagKey = "aws-glue-dev-endpoint-connection"
)

// Exec tunnel command lines.
const (
	DefaultTunnelStartCmd  = "/usr/bin/sudo /sbin/initctl start autossh"
	DefaultTunnelStopCmd   = "/usr/bin/sudo /sbin/initctl stop autossh"
	DefaultTunnelReloadCmd = "/usr/bin/sudo /sbin/initctl reload-configuration"
)

// SSH tunnel mode forwarding defaults.
const (
	DefaultSSHUser       = "glue"
	DefaultLocalForward  = "127.0.0.1:8998"
	DefaultRemoteForward = "127.0.0.1:8998"
)

// Log rotation, matching the size-based policy of the legacy daemon.
const (
	// DefaultLogMaxSizeMB is the rotation threshold per log file.
	DefaultLogMaxSizeMB = 100
	// DefaultLogMaxBackups is how many rotated files are kept.
	DefaultLogMaxBackups = 5
)
