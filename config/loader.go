package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the NBT_ prefix.  Boolean values accept
// "1", "true", "yes" (case-insensitive).  Durations are in seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	// Identity and files
	if v := os.Getenv("NBT_IDENTITY_FILE"); v != "" {
		cfg.IdentityPath = v
	}
	if v := os.Getenv("NBT_NOTEBOOK_NAME"); v != "" {
		cfg.NotebookName = v
	}
	if v := os.Getenv("NBT_BINDING_FILE"); v != "" {
		cfg.BindingPath = v
	}
	if v := os.Getenv("NBT_TUNNEL_TARGET_FILE"); v != "" {
		cfg.TunnelTargetPath = v
	}
	if v := os.Getenv("NBT_KEY_DIR"); v != "" {
		cfg.KeyDir = v
	}
	if v := os.Getenv("NBT_KEY_NAME"); v != "" {
		cfg.KeyName = v
	}

	// Directory service
	if v := os.Getenv("NBT_DIRECTORY_ENDPOINT"); v != "" {
		cfg.DirectoryEndpoint = v
	}
	if v := os.Getenv("NBT_DIRECTORY_ENDPOINT_FILE"); v != "" {
		cfg.DirectoryEndpointPath = v
	}
	if v := os.Getenv("NBT_ENDPOINT_TAG_KEY"); v != "" {
		cfg.EndpointTagKey = v
	}
	if v := os.Getenv("NBT_CONNECTION_TAG_KEY"); v != "" {
		cfg.ConnectionTagKey = v
	}

	// Liveness
	if v := os.Getenv("NBT_LIVENESS_URL"); v != "" {
		cfg.LivenessURL = v
	}
	if v := envSeconds("NBT_PROBE_TIMEOUT"); v > 0 {
		cfg.ProbeTimeout = v
	}

	// Tunnel
	if v := os.Getenv("NBT_TUNNEL_MODE"); v != "" {
		cfg.TunnelMode = v
	}
	if v := os.Getenv("NBT_TUNNEL_START_CMD"); v != "" {
		cfg.TunnelStartCmd = v
	}
	if v := os.Getenv("NBT_TUNNEL_STOP_CMD"); v != "" {
		cfg.TunnelStopCmd = v
	}
	if v := os.Getenv("NBT_TUNNEL_RELOAD_CMD"); v != "" {
		cfg.TunnelReloadCmd = v
	}
	if v := os.Getenv("NBT_SSH_USER"); v != "" {
		cfg.SSHUser = v
	}
	if v := envInt("NBT_SSH_PORT"); v > 0 {
		cfg.SSHPort = v
	}
	if v := os.Getenv("NBT_LOCAL_FORWARD"); v != "" {
		cfg.LocalForward = v
	}
	if v := os.Getenv("NBT_REMOTE_FORWARD"); v != "" {
		cfg.RemoteForward = v
	}

	// Reconcilers
	if v := envSeconds("NBT_RECONNECT_INTERVAL"); v > 0 {
		cfg.ReconnectInterval = v
	}
	if v := envSeconds("NBT_SWITCH_INTERVAL"); v > 0 {
		cfg.SwitchInterval = v
	}
	if v := envInt("NBT_MAX_FAIL_HOURS"); v > 0 {
		cfg.MaxFailHours = v
	}
	if v := envSeconds("NBT_HEARTBEAT_INTERVAL"); v > 0 {
		cfg.HeartbeatInterval = v
	}

	// Ready-wait
	if v := envSeconds("NBT_READY_POLL_INTERVAL"); v > 0 {
		cfg.ReadyPollInterval = v
	}
	if v := envSeconds("NBT_READY_TIMEOUT"); v > 0 {
		cfg.ReadyTimeout = v
	}
	if v := envSeconds("NBT_SETTLE_DELAY"); v > 0 {
		cfg.SettleDelay = v
	}

	// Key matching
	if v := os.Getenv("NBT_MATCH_STRATEGY"); v != "" {
		cfg.MatchStrategy = v
	}

	// Output
	if v := os.Getenv("NBT_LOG_FILE"); v != "" {
		cfg.LogPath = v
	}
	if envBool("NBT_NO_LOG_FILE") {
		cfg.LogPath = ""
	}
	if v := envInt("NBT_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envSeconds(key string) time.Duration {
	return time.Duration(envInt(key)) * time.Second
}
