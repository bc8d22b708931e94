package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := New()
	cfg.BindingPath = filepath.Join(t.TempDir(), "binding")
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig(t).Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing binding path", func(c *Config) { c.BindingPath = "" }},
		{"missing key dir", func(c *Config) { c.KeyDir = "" }},
		{"missing liveness URL", func(c *Config) { c.LivenessURL = "" }},
		{"unknown tunnel mode", func(c *Config) { c.TunnelMode = "teleport" }},
		{"exec mode without stop command", func(c *Config) { c.TunnelStopCmd = "" }},
		{"ssh mode without forwards", func(c *Config) {
			c.TunnelMode = TunnelModeSSH
			c.LocalForward = ""
		}},
		{"ssh port out of range", func(c *Config) {
			c.TunnelMode = TunnelModeSSH
			c.SSHPort = 70000
		}},
		{"unknown match strategy", func(c *Config) { c.MatchStrategy = "regex" }},
		{"zero switch interval", func(c *Config) { c.SwitchInterval = 0 }},
		{"zero max fail hours", func(c *Config) { c.MaxFailHours = 0 }},
		{"poll longer than timeout", func(c *Config) {
			c.ReadyPollInterval = 20 * time.Minute
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestKeyPaths(t *testing.T) {
	cfg := New()
	cfg.KeyDir = "/tmp/keys"
	cfg.KeyName = "tether_key"

	if got := cfg.PrivateKeyPath(); got != "/tmp/keys/tether_key" {
		t.Errorf("PrivateKeyPath() = %q", got)
	}
	if got := cfg.PublicKeyPath(); got != "/tmp/keys/tether_key.pub" {
		t.Errorf("PublicKeyPath() = %q", got)
	}
}

func TestResolveDirectoryEndpoint(t *testing.T) {
	t.Run("explicit override wins", func(t *testing.T) {
		cfg := New()
		cfg.DirectoryEndpoint = "https://glue.test.amazonaws.com"
		cfg.DirectoryEndpointPath = "/nonexistent"
		got, err := cfg.ResolveDirectoryEndpoint()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://glue.test.amazonaws.com" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("reads and trims the endpoint file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "endpoint.txt")
		if err := os.WriteFile(path, []byte("https://glue.us-west-2.amazonaws.com\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := New()
		cfg.DirectoryEndpointPath = path
		got, err := cfg.ResolveDirectoryEndpoint()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://glue.us-west-2.amazonaws.com" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("absent file means SDK default", func(t *testing.T) {
		cfg := New()
		cfg.DirectoryEndpointPath = filepath.Join(t.TempDir(), "missing.txt")
		got, err := cfg.ResolveDirectoryEndpoint()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "" {
			t.Errorf("got %q, want empty", got)
		}
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NBT_BINDING_FILE", "/tmp/b")
	t.Setenv("NBT_SWITCH_INTERVAL", "15")
	t.Setenv("NBT_MAX_FAIL_HOURS", "24")
	t.Setenv("NBT_TUNNEL_MODE", "ssh")
	t.Setenv("NBT_MATCH_STRATEGY", "substring")
	t.Setenv("NBT_NO_LOG_FILE", "true")
	t.Setenv("NBT_VERBOSE", "2")

	cfg := New()
	LoadFromEnv(cfg)

	if cfg.BindingPath != "/tmp/b" {
		t.Errorf("BindingPath = %q", cfg.BindingPath)
	}
	if cfg.SwitchInterval != 15*time.Second {
		t.Errorf("SwitchInterval = %v", cfg.SwitchInterval)
	}
	if cfg.MaxFailHours != 24 {
		t.Errorf("MaxFailHours = %d", cfg.MaxFailHours)
	}
	if cfg.TunnelMode != TunnelModeSSH {
		t.Errorf("TunnelMode = %q", cfg.TunnelMode)
	}
	if cfg.MatchStrategy != MatchStrategySubstring {
		t.Errorf("MatchStrategy = %q", cfg.MatchStrategy)
	}
	if cfg.LogPath != "" {
		t.Errorf("LogPath = %q, want empty", cfg.LogPath)
	}
	if cfg.Verbose != 2 {
		t.Errorf("Verbose = %d", cfg.Verbose)
	}
}

func TestLoadFromEnv_IgnoresEmptyAndInvalid(t *testing.T) {
	t.Setenv("NBT_SWITCH_INTERVAL", "not-a-number")
	cfg := New()
	LoadFromEnv(cfg)
	if cfg.SwitchInterval != DefaultSwitchInterval {
		t.Errorf("SwitchInterval = %v, want default", cfg.SwitchInterval)
	}
}
