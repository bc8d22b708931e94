package tunnel

// ssh.go - in-process tunnel on golang.org/x/crypto/ssh: dial the
// endpoint address from the tunnel-target file with the rotated
// private key, listen on the local forward address, and pipe each
// accepted connection to the remote forward address.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	nberr "nbtether/internal/errors"
	"nbtether/internal/retry"
)

// SSHConfig holds everything needed to run the in-process tunnel.
type SSHConfig struct {
	TargetPath    string // file holding the endpoint address
	User          string
	Port          int
	KeyPath       string // rotated private key
	LocalForward  string // local listen address, e.g. 127.0.0.1:8998
	RemoteForward string // remote dial address, e.g. 127.0.0.1:8998
	ConnTimeout   time.Duration
}

// SSHController implements Controller with an SSH client connection
// and a local forwarding listener.
type SSHController struct {
	config *SSHConfig
	logger *slog.Logger

	mu       sync.Mutex
	client   *ssh.Client
	listener net.Listener
	done     chan struct{}
}

// NewSSHController creates a controller that is ready to Start.
func NewSSHController(cfg *SSHConfig, logger *slog.Logger) *SSHController {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHController{config: cfg, logger: logger}
}

// Start implements Controller.
func (c *SSHController) Start(ctx context.Context) error {
	target, err := c.readTarget()
	if err != nil {
		return nberr.WrapTunnel("start", "", err)
	}
	addr := fmt.Sprintf("%s:%d", target, c.config.Port)

	signer, err := c.loadSigner()
	if err != nil {
		return nberr.WrapTunnel("start", addr, err)
	}

	sshCfg := &ssh.ClientConfig{
		User: c.config.User,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// The endpoint's host key changes on every rebuild and there
		// is no distribution channel for it.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         c.config.ConnTimeout,
	}

	c.logger.Debug("dialing endpoint", "addr", addr, "user", c.config.User)

	// A freshly updated endpoint can refuse connections for a short
	// while after the key registration completes.
	var client *ssh.Client
	backoff := &retry.Backoff{
		InitialDelay: time.Second,
		MaxDelay:     15 * time.Second,
		MaxAttempts:  4,
		Jitter:       true,
	}
	err = backoff.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			c.logger.Warn("retrying endpoint dial", "addr", addr, "attempt", attempt)
		}
		var dialer net.Dialer
		tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
		if err != nil {
			tcpConn.Close()
			return err
		}
		client = ssh.NewClient(sshConn, chans, reqs)
		return nil
	})
	if err != nil {
		return nberr.WrapTunnel("dial", addr, err)
	}

	listener, err := net.Listen("tcp", c.config.LocalForward)
	if err != nil {
		client.Close()
		return nberr.WrapTunnel("start", c.config.LocalForward, err)
	}

	c.mu.Lock()
	c.client = client
	c.listener = listener
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.acceptLoop(client, listener, done)

	c.logger.Info("tunnel up", "target", addr, "local", c.config.LocalForward)
	return nil
}

// Stop implements Controller.
func (c *SSHController) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	if c.listener != nil {
		c.listener.Close()
		c.listener = nil
	}
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		if err != nil && err != io.EOF {
			c.logger.Debug("closing tunnel client", "error", err)
		}
	}
	return nil
}

// ── internal ─────────────────────────────────────────────────────────

func (c *SSHController) readTarget() (string, error) {
	data, err := os.ReadFile(c.config.TargetPath)
	if err != nil {
		return "", fmt.Errorf("reading tunnel target: %w", err)
	}
	target := strings.TrimSpace(string(data))
	if target == "" {
		return "", fmt.Errorf("tunnel target file %s is empty", c.config.TargetPath)
	}
	return target, nil
}

func (c *SSHController) loadSigner() (ssh.Signer, error) {
	data, err := os.ReadFile(c.config.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return signer, nil
}

func (c *SSHController) acceptLoop(client *ssh.Client, listener net.Listener, done chan struct{}) {
	for {
		local, err := listener.Accept()
		if err != nil {
			select {
			case <-done:
			default:
				c.logger.Debug("tunnel accept ended", "error", err)
			}
			return
		}
		go c.forward(client, local)
	}
}

func (c *SSHController) forward(client *ssh.Client, local net.Conn) {
	defer local.Close()

	remote, err := client.Dial("tcp", c.config.RemoteForward)
	if err != nil {
		c.logger.Warn("tunnel forward failed", "remote", c.config.RemoteForward, "error", err)
		return
	}
	defer remote.Close()

	dataDone := make(chan struct{}, 2)
	go func() {
		io.Copy(remote, local) //nolint:errcheck
		dataDone <- struct{}{}
	}()
	go func() {
		io.Copy(local, remote) //nolint:errcheck
		dataDone <- struct{}{}
	}()
	<-dataDone
}
