package tunnel

// probe.go - liveness probing of the forwarded service.  Any HTTP
// response, including an error status, proves the tunnel is carrying
// traffic; only a transport-level failure counts as disconnected.

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"nbtether/internal/clock"
	nberr "nbtether/internal/errors"
)

// Prober checks whether the forwarded service is reachable locally.
type Prober struct {
	URL    string
	Logger *slog.Logger
	client *http.Client
}

// NewProber builds a Prober for the local liveness URL.
func NewProber(url string, timeout time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		URL:    url,
		Logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// Alive probes once.
func (p *Prober) Alive(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		p.Logger.Debug("building probe request", "url", p.URL, "error", err)
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.Logger.Debug("liveness probe failed", "url", p.URL, "error", err)
		return false
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()
	return true
}

// WaitAlive probes every interval until a probe succeeds or timeout
// elapses, returning errors.ErrProbeTimeout on exhaustion.  It is the
// blocking gate used at notebook startup.
func (p *Prober) WaitAlive(ctx context.Context, clk clock.Clock, interval, timeout time.Duration) error {
	deadline := clk.Now().Add(timeout)

	for clk.Now().Before(deadline) {
		if p.Alive(ctx) {
			p.Logger.Info("liveness probe succeeded", "url", p.URL)
			return nil
		}
		p.Logger.Info("liveness probe failed, retrying", "url", p.URL, "interval", interval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(interval):
		}
	}
	return fmt.Errorf("%w after %v probing %s", nberr.ErrProbeTimeout, timeout, p.URL)
}
