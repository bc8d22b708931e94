package tunnel

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nbtether/internal/clock"
	nberr "nbtether/internal/errors"
	"nbtether/internal/logging"
)

func TestProber_Alive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, logging.Discard())
	if !p.Alive(context.Background()) {
		t.Error("probe of a live server should succeed")
	}
}

func TestProber_ErrorResponseStillMeansAlive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, logging.Discard())
	if !p.Alive(context.Background()) {
		t.Error("an HTTP error response still proves the tunnel is up")
	}
}

// refusedURL returns a URL on a port that is guaranteed closed.
func refusedURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	url := "http://" + l.Addr().String()
	l.Close()
	return url
}

func TestProber_ConnectionRefusedMeansDead(t *testing.T) {
	p := NewProber(refusedURL(t), time.Second, logging.Discard())
	if p.Alive(context.Background()) {
		t.Error("probe of a closed port should fail")
	}
}

func TestWaitAlive_SucceedsOnceServerIsUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	p := NewProber(srv.URL, time.Second, logging.Discard())
	err := p.WaitAlive(context.Background(), clock.Real(), time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("WaitAlive: %v", err)
	}
}

func TestWaitAlive_TimesOut(t *testing.T) {
	p := NewProber(refusedURL(t), 50*time.Millisecond, logging.Discard())
	err := p.WaitAlive(context.Background(), clock.Real(), time.Millisecond, 30*time.Millisecond)
	if !nberr.Is(err, nberr.ErrProbeTimeout) {
		t.Fatalf("err = %v, want ErrProbeTimeout", err)
	}
}

func TestWaitAlive_ContextCancellation(t *testing.T) {
	p := NewProber(refusedURL(t), 50*time.Millisecond, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.WaitAlive(ctx, clock.Real(), time.Hour, 2*time.Hour)
	if err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
