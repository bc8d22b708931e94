// Package errors provides domain-specific error types for nbtether.
//
// These types carry structured context (operation, endpoint name) that
// lets the reconciler loops decide how to handle a failure and gives
// better diagnostics than plain string wrapping.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrEndpointNotFound means the remote endpoint no longer exists.
	ErrEndpointNotFound = errors.New("endpoint not found")
	// ErrUpdateFailed means the endpoint reported LastUpdateStatus=FAILED.
	ErrUpdateFailed = errors.New("endpoint update failed")
	// ErrTooManyFailures means a reconciler halted after sustained errors.
	ErrTooManyFailures = errors.New("too many consecutive failures")
	// ErrProbeTimeout means the liveness gate never saw a reachable service.
	ErrProbeTimeout = errors.New("liveness probe timed out")
)

// ── Structured error types ───────────────────────────────────────────

// DirectoryError represents a failed endpoint directory call.
type DirectoryError struct {
	Op       string // "describe", "add-keys", "delete-keys", "list-tags", "add-tags"
	Endpoint string // endpoint name or notebook ARN involved
	Err      error  // underlying error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory %s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// TunnelError represents a failure starting, stopping, or dialing the
// local secure tunnel.
type TunnelError struct {
	Op   string // "start", "stop", "dial", "forward"
	Addr string // target address, if known
	Err  error
}

func (e *TunnelError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("tunnel %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tunnel %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TunnelError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// WrapDirectory creates a DirectoryError.
func WrapDirectory(op, endpoint string, err error) *DirectoryError {
	return &DirectoryError{Op: op, Endpoint: endpoint, Err: err}
}

// WrapTunnel creates a TunnelError.
func WrapTunnel(op, addr string, err error) *TunnelError {
	return &TunnelError{Op: op, Addr: addr, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsNotFound reports whether err means the endpoint has been deleted.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEndpointNotFound)
}

// IsUpdateFailed reports whether err is a fatal FAILED update status.
func IsUpdateFailed(err error) bool {
	return errors.Is(err, ErrUpdateFailed)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use nbtether/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
