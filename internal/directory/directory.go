// Package directory talks to the remote service that owns development
// endpoints: describe/update operations on an endpoint's registered
// public keys, and tag lookups on the notebook resource.
//
// The Client interface keeps the reconcilers and the connection
// protocol free of SDK types; AWSClient is the production
// implementation on Glue and SageMaker.
package directory

import "context"

// UpdateStatus is the endpoint's last-update state as reported by the
// directory.  The empty string means the field was absent, which the
// directory uses for endpoints that have never been updated.
type UpdateStatus string

const (
	StatusNone       UpdateStatus = ""
	StatusInProgress UpdateStatus = "IN_PROGRESS"
	StatusCompleted  UpdateStatus = "COMPLETED"
	StatusFailed     UpdateStatus = "FAILED"
)

// Endpoint is the remote development target the notebook tunnels into.
type Endpoint struct {
	Name           string
	PrivateAddress string
	PublicAddress  string
	UpdateStatus   UpdateStatus
	PublicKeys     []string
}

// Address returns the address the tunnel should target, preferring the
// private address.
func (e Endpoint) Address() string {
	if e.PrivateAddress != "" {
		return e.PrivateAddress
	}
	return e.PublicAddress
}

// Updating reports whether another actor is currently mutating the
// endpoint.  An absent, completed, or failed status all mean the
// endpoint accepts updates.
func (e Endpoint) Updating() bool {
	switch e.UpdateStatus {
	case StatusNone, StatusCompleted, StatusFailed:
		return false
	}
	return true
}

// HasKey reports whether key is registered on the endpoint.
func (e Endpoint) HasKey(key string) bool {
	for _, k := range e.PublicKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Client exposes the directory operations nbtether consumes.
// Implementations absorb transient remote errors (throttling, 5xx)
// with bounded retries; errors that surface here are real.
type Client interface {
	// Describe fetches the endpoint's current state.  A deleted
	// endpoint yields an error satisfying errors.IsNotFound.
	Describe(ctx context.Context, name string) (Endpoint, error)

	// AddPublicKeys registers keys on the endpoint.  Registration has
	// set semantics: re-adding a present key is a no-op remotely.
	AddPublicKeys(ctx context.Context, name string, keys []string) error

	// DeletePublicKeys revokes keys from the endpoint.  Deleting an
	// absent key is a no-op remotely.
	DeletePublicKeys(ctx context.Context, name string, keys []string) error

	// DesiredTarget reads the endpoint name from the notebook's
	// resource tag.  An absent tag returns "" without error.
	DesiredTarget(ctx context.Context) (string, error)

	// SetConnectionTag records the connection state ("ready",
	// "disconnected", "switching") on the notebook resource.  Callers
	// treat failures as best-effort and swallow them.
	SetConnectionTag(ctx context.Context, value string) error
}
