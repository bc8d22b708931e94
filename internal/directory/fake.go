package directory

// fake.go - an in-memory Client for tests in this and the dependent
// packages.  It mirrors the directory's set semantics for registered
// keys and counts mutating calls so tests can assert that a no-op
// tick really performed none.

import (
	"context"
	"sync"

	nberr "nbtether/internal/errors"
)

// Fake is an in-memory Client.  Safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	// Endpoints holds remote state by name.
	Endpoints map[string]*Endpoint
	// Desired is the value DesiredTarget reports.
	Desired string
	// ConnectionTag records the last SetConnectionTag value.
	ConnectionTag string

	// Error injection, applied to the matching operation.
	DescribeErr error
	AddErr      error
	DeleteErr   error
	TagsErr     error

	describeCalls int
	mutatingCalls int
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{Endpoints: make(map[string]*Endpoint)}
}

// AddEndpoint registers ep in the fake directory.
func (f *Fake) AddEndpoint(ep Endpoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := ep
	copied.PublicKeys = append([]string(nil), ep.PublicKeys...)
	f.Endpoints[ep.Name] = &copied
}

// SetStatus changes an endpoint's update status.
func (f *Fake) SetStatus(name string, status UpdateStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ep, ok := f.Endpoints[name]; ok {
		ep.UpdateStatus = status
	}
}

// DescribeCalls returns how many Describe calls were made.
func (f *Fake) DescribeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.describeCalls
}

// MutatingCalls returns how many key-mutating calls were made.
func (f *Fake) MutatingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutatingCalls
}

// Describe implements Client.
func (f *Fake) Describe(ctx context.Context, name string) (Endpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.describeCalls++

	if f.DescribeErr != nil {
		return Endpoint{}, f.DescribeErr
	}
	ep, ok := f.Endpoints[name]
	if !ok {
		return Endpoint{}, nberr.WrapDirectory("describe", name, nberr.ErrEndpointNotFound)
	}
	copied := *ep
	copied.PublicKeys = append([]string(nil), ep.PublicKeys...)
	return copied, nil
}

// AddPublicKeys implements Client with set semantics.
func (f *Fake) AddPublicKeys(ctx context.Context, name string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutatingCalls++

	if f.AddErr != nil {
		return f.AddErr
	}
	ep, ok := f.Endpoints[name]
	if !ok {
		return nberr.WrapDirectory("add-keys", name, nberr.ErrEndpointNotFound)
	}
	for _, key := range keys {
		present := false
		for _, k := range ep.PublicKeys {
			if k == key {
				present = true
				break
			}
		}
		if !present {
			ep.PublicKeys = append(ep.PublicKeys, key)
		}
	}
	return nil
}

// DeletePublicKeys implements Client with set semantics.
func (f *Fake) DeletePublicKeys(ctx context.Context, name string, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutatingCalls++

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	ep, ok := f.Endpoints[name]
	if !ok {
		return nberr.WrapDirectory("delete-keys", name, nberr.ErrEndpointNotFound)
	}
	remaining := ep.PublicKeys[:0]
	for _, k := range ep.PublicKeys {
		drop := false
		for _, key := range keys {
			if k == key {
				drop = true
				break
			}
		}
		if !drop {
			remaining = append(remaining, k)
		}
	}
	ep.PublicKeys = remaining
	return nil
}

// DesiredTarget implements Client.
func (f *Fake) DesiredTarget(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TagsErr != nil {
		return "", f.TagsErr
	}
	return f.Desired, nil
}

// SetConnectionTag implements Client.
func (f *Fake) SetConnectionTag(ctx context.Context, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TagsErr != nil {
		return f.TagsErr
	}
	f.ConnectionTag = value
	return nil
}
