// Package binding persists the name of the endpoint the notebook last
// successfully connected to.
//
// The binding file doubles as the coordination point between the two
// reconciler processes: the switch reconciler clears it before tearing
// down the old endpoint so that a concurrently scheduled reconnect
// tick sees "unbound" and stays out of the way.  Writes go through a
// temp file and an atomic rename, so a reader never observes a
// half-written name.
package binding

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a file-backed, single-value store of the bound endpoint
// name.  The zero value is not usable; construct with New.
type Store struct {
	path string
}

// New returns a Store persisting at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the bound endpoint name, or "" when the notebook is
// unbound (file absent).  Read errors other than absence propagate.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading binding from %s: %w", s.path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save records name as the bound endpoint, replacing any previous
// value atomically.
func (s *Store) Save(name string) error {
	if name == "" {
		return fmt.Errorf("binding name must not be empty")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating binding directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".binding-*")
	if err != nil {
		return fmt.Errorf("creating binding temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(name); err != nil {
		tmp.Close()
		return fmt.Errorf("writing binding: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing binding temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing binding file %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the binding.  Clearing an already-unbound store is a
// no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing binding file %s: %w", s.path, err)
	}
	return nil
}
