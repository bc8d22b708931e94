package tunnel

// fake.go - an in-memory Controller for tests in the dependent
// packages.

import (
	"context"
	"sync"
)

// FakeController implements Controller in memory.
type FakeController struct {
	mu       sync.Mutex
	running  bool
	starts   int
	stops    int
	StartErr error
	StopErr  error
}

// NewFakeController returns a stopped FakeController.
func NewFakeController() *FakeController {
	return &FakeController{}
}

// Start implements Controller.
func (f *FakeController) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.StartErr != nil {
		return f.StartErr
	}
	f.running = true
	return nil
}

// Stop implements Controller.
func (f *FakeController) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.StopErr != nil {
		return f.StopErr
	}
	f.running = false
	return nil
}

// Running reports whether the fake tunnel is up.
func (f *FakeController) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Starts returns how many Start calls were made.
func (f *FakeController) Starts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

// Stops returns how many Stop calls were made.
func (f *FakeController) Stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}
