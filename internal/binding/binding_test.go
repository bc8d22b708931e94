package binding

import (
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "current_endpoint"))
}

func TestLoad_AbsentMeansUnbound(t *testing.T) {
	s := newStore(t)
	name, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "" {
		t.Errorf("Load() = %q, want empty", name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newStore(t)
	if err := s.Save("ep-analytics"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	name, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if name != "ep-analytics" {
		t.Errorf("Load() = %q, want %q", name, "ep-analytics")
	}
}

func TestSave_OverwritesPrevious(t *testing.T) {
	s := newStore(t)
	if err := s.Save("ep-old"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save("ep-new"); err != nil {
		t.Fatal(err)
	}
	name, _ := s.Load()
	if name != "ep-new" {
		t.Errorf("Load() = %q, want %q", name, "ep-new")
	}
}

func TestSave_RejectsEmptyName(t *testing.T) {
	if err := newStore(t).Save(""); err == nil {
		t.Error("expected an error for empty name")
	}
}

func TestSave_CreatesParentDirectory(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "nested", "dir", "binding"))
	if err := s.Save("ep-a"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	name, _ := s.Load()
	if name != "ep-a" {
		t.Errorf("Load() = %q", name)
	}
}

func TestClear(t *testing.T) {
	s := newStore(t)
	if err := s.Save("ep-a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	name, err := s.Load()
	if err != nil {
		t.Fatalf("Load after Clear: %v", err)
	}
	if name != "" {
		t.Errorf("Load() = %q after Clear, want empty", name)
	}

	// Clearing again is a no-op.
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestLoad_TrimsTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binding")
	if err := os.WriteFile(path, []byte("ep-a\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	name, err := New(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if name != "ep-a" {
		t.Errorf("Load() = %q", name)
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(filepath.Join(dir, "binding"))
	if err := s.Save("ep-a"); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want just the binding file", len(entries))
	}
}
