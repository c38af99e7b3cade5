package flatstate

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadNonexistentFile(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "nope", "state.yaml"), discard())
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	s := Load(path, discard())
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestLoadValidState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	content := "\"/data/blink1\": \"2025-09-01\"\n\"/data/blink2\": \"2025-08-15\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(path, discard())
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if got := s.Cutoff("/data/blink1"); got != "2025-09-01" {
		t.Errorf("blink1 cutoff = %q", got)
	}
	if got := s.Cutoff("/data/blink2"); got != "2025-08-15" {
		t.Errorf("blink2 cutoff = %q", got)
	}
}

func TestLoadInvalidFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte("- item1\n- item2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Load(path, discard())
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestLoadCoercesScalarValues(t *testing.T) {
	// An unquoted date comes back from the YAML parser as time.Time; it
	// must round-trip to YYYY-MM-DD or every inclusive cutoff comparison
	// downstream breaks. Other scalars stringify as written.
	content := "/data/blink: 2025-09-01\n" +
		"/data/quoted: \"2025-08-15\"\n" +
		"/data/odd: 42\n"
	path := filepath.Join(t.TempDir(), "state.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Load(path, discard())
	if got := s.Cutoff("/data/blink"); got != "2025-09-01" {
		t.Errorf("unquoted date cutoff = %q, want 2025-09-01", got)
	}
	if got := s.Cutoff("/data/quoted"); got != "2025-08-15" {
		t.Errorf("quoted date cutoff = %q, want 2025-08-15", got)
	}
	if got := s.Cutoff("/data/odd"); got != "42" {
		t.Errorf("scalar cutoff = %q, want 42", got)
	}
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	s := New()
	s.UpdateCutoff("/data/blink1", "2025-09-01")
	s.UpdateCutoff("/data/blink2", "2025-08-15")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(path, discard())
	if got := loaded.Cutoff("/data/blink1"); got != "2025-09-01" {
		t.Errorf("blink1 cutoff = %q", got)
	}
	if got := loaded.Cutoff("/data/blink2"); got != "2025-08-15" {
		t.Errorf("blink2 cutoff = %q", got)
	}
}

func TestSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "deep", "state.yaml")
	s := New()
	s.UpdateCutoff("key", "2025-01-01")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("state file missing: %v", err)
	}
}

func TestSaveOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	old := New()
	old.UpdateCutoff("/old", "2025-01-01")
	if err := old.Save(path); err != nil {
		t.Fatal(err)
	}

	fresh := New()
	fresh.UpdateCutoff("/new", "2025-02-02")
	if err := fresh.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded := Load(path, discard())
	if loaded.Cutoff("/old") != "" {
		t.Error("old entry should be gone")
	}
	if got := loaded.Cutoff("/new"); got != "2025-02-02" {
		t.Errorf("new cutoff = %q", got)
	}
}

func TestCutoffMissingKey(t *testing.T) {
	s := New()
	if got := s.Cutoff("/data/blink"); got != "" {
		t.Errorf("cutoff = %q, want empty", got)
	}
}

func TestUpdateCutoffNewEntry(t *testing.T) {
	s := New()
	s.UpdateCutoff("/data/blink", "2025-09-01")
	if got := s.Cutoff("/data/blink"); got != "2025-09-01" {
		t.Errorf("cutoff = %q", got)
	}
}

func TestUpdateCutoffAdvances(t *testing.T) {
	s := New()
	s.UpdateCutoff("/data/blink", "2025-08-01")
	s.UpdateCutoff("/data/blink", "2025-09-01")
	if got := s.Cutoff("/data/blink"); got != "2025-09-01" {
		t.Errorf("cutoff = %q, want 2025-09-01", got)
	}
}

func TestUpdateCutoffNeverRegresses(t *testing.T) {
	s := New()
	s.UpdateCutoff("/data/blink", "2025-09-01")
	s.UpdateCutoff("/data/blink", "2025-08-01")
	if got := s.Cutoff("/data/blink"); got != "2025-09-01" {
		t.Errorf("cutoff = %q, want 2025-09-01", got)
	}
}

func TestUpdateCutoffSameDate(t *testing.T) {
	s := New()
	s.UpdateCutoff("/data/blink", "2025-09-01")
	s.UpdateCutoff("/data/blink", "2025-09-01")
	if got := s.Cutoff("/data/blink"); got != "2025-09-01" {
		t.Errorf("cutoff = %q", got)
	}
}

func TestUpdateCutoffIndependentKeys(t *testing.T) {
	s := New()
	s.UpdateCutoff("/data/blink1", "2025-08-01")
	s.UpdateCutoff("/data/blink2", "2025-07-01")
	s.UpdateCutoff("/data/blink1", "2025-09-01")
	if got := s.Cutoff("/data/blink1"); got != "2025-09-01" {
		t.Errorf("blink1 = %q", got)
	}
	if got := s.Cutoff("/data/blink2"); got != "2025-07-01" {
		t.Errorf("blink2 = %q", got)
	}
}

func TestCloneIsIsolated(t *testing.T) {
	s := New()
	s.UpdateCutoff("/data/blink", "2025-08-01")

	c := s.Clone()
	c.UpdateCutoff("/data/blink", "2025-09-01")

	if got := s.Cutoff("/data/blink"); got != "2025-08-01" {
		t.Errorf("original mutated: %q", got)
	}
	if got := c.Cutoff("/data/blink"); got != "2025-09-01" {
		t.Errorf("clone cutoff = %q", got)
	}
}
