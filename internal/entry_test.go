package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kielbrand/blinkcopy/internal/picker"
	"github.com/kielbrand/blinkcopy/internal/testutil"
)

type rejectAll struct{}

func (rejectAll) Select(_ string, list picker.List) (int, error) {
	return list.NoneIndex, nil
}

func fixtureDirs(t *testing.T) (libDir, blinkDir string) {
	t.Helper()
	libDir, blinkDir = t.TempDir(), t.TempDir()
	testutil.WriteFrame(t, filepath.Join(libDir, "masterFlat_Ha.fits"), testutil.Frame{
		Type: "Flat Field", Camera: "ASI2600MM", Optic: "RedCat51",
		Filter: "Ha", Gain: "100", FocalLen: "250", Date: "2025-08-10",
	})
	testutil.WriteFrame(t, filepath.Join(blinkDir, "light.fits"), testutil.Frame{
		Type: "Light Frame", Camera: "ASI2600MM", Optic: "RedCat51",
		Filter: "Ha", Gain: "100", FocalLen: "250", Exposure: "300", Date: "2025-08-20",
	})
	return libDir, blinkDir
}

func testConfig(libDir, blinkDir, statePath string) *Config {
	cfg := NewDefaultConfig()
	cfg.LibraryDir = libDir
	cfg.BlinkDir = blinkDir
	cfg.Flats.StatePath = statePath
	cfg.Run.Quiet = false
	return cfg
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("Run without config must fail")
	}
}

func TestRunRejectsMissingDirectories(t *testing.T) {
	cfg := testConfig(filepath.Join(t.TempDir(), "nope"), t.TempDir(), "")
	err := Run(context.Background(), WithConfig(cfg), WithSelector(rejectAll{}))
	if err == nil {
		t.Fatal("missing library dir must be fatal")
	}
}

func TestRunSavesState(t *testing.T) {
	libDir, blinkDir := fixtureDirs(t)
	statePath := filepath.Join(t.TempDir(), "flat_state.yaml")
	cfg := testConfig(libDir, blinkDir, statePath)

	err := Run(context.Background(), WithConfig(cfg), WithSelector(rejectAll{}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Rejecting the fallback advances the cutoff, which must be persisted.
	if _, err := os.Stat(statePath); err != nil {
		t.Errorf("state file not written: %v", err)
	}
}

func TestRunDryRunLeavesStateFileUntouched(t *testing.T) {
	libDir, blinkDir := fixtureDirs(t)
	statePath := filepath.Join(t.TempDir(), "flat_state.yaml")
	cfg := testConfig(libDir, blinkDir, statePath)
	cfg.Run.DryRun = true

	err := Run(context.Background(), WithConfig(cfg), WithSelector(rejectAll{}))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(statePath); !os.IsNotExist(err) {
		t.Errorf("dry run must not create the state file, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(blinkDir, "masterFlat_Ha.fits")); err == nil {
		t.Error("dry run must not copy masters")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("empty directories must not validate")
	}

	cfg.LibraryDir = "/lib"
	cfg.BlinkDir = "/blink"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	cfg.Flats.PickerLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Error("picker limit 0 must not validate")
	}
	cfg.Flats.PickerLimit = 51
	if err := cfg.Validate(); err == nil {
		t.Error("picker limit above 50 must not validate")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blinkcopy.yaml")
	content := "flats:\n  state_path: " + dir + "/state.yaml\n  picker_limit: 9\nrun:\n  allow_bias: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := LoadConfig(path, cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Flats.PickerLimit != 9 {
		t.Errorf("PickerLimit = %d, want 9", cfg.Flats.PickerLimit)
	}
	if !cfg.Run.AllowBias {
		t.Error("AllowBias not read")
	}
	if cfg.Flats.StatePath != dir+"/state.yaml" {
		t.Errorf("StatePath = %q", cfg.Flats.StatePath)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), cfg); err != nil {
		t.Fatalf("missing config file must not error: %v", err)
	}
	if cfg.Flats.PickerLimit != 5 {
		t.Errorf("defaults disturbed: PickerLimit = %d", cfg.Flats.PickerLimit)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("BLINKCOPY_TEST_STATE", "/tmp/expanded.yaml")
	path := filepath.Join(t.TempDir(), "blinkcopy.yaml")
	if err := os.WriteFile(path, []byte("flats:\n  state_path: ${BLINKCOPY_TEST_STATE}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := LoadConfig(path, cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Flats.StatePath != "/tmp/expanded.yaml" {
		t.Errorf("StatePath = %q, want env-expanded value", cfg.Flats.StatePath)
	}
}
