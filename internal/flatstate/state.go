// Package flatstate persists the per-blink-directory flat cutoff dates.
//
// The state file is a YAML mapping of blink directory path to cutoff
// date. Flats from the cutoff date or later are valid candidates. The
// cutoff advances when an exact-match flat is used or the user picks one
// interactively, and never moves backward.
//
// File format:
//
//	"/data/RedCat51@f4.9+ASI2600MM/10_Blink": "2025-09-01"
package flatstate

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kielbrand/blinkcopy/internal/metadata"
)

// State maps blink directory paths (verbatim, representation preserved)
// to cutoff date strings. The zero value is not usable; call New or Load.
type State struct {
	cutoffs map[string]string
}

// New returns an empty state.
func New() *State {
	return &State{cutoffs: make(map[string]string)}
}

// Load reads the state file at path. It fails soft: a missing file
// yields an empty state, a file that is not a YAML mapping yields an
// empty state with a warning, and scalar values are coerced to strings.
func Load(path string, logger *slog.Logger) *State {
	s := New()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("state file unreadable, starting empty",
				slog.String("path", path), slog.String("error", err.Error()))
		}
		return s
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		logger.Warn("state file has unexpected format, starting empty",
			slog.String("path", path), slog.String("error", err.Error()))
		return s
	}
	for key, value := range raw {
		s.cutoffs[key] = coerceDate(value)
	}

	logger.Debug("loaded flat state", slog.String("path", path), slog.Int("entries", len(s.cutoffs)))
	return s
}

// Save writes the state to path, creating parent directories as needed.
// The write goes through a temp file and rename.
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("flatstate: mkdir: %w", err)
	}

	data, err := yaml.Marshal(s.cutoffs)
	if err != nil {
		return fmt.Errorf("flatstate: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".flatstate-tmp-*")
	if err != nil {
		return fmt.Errorf("flatstate: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("flatstate: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("flatstate: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("flatstate: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("flatstate: rename: %w", err)
	}
	success = true
	return nil
}

// coerceDate renders a YAML scalar as a cutoff string. Unquoted ISO
// dates come back from the parser as time.Time and must keep their
// YYYY-MM-DD form; other scalars stringify as written.
func coerceDate(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case time.Time:
		return v.Format(metadata.DateLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Cutoff returns the cutoff date for a blink directory, or "" when no
// cutoff is set (no floor).
func (s *State) Cutoff(blinkDir string) string {
	return s.cutoffs[blinkDir]
}

// UpdateCutoff advances the cutoff for a blink directory. The cutoff is
// monotonically non-decreasing: an older candidate date never lowers it,
// and a same-date update leaves it unchanged. ISO date strings compare
// lexically in chronological order.
func (s *State) UpdateCutoff(blinkDir, date string) {
	current, ok := s.cutoffs[blinkDir]
	if !ok || date >= current {
		s.cutoffs[blinkDir] = date
	}
}

// Clone returns a deep value copy. Dry runs operate on a clone taken
// before processing starts; the clone never merges back.
func (s *State) Clone() *State {
	c := New()
	for key, value := range s.cutoffs {
		c.cutoffs[key] = value
	}
	return c
}

// Len returns the number of entries.
func (s *State) Len() int {
	return len(s.cutoffs)
}
