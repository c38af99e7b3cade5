// Package library scans a calibration library and answers master-frame
// searches. Classification is header-derived only; the directory layout
// of the library carries no meaning.
package library

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kielbrand/blinkcopy/internal/metadata"
)

// Target is the per-kind search subset of a light group's metadata. An
// empty field is a wildcard that matches any library value.
type Target struct {
	Camera          string
	Optic           string
	Filter          string
	Gain            string
	Offset          string
	SetTemp         string
	ReadoutMode     string
	FocalLen        string
	ExposureSeconds string
}

// DarkTarget derives the dark search target: filter, optic and focal
// length do not apply to darks.
func DarkTarget(rec metadata.Record) Target {
	return Target{
		Camera:          rec.Camera,
		Gain:            rec.Gain,
		Offset:          rec.Offset,
		SetTemp:         rec.SetTemp,
		ReadoutMode:     rec.ReadoutMode,
		ExposureSeconds: rec.ExposureSeconds,
	}
}

// BiasTarget derives the bias search target: no exposure dimension.
func BiasTarget(rec metadata.Record) Target {
	return Target{
		Camera:      rec.Camera,
		Gain:        rec.Gain,
		Offset:      rec.Offset,
		SetTemp:     rec.SetTemp,
		ReadoutMode: rec.ReadoutMode,
	}
}

// FlatTarget derives the flat search target for one filter: exposure
// does not apply to flats.
func FlatTarget(rec metadata.Record, filter string) Target {
	return Target{
		Camera:      rec.Camera,
		Optic:       rec.Optic,
		Filter:      filter,
		Gain:        rec.Gain,
		Offset:      rec.Offset,
		SetTemp:     rec.SetTemp,
		ReadoutMode: rec.ReadoutMode,
		FocalLen:    rec.FocalLen,
	}
}

// Library holds the master frames found in one scan. Nothing is cached
// across runs; every run scans fresh.
type Library struct {
	darks []metadata.Record
	flats []metadata.Record
	bias  []metadata.Record
}

// frameExts are the file extensions considered during a scan.
var frameExts = map[string]bool{
	".fits": true,
	".fit":  true,
	".fts":  true,
	".xisf": true,
}

// Scan walks dir and extracts metadata from every frame file. Files that
// fail extraction are skipped with a warning; light or unclassifiable
// frames in the library are ignored.
func Scan(dir string, logger *slog.Logger) (*Library, error) {
	lib := &Library{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !frameExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		rec, err := metadata.Extract(p)
		if err != nil {
			logger.Warn("skipping unreadable frame", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		switch rec.Kind {
		case metadata.KindDark:
			lib.darks = append(lib.darks, rec)
		case metadata.KindFlat:
			lib.flats = append(lib.flats, rec)
		case metadata.KindBias:
			lib.bias = append(lib.bias, rec)
		default:
			logger.Debug("ignoring non-master frame in library", slog.String("path", p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Deterministic search order regardless of filesystem iteration.
	for _, recs := range [][]metadata.Record{lib.darks, lib.flats, lib.bias} {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Path < recs[j].Path })
	}

	logger.Debug("library scanned",
		slog.Int("darks", len(lib.darks)),
		slog.Int("flats", len(lib.flats)),
		slog.Int("bias", len(lib.bias)))
	return lib, nil
}

// matches reports whether a record satisfies a target. Empty target
// fields are wildcards; the exposure field is only compared when the
// target carries one.
func matches(rec metadata.Record, t Target) bool {
	pairs := [][2]string{
		{t.Camera, rec.Camera},
		{t.Optic, rec.Optic},
		{t.Filter, rec.Filter},
		{t.Gain, rec.Gain},
		{t.Offset, rec.Offset},
		{t.SetTemp, rec.SetTemp},
		{t.ReadoutMode, rec.ReadoutMode},
		{t.FocalLen, rec.FocalLen},
		{t.ExposureSeconds, rec.ExposureSeconds},
	}
	for _, p := range pairs {
		if p[0] != "" && p[0] != p[1] {
			return false
		}
	}
	return true
}

// FindDarks returns every dark matching the target's non-exposure
// fields. The caller applies the exposure policy.
func (l *Library) FindDarks(t Target) []metadata.Record {
	noExp := t
	noExp.ExposureSeconds = ""
	var out []metadata.Record
	for _, rec := range l.darks {
		if matches(rec, noExp) {
			out = append(out, rec)
		}
	}
	return out
}

// FindBias returns the first bias matching the target exactly, or an
// empty record.
func (l *Library) FindBias(t Target) (metadata.Record, bool) {
	for _, rec := range l.bias {
		if matches(rec, t) {
			return rec, true
		}
	}
	return metadata.Record{}, false
}

// FindFlatForDate returns the flat matching the target at one specific
// date, or an empty record.
func (l *Library) FindFlatForDate(t Target, date string) (metadata.Record, bool) {
	for _, rec := range l.flats {
		if rec.Date == date && matches(rec, t) {
			return rec, true
		}
	}
	return metadata.Record{}, false
}

// FindCandidateFlatDates returns every distinct flat date matching the
// target's non-date fields at or after the cutoff. An empty cutoff means
// no floor. One representative path is kept per date.
func (l *Library) FindCandidateFlatDates(t Target, cutoff string) map[string]string {
	candidates := make(map[string]string)
	for _, rec := range l.flats {
		if rec.Date == "" || !matches(rec, t) {
			continue
		}
		if cutoff != "" && rec.Date < cutoff {
			continue
		}
		if _, ok := candidates[rec.Date]; !ok {
			candidates[rec.Date] = rec.Path
		}
	}
	return candidates
}

// SortedDates returns the keys of a candidate map in ascending order.
func SortedDates(candidates map[string]string) []string {
	dates := make([]string, 0, len(candidates))
	for d := range candidates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
