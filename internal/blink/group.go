// Package blink orchestrates one run over a blink directory: grouping
// light frames, resolving masters chronologically, copying, and
// summarising.
package blink

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kielbrand/blinkcopy/internal/metadata"
)

// Group is one blink sub-directory's worth of light frames: all frames
// sharing the configuration key and a capture date.
type Group struct {
	Camera      string
	Optic       string
	Filter      string
	Gain        string
	Offset      string
	SetTemp     string
	ReadoutMode string
	FocalLen    string
	Date        string // "" when the frames carry no date
	Lights      []metadata.Record
}

// Rep returns a representative record for searches. The first light
// carries the exposure the whole group was captured with.
func (g *Group) Rep() metadata.Record {
	return g.Lights[0]
}

type configKey struct {
	camera, optic, filter, gain, offset, setTemp, readoutMode, focalLen, date string
}

// frameExts are the file extensions scanned for light frames.
var frameExts = map[string]bool{
	".fits": true,
	".fit":  true,
	".fts":  true,
	".xisf": true,
}

// ScanLights walks dir and extracts every light frame. Masters already
// copied into the blink directory classify as dark/flat/bias and are
// ignored; unreadable files are skipped with a warning.
func ScanLights(dir string, logger *slog.Logger) ([]metadata.Record, error) {
	var lights []metadata.Record
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
		if rec.Kind != metadata.KindLight {
			logger.Debug("ignoring non-light frame", slog.String("path", p), slog.String("kind", string(rec.Kind)))
			return nil
		}
		lights = append(lights, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lights, nil
}

// GroupLights buckets light records by configuration key and capture
// date. Metadata normalization already collapses every representation of
// an absent value to "", so groups differing only in how "no filter" was
// written merge. Groups come back in first-seen order.
func GroupLights(records []metadata.Record) []*Group {
	index := make(map[configKey]*Group)
	var groups []*Group
	for _, rec := range records {
		key := configKey{
			camera: rec.Camera, optic: rec.Optic, filter: rec.Filter,
			gain: rec.Gain, offset: rec.Offset, setTemp: rec.SetTemp,
			readoutMode: rec.ReadoutMode, focalLen: rec.FocalLen,
			date: rec.Date,
		}
		g, ok := index[key]
		if !ok {
			g = &Group{
				Camera: rec.Camera, Optic: rec.Optic, Filter: rec.Filter,
				Gain: rec.Gain, Offset: rec.Offset, SetTemp: rec.SetTemp,
				ReadoutMode: rec.ReadoutMode, FocalLen: rec.FocalLen,
				Date: rec.Date,
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.Lights = append(g.Lights, rec)
	}
	return groups
}

// SortGroupsByDate orders groups ascending by capture date so that a
// cutoff advance from an earlier date is visible when resolving a later
// one. Undated groups sort last, keeping their relative order.
func SortGroupsByDate(groups []*Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		di, dj := groups[i].Date, groups[j].Date
		if di == "" {
			return false
		}
		if dj == "" {
			return true
		}
		return di < dj
	})
}
