// Package match applies the master selection policies: exact-or-shorter
// darks, exact-only bias, exact-date flats with interactive fallback
// delegated to the caller.
package match

import (
	"strconv"

	"github.com/kielbrand/blinkcopy/internal/library"
	"github.com/kielbrand/blinkcopy/internal/metadata"
)

// Engine answers master searches against one scanned library.
type Engine struct {
	lib *library.Library
}

// NewEngine returns an engine over lib.
func NewEngine(lib *library.Library) *Engine {
	return &Engine{lib: lib}
}

// Dark is a resolved dark master. Exact is false when the dark has a
// shorter exposure than the light and needs a bias to be usable.
type Dark struct {
	Path  string
	Exact bool
}

// Masters is the resolved set for one light group. Empty paths mean
// missing. Flat stays empty when exact-date resolution failed; the
// orchestrator runs the interactive fallback.
type Masters struct {
	Dark       Dark
	Bias       string
	BiasNeeded bool
	Flat       string
}

// FindMatchingDark searches for an exact exposure match first. Failing
// that it returns the dark with the exposure closest to, but less than,
// the light's, marked non-exact.
func (e *Engine) FindMatchingDark(t library.Target) (Dark, bool) {
	darks := e.lib.FindDarks(t)
	if len(darks) == 0 || t.ExposureSeconds == "" {
		return Dark{}, false
	}

	for _, rec := range darks {
		if rec.ExposureSeconds == t.ExposureSeconds {
			return Dark{Path: rec.Path, Exact: true}, true
		}
	}

	lightExp, err := strconv.ParseFloat(t.ExposureSeconds, 64)
	if err != nil {
		return Dark{}, false
	}
	var (
		best    metadata.Record
		bestExp float64
		found   bool
	)
	for _, rec := range darks {
		exp, err := strconv.ParseFloat(rec.ExposureSeconds, 64)
		if err != nil || exp >= lightExp {
			continue
		}
		if !found || exp > bestExp {
			best, bestExp, found = rec, exp, true
		}
	}
	if !found {
		return Dark{}, false
	}
	return Dark{Path: best.Path}, true
}

// FindMatchingBias searches for an exact field match; there is no
// exposure dimension. Absent target fields are wildcards.
func (e *Engine) FindMatchingBias(t library.Target) (string, bool) {
	rec, ok := e.lib.FindBias(t)
	if !ok {
		return "", false
	}
	return rec.Path, true
}

// FindMatchingFlat searches for an exact match on all fields including
// the date.
func (e *Engine) FindMatchingFlat(t library.Target, date string) (string, bool) {
	rec, ok := e.lib.FindFlatForDate(t, date)
	if !ok {
		return "", false
	}
	return rec.Path, true
}

// DetermineRequiredMasters resolves dark, bias and the exact-date flat
// for one light group, represented by any of its records.
//
// An exact dark makes the bias unnecessary. A non-exact dark is usable
// only with a matching bias, and only when allowBias is set: without
// allowBias the shorter dark is discarded, and with allowBias but no
// matching bias both dark and bias are reported missing.
func (e *Engine) DetermineRequiredMasters(rec metadata.Record, allowBias bool) Masters {
	var m Masters

	dark, ok := e.FindMatchingDark(library.DarkTarget(rec))
	switch {
	case ok && dark.Exact:
		m.Dark = dark
	case ok && allowBias:
		m.BiasNeeded = true
		if bias, bok := e.FindMatchingBias(library.BiasTarget(rec)); bok {
			m.Dark = dark
			m.Bias = bias
		}
	}

	if rec.Date != "" {
		if flat, fok := e.FindMatchingFlat(library.FlatTarget(rec, rec.Filter), rec.Date); fok {
			m.Flat = flat
		}
	}

	return m
}
