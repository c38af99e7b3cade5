package blink

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Category identifies a master frame category in the summary. The
// declared order is the report order.
type Category int

// Summary categories, in report order.
const (
	CategoryBias Category = iota
	CategoryDark
	CategoryFlat
)

func (c Category) String() string {
	switch c {
	case CategoryBias:
		return "bias"
	case CategoryDark:
		return "dark"
	case CategoryFlat:
		return "flat"
	default:
		return "unknown"
	}
}

// Stat is one counter within a category.
type Stat int

// Per-category counters.
const (
	StatCopied Stat = iota
	StatPresent
	StatMissing
	StatFailed
)

// Summary aggregates the per-file decisions of one run.
type Summary struct {
	dryRun  bool
	counts  map[Category]map[Stat]int
	missing []string
}

// NewSummary returns an empty summary.
func NewSummary(dryRun bool) *Summary {
	counts := make(map[Category]map[Stat]int)
	for _, cat := range []Category{CategoryBias, CategoryDark, CategoryFlat} {
		counts[cat] = make(map[Stat]int)
	}
	return &Summary{dryRun: dryRun, counts: counts}
}

// Add increments one counter.
func (s *Summary) Add(cat Category, stat Stat) {
	s.counts[cat][stat]++
}

// AddMissing records a missing master with a human-readable description
// that the report repeats as a warning.
func (s *Summary) AddMissing(cat Category, desc string) {
	s.counts[cat][StatMissing]++
	s.missing = append(s.missing, fmt.Sprintf("%s: %s", cat, desc))
}

// Count returns one counter value.
func (s *Summary) Count(cat Category, stat Stat) int {
	return s.counts[cat][stat]
}

// Missing returns the recorded missing-master descriptions.
func (s *Summary) Missing() []string {
	return s.missing
}

// Failed reports whether any copy failed.
func (s *Summary) Failed() bool {
	for _, cat := range []Category{CategoryBias, CategoryDark, CategoryFlat} {
		if s.counts[cat][StatFailed] > 0 {
			return true
		}
	}
	return false
}

// Render writes the run summary: a fixed-order table of counts followed
// by one warning line per missing master. Quiet mode never suppresses
// this output.
func (s *Summary) Render(w io.Writer) {
	title := "Masters"
	if s.dryRun {
		title = "Masters (dry run)"
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{title, "Copied", "Present", "Missing", "Failed"})
	for _, cat := range []Category{CategoryBias, CategoryDark, CategoryFlat} {
		t.AppendRow(table.Row{
			cat.String(),
			s.counts[cat][StatCopied],
			s.counts[cat][StatPresent],
			s.counts[cat][StatMissing],
			s.counts[cat][StatFailed],
		})
	}
	t.Render()

	for _, line := range s.missing {
		fmt.Fprintf(w, "missing %s\n", line)
	}
}
