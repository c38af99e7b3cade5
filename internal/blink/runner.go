package blink

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kielbrand/blinkcopy/internal/flatstate"
	"github.com/kielbrand/blinkcopy/internal/fscopy"
	"github.com/kielbrand/blinkcopy/internal/library"
	"github.com/kielbrand/blinkcopy/internal/match"
	"github.com/kielbrand/blinkcopy/internal/picker"
)

// Runner processes all light-frame groups of one blink directory. It is
// single-threaded; groups are processed strictly in date order so cutoff
// updates from earlier dates constrain later ones.
type Runner struct {
	Lib      *library.Library
	Engine   *match.Engine
	State    *flatstate.State // nil when no state store is configured
	Selector picker.Selector
	Logger   *slog.Logger

	DryRun      bool
	Quiet       bool
	AllowBias   bool
	PickerLimit int

	// copied tracks destination paths already handled this run, so a
	// master shared by several groups is copied and counted once.
	copied map[string]copyStatus
}

type copyStatus int

const (
	statusCopied copyStatus = iota
	statusPresent
	statusFailed
)

// Run resolves and copies masters for every light group under blinkDir
// and returns the run summary. Only scan failures are fatal; missing
// masters and per-file copy failures are recorded in the summary.
func (r *Runner) Run(blinkDir string) (*Summary, error) {
	lights, err := ScanLights(blinkDir, r.Logger)
	if err != nil {
		return nil, fmt.Errorf("blink: scan %s: %w", blinkDir, err)
	}
	if len(lights) == 0 {
		r.Logger.Warn("no light frames found", slog.String("blink_dir", blinkDir))
	}

	groups := GroupLights(lights)
	SortGroupsByDate(groups)

	r.copied = make(map[string]copyStatus)
	summary := NewSummary(r.DryRun)

	for _, bucket := range bucketByDate(groups) {
		r.processDate(blinkDir, bucket, summary)
	}

	return summary, nil
}

// bucketByDate splits date-sorted groups into runs sharing one capture
// date. The undated groups form the final bucket.
func bucketByDate(groups []*Group) [][]*Group {
	var buckets [][]*Group
	for _, g := range groups {
		n := len(buckets)
		if n == 0 || buckets[n-1][0].Date != g.Date {
			buckets = append(buckets, []*Group{g})
			continue
		}
		buckets[n-1] = append(buckets[n-1], g)
	}
	return buckets
}

// processDate resolves masters for every group captured on one date,
// then runs the batch flat fallback for the filters that had no
// exact-date flat. The fallback assumes one rig per date: when two
// same-date groups share a filter but differ in optic or focal length,
// only the last one's flat target enters the batch.
func (r *Runner) processDate(blinkDir string, bucket []*Group, summary *Summary) {
	date := bucket[0].Date

	// Filters still needing a flat after exact matching, with the group
	// whose target describes them.
	fallback := make(map[string]*Group)

	for _, g := range bucket {
		rep := g.Rep()
		masters := r.Engine.DetermineRequiredMasters(rep, r.AllowBias)

		if masters.Dark.Path != "" {
			r.copyMaster(blinkDir, masters.Dark.Path, CategoryDark, summary)
		} else {
			summary.AddMissing(CategoryDark, fmt.Sprintf("no dark for %s (%ss exposure, %s)", g.Camera, rep.ExposureSeconds, date))
		}

		if masters.BiasNeeded {
			if masters.Bias != "" {
				r.copyMaster(blinkDir, masters.Bias, CategoryBias, summary)
			} else {
				summary.AddMissing(CategoryBias, fmt.Sprintf("no bias for %s (%s)", g.Camera, date))
			}
		}

		switch {
		case masters.Flat != "":
			// Exact hit: the light date becomes the new cutoff floor.
			if r.State != nil {
				r.State.UpdateCutoff(blinkDir, g.Date)
			}
			r.copyMaster(blinkDir, masters.Flat, CategoryFlat, summary)
		case g.Filter != "" && g.Date != "":
			fallback[g.Filter] = g
		default:
			summary.AddMissing(CategoryFlat, fmt.Sprintf("no flat for filter %q (%s)", g.Filter, date))
		}
	}

	if len(fallback) == 0 {
		return
	}

	if r.State == nil || r.Quiet {
		// QuietSkip: no interactive resolution, no cutoff change.
		for filter := range fallback {
			summary.AddMissing(CategoryFlat, fmt.Sprintf("no flat for filter %s on %s", filter, date))
		}
		return
	}

	resolved := r.resolveFlatDate(blinkDir, date, fallback)
	for filter, g := range fallback {
		if resolved == "" {
			summary.AddMissing(CategoryFlat, fmt.Sprintf("no flat for filter %s on %s", filter, date))
			continue
		}
		flat, ok := r.Lib.FindFlatForDate(library.FlatTarget(g.Rep(), filter), resolved)
		if !ok {
			summary.AddMissing(CategoryFlat, fmt.Sprintf("no flat for filter %s on %s", filter, resolved))
			continue
		}
		r.copyMaster(blinkDir, flat.Path, CategoryFlat, summary)
	}
}

// resolveFlatDate runs the interactive fallback for one light date. The
// candidate dates are those at or after the cutoff carrying a flat for
// every required filter; the light date itself is excluded, exact
// matches having been handled already. Returns the selected date, or ""
// when the flats stay unresolved.
//
// Selecting a date advances the cutoff to it. Rejecting ("rig changed")
// advances the cutoff to the light date: newer candidates that were
// visible but unselected stay valid on future runs, since the cutoff
// filter is inclusive of anything at or after it. Cancelling changes
// nothing.
func (r *Runner) resolveFlatDate(blinkDir, lightDate string, fallback map[string]*Group) string {
	cutoff := r.State.Cutoff(blinkDir)

	candidates := r.candidateDatesWithAllFilters(fallback, cutoff)
	delete(candidates, lightDate)

	var older, newer []string
	for _, d := range library.SortedDates(candidates) {
		if d < lightDate {
			older = append(older, d)
		} else {
			newer = append(newer, d)
		}
	}

	res := picker.Pick(r.Selector, lightDate, filterLabel(fallback), older, newer, r.PickerLimit)
	switch res.Outcome {
	case picker.Selected:
		r.State.UpdateCutoff(blinkDir, res.Date)
		r.Logger.Debug("flat date selected",
			slog.String("blink_dir", blinkDir), slog.String("date", res.Date))
		return res.Date
	case picker.Rejected:
		r.State.UpdateCutoff(blinkDir, lightDate)
		r.Logger.Debug("flat candidates rejected, cutoff advanced",
			slog.String("blink_dir", blinkDir), slog.String("cutoff", lightDate))
		return ""
	default:
		r.Logger.Debug("flat selection cancelled", slog.String("blink_dir", blinkDir))
		return ""
	}
}

// candidateDatesWithAllFilters intersects the candidate flat dates
// across every required filter: a date qualifies only when each filter
// has a flat on it.
func (r *Runner) candidateDatesWithAllFilters(fallback map[string]*Group, cutoff string) map[string]string {
	var common map[string]string
	for filter, g := range fallback {
		dates := r.Lib.FindCandidateFlatDates(library.FlatTarget(g.Rep(), filter), cutoff)
		if common == nil {
			common = dates
			continue
		}
		for d := range common {
			if _, ok := dates[d]; !ok {
				delete(common, d)
			}
		}
	}
	if common == nil {
		return map[string]string{}
	}
	return common
}

// filterLabel names the picker prompt: the single filter, or
// "ALL (F1, F2)" when one choice covers several filters.
func filterLabel(fallback map[string]*Group) string {
	filters := make([]string, 0, len(fallback))
	for f := range fallback {
		filters = append(filters, f)
	}
	sort.Strings(filters)
	if len(filters) == 1 {
		return filters[0]
	}
	return fmt.Sprintf("ALL (%s)", strings.Join(filters, ", "))
}

// copyMaster copies one master into the blink directory unless an
// identical copy is already there. Dry runs log the decision and write
// nothing. Each destination is handled at most once per run.
func (r *Runner) copyMaster(blinkDir, src string, cat Category, summary *Summary) {
	dst := filepath.Join(blinkDir, filepath.Base(src))
	if _, ok := r.copied[dst]; ok {
		return
	}

	same, err := fscopy.Same(src, dst)
	if err == nil && same {
		r.copied[dst] = statusPresent
		summary.Add(cat, StatPresent)
		if !r.Quiet {
			r.Logger.Info("master already present", slog.String("dest", dst))
		}
		return
	}

	if r.DryRun {
		r.copied[dst] = statusCopied
		summary.Add(cat, StatCopied)
		r.Logger.Info("would copy master (dry run)", slog.String("source", src), slog.String("dest", dst))
		return
	}

	if err := fscopy.Copy(src, dst); err != nil {
		r.copied[dst] = statusFailed
		summary.Add(cat, StatFailed)
		r.Logger.Error("copy failed", slog.String("source", src), slog.String("error", err.Error()))
		return
	}
	r.copied[dst] = statusCopied
	summary.Add(cat, StatCopied)
	if !r.Quiet {
		r.Logger.Info("copied master", slog.String("source", src), slog.String("dest", dst))
	}
}

// CheckMastersExist reports which of the resolved masters already sit in
// the blink directory with identical content.
func CheckMastersExist(blinkDir string, m match.Masters) map[Category]bool {
	present := make(map[Category]bool)
	for cat, src := range map[Category]string{
		CategoryBias: m.Bias,
		CategoryDark: m.Dark.Path,
		CategoryFlat: m.Flat,
	} {
		if src == "" {
			continue
		}
		same, err := fscopy.Same(src, filepath.Join(blinkDir, filepath.Base(src)))
		present[cat] = err == nil && same
	}
	return present
}
