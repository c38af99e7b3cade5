package blink

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/kielbrand/blinkcopy/internal/metadata"
	"github.com/kielbrand/blinkcopy/internal/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func light(filter, date string) metadata.Record {
	return metadata.Record{
		Kind:            metadata.KindLight,
		Camera:          "ASI2600MM",
		Optic:           "RedCat51",
		Filter:          filter,
		Gain:            "100",
		Offset:          "50",
		SetTemp:         "-10",
		ReadoutMode:     "0",
		FocalLen:        "250",
		ExposureSeconds: "300",
		Date:            date,
	}
}

func TestGroupLightsMergesSameConfig(t *testing.T) {
	records := []metadata.Record{
		light("Ha", "2025-08-20"),
		light("Ha", "2025-08-20"),
		light("OIII", "2025-08-20"),
		light("Ha", "2025-08-21"),
	}

	groups := GroupLights(records)
	if len(groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3", len(groups))
	}
	if len(groups[0].Lights) != 2 {
		t.Errorf("first group has %d lights, want 2", len(groups[0].Lights))
	}
	if groups[0].Filter != "Ha" || groups[1].Filter != "OIII" {
		t.Errorf("first-seen order not kept: %q, %q", groups[0].Filter, groups[1].Filter)
	}
}

func TestGroupLightsAbsentFieldsMerge(t *testing.T) {
	// Both records carry "" for filter; differing upstream spellings of
	// "no filter" normalize to the same sentinel at extraction time.
	a := light("", "2025-08-20")
	b := light("", "2025-08-20")

	groups := GroupLights([]metadata.Record{a, b})
	if len(groups) != 1 {
		t.Fatalf("len(groups) = %d, want 1", len(groups))
	}
}

func TestSortGroupsByDateUndatedLast(t *testing.T) {
	groups := []*Group{
		{Date: "2025-08-21", Filter: "a"},
		{Date: "", Filter: "x"},
		{Date: "2025-08-10", Filter: "b"},
		{Date: "", Filter: "y"},
	}

	SortGroupsByDate(groups)

	wantDates := []string{"2025-08-10", "2025-08-21", "", ""}
	for i, want := range wantDates {
		if groups[i].Date != want {
			t.Errorf("groups[%d].Date = %q, want %q", i, groups[i].Date, want)
		}
	}
	// Undated groups keep their relative order.
	if groups[2].Filter != "x" || groups[3].Filter != "y" {
		t.Errorf("undated order not stable: %q, %q", groups[2].Filter, groups[3].Filter)
	}
}

func TestBucketByDate(t *testing.T) {
	groups := []*Group{
		{Date: "2025-08-10"},
		{Date: "2025-08-10"},
		{Date: "2025-08-20"},
		{Date: ""},
	}
	buckets := bucketByDate(groups)
	if len(buckets) != 3 {
		t.Fatalf("len(buckets) = %d, want 3", len(buckets))
	}
	if len(buckets[0]) != 2 {
		t.Errorf("first bucket has %d groups, want 2", len(buckets[0]))
	}
}

func TestScanLightsIgnoresMasters(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFrame(t, filepath.Join(dir, "light1.fits"), testutil.Frame{
		Type: "Light Frame", Camera: "cam", Filter: "Ha", Date: "2025-08-20",
	})
	// A master previously copied into the blink dir must not count as a light.
	testutil.WriteFrame(t, filepath.Join(dir, "masterFlat.fits"), testutil.Frame{
		Type: "Flat Field", Camera: "cam", Filter: "Ha", Date: "2025-08-20",
	})

	lights, err := ScanLights(dir, discard())
	if err != nil {
		t.Fatalf("ScanLights: %v", err)
	}
	if len(lights) != 1 {
		t.Fatalf("len(lights) = %d, want 1", len(lights))
	}
	if filepath.Base(lights[0].Path) != "light1.fits" {
		t.Errorf("Path = %q", lights[0].Path)
	}
}
