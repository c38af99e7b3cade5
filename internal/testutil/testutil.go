// Package testutil provides shared test helpers for building frame
// fixtures on disk.
package testutil

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// Frame describes one fixture frame. Empty fields are omitted from the
// header.
type Frame struct {
	Type        string // IMAGETYP, e.g. "Light Frame", "Dark Frame"
	Camera      string
	Optic       string
	Filter      string
	Gain        string
	Offset      string
	SetTemp     string
	ReadoutMode string
	FocalLen    string
	Exposure    string
	Date        string // YYYY-MM-DD, written as DATE-OBS midnight
}

func (f Frame) cards() [][2]string {
	var cards [][2]string
	add := func(name, value string) {
		if value != "" {
			cards = append(cards, [2]string{name, value})
		}
	}
	add("IMAGETYP", f.Type)
	add("INSTRUME", f.Camera)
	add("TELESCOP", f.Optic)
	add("FILTER", f.Filter)
	add("GAIN", f.Gain)
	add("OFFSET", f.Offset)
	add("SET-TEMP", f.SetTemp)
	add("READOUTM", f.ReadoutMode)
	add("FOCALLEN", f.FocalLen)
	add("EXPOSURE", f.Exposure)
	if f.Date != "" {
		add("DATE-OBS", f.Date+"T00:00:00")
	}
	return cards
}

// WriteFITS writes a minimal single-block FITS file containing the given
// header cards, creating parent directories as needed.
func WriteFITS(t *testing.T, path string, cards map[string]string) {
	t.Helper()

	names := make([]string, 0, len(cards))
	for name := range cards {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(fitsCard("SIMPLE", "T"))
	for _, name := range names {
		b.WriteString(fitsCard(name, cards[name]))
	}
	b.WriteString(padCard("END"))
	for b.Len()%2880 != 0 {
		b.WriteString(strings.Repeat(" ", 80))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteFrame writes a fixture frame as a FITS file.
func WriteFrame(t *testing.T, path string, f Frame) {
	t.Helper()
	cards := make(map[string]string, 12)
	for _, c := range f.cards() {
		cards[c[0]] = c[1]
	}
	WriteFITS(t, path, cards)
}

// fitsCard renders one 80-byte value card. Values that do not parse as
// numbers or logical constants are quoted.
func fitsCard(name, value string) string {
	v := value
	if !isBareValue(v) {
		v = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return padCard(pad(name, 8) + "= " + v)
}

func isBareValue(v string) bool {
	if v == "T" || v == "F" {
		return true
	}
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func padCard(s string) string {
	return pad(s, 80)
}
