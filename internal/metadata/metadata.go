// Package metadata extracts frame metadata from FITS and XISF headers.
package metadata

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Kind classifies a frame by its IMAGETYP header.
type Kind string

// Frame kinds.
const (
	KindLight   Kind = "light"
	KindDark    Kind = "dark"
	KindFlat    Kind = "flat"
	KindBias    Kind = "bias"
	KindUnknown Kind = "unknown"
)

// DateLayout is the ISO date format used throughout. ISO dates compare
// lexically in chronological order, so cutoff comparisons work on the
// raw strings.
const DateLayout = "2006-01-02"

// Record holds the normalized metadata of one physical frame. All values
// are normalized strings; the empty string is the single "absent"
// sentinel and acts as a wildcard in library searches. Records are
// read-only after extraction.
type Record struct {
	Kind            Kind
	Camera          string
	Optic           string
	Filter          string
	Gain            string
	Offset          string
	SetTemp         string
	ReadoutMode     string
	FocalLen        string
	ExposureSeconds string
	Date            string // YYYY-MM-DD
	Path            string
}

// Extract reads the header of the file at path and returns its metadata.
// The format is chosen by extension: .fits/.fit/.fts are FITS, .xisf is
// XISF. Extraction failures are per-file; callers skip and log them.
func Extract(path string) (Record, error) {
	var (
		cards map[string]string
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fits", ".fit", ".fts":
		cards, err = readFITSHeader(path)
	case ".xisf":
		cards, err = readXISFHeader(path)
	default:
		return Record{}, fmt.Errorf("metadata: unsupported file type: %s", path)
	}
	if err != nil {
		return Record{}, err
	}
	return fromCards(cards, path), nil
}

// fromCards maps raw header keywords onto a Record.
func fromCards(cards map[string]string, path string) Record {
	rec := Record{
		Kind:            kindFromImageType(cards["IMAGETYP"]),
		Camera:          cards["INSTRUME"],
		Optic:           cards["TELESCOP"],
		Filter:          cards["FILTER"],
		Gain:            normalizeNumber(cards["GAIN"]),
		Offset:          normalizeNumber(cards["OFFSET"]),
		SetTemp:         normalizeNumber(cards["SET-TEMP"]),
		ReadoutMode:     normalizeNumber(cards["READOUTM"]),
		FocalLen:        normalizeNumber(cards["FOCALLEN"]),
		ExposureSeconds: normalizeNumber(cards["EXPOSURE"]),
		Path:            path,
	}
	if rec.ExposureSeconds == "" {
		rec.ExposureSeconds = normalizeNumber(cards["EXPTIME"])
	}
	if d := cards["DATE-LOC"]; d != "" {
		rec.Date = datePart(d)
	} else {
		rec.Date = datePart(cards["DATE-OBS"])
	}
	return rec
}

func kindFromImageType(v string) Kind {
	t := strings.ToLower(v)
	switch {
	case strings.Contains(t, "light"):
		return KindLight
	case strings.Contains(t, "dark"):
		return KindDark
	case strings.Contains(t, "flat"):
		return KindFlat
	case strings.Contains(t, "bias"), strings.Contains(t, "zero"):
		return KindBias
	default:
		return KindUnknown
	}
}

// normalizeNumber renders numeric header values in a canonical form so
// that "300", "300.0" and "3.0E2" group together. Non-numeric values
// pass through trimmed.
func normalizeNumber(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// datePart reduces a DATE-OBS style timestamp to its YYYY-MM-DD part.
// Anything that does not start with a parseable date yields "".
func datePart(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < len(DateLayout) {
		return ""
	}
	d := v[:len(DateLayout)]
	if _, err := time.Parse(DateLayout, d); err != nil {
		return ""
	}
	return d
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
