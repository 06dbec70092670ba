package calibration

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidConfiguration is returned when an explicit key is not in the table.
	ErrInvalidConfiguration = errors.New("invalid configuration key")

	// ErrUnresolvedConfiguration is returned when no key was given and none
	// could be inferred from the filename.
	ErrUnresolvedConfiguration = errors.New("configuration could not be inferred from filename")
)

// Calibration constants measured on the Olympus IX71 scopes (pixels per 100 µm
// at 1X magnification changer).
const (
	pixels4X100um  = 53
	pixels10X100um = 132
	pixels40X100um = 540
)

// Calibration constant for the generic pipeline (pixels per 1000 µm).
const pixelsGeneric1000um = 24

// Entry is one row of a calibration table.
type Entry struct {
	// Key names the scope configuration, e.g. "10X_1.6X". Empty for the
	// implicit generic entry.
	Key string

	// BasePixels is the measured pixel length of the reference distance.
	BasePixels int

	// Multiplier scales the reference distance to the bar's physical length.
	Multiplier float64

	// Label is the text drawn above the bar.
	Label string
}

// BarLength returns the bar length in pixels, truncated toward zero.
func (e Entry) BarLength() int {
	return int(float64(e.BasePixels) * e.Multiplier)
}

// Resolution is the outcome of resolving a key for one image.
type Resolution struct {
	Key       string
	BarLength int
	Label     string
	Inferred  bool
}

// Table is an immutable calibration table.
type Table struct {
	name     string
	entries  map[string]Entry
	keys     []string
	implicit *Entry
	pattern  *regexp.Regexp
}

// scopePattern matches IX71 keys anywhere in a filename.
var scopePattern = regexp.MustCompile(`(?i)(?:4|10|40)X_1(?:\.6)?X`)

// IX71 returns the table for the Olympus IX71 scopes.
func IX71() *Table {
	rows := []Entry{
		{Key: "4X_1X", BasePixels: pixels4X100um, Multiplier: 3, Label: "300 μm"},
		{Key: "4X_1.6X", BasePixels: pixels4X100um, Multiplier: 1.6 * 2, Label: "200 μm"},
		{Key: "10X_1X", BasePixels: pixels10X100um, Multiplier: 1.5, Label: "150 μm"},
		{Key: "10X_1.6X", BasePixels: pixels10X100um, Multiplier: 1.6, Label: "100 μm"},
		{Key: "40X_1X", BasePixels: pixels40X100um, Multiplier: 0.5, Label: "50 μm"},
		{Key: "40X_1.6X", BasePixels: pixels40X100um, Multiplier: 1.6 * 0.3, Label: "30 μm"},
	}
	t := &Table{name: "IX71", entries: make(map[string]Entry, len(rows)), pattern: scopePattern}
	for _, e := range rows {
		t.entries[e.Key] = e
		t.keys = append(t.keys, e.Key)
	}
	return t
}

// Generic returns the single-entry table used for images of any size.
func Generic() *Table {
	return &Table{
		name:     "generic",
		entries:  map[string]Entry{},
		implicit: &Entry{BasePixels: pixelsGeneric1000um, Multiplier: 10, Label: "1 cm"},
	}
}

// Name returns the table name used in log output.
func (t *Table) Name() string {
	return t.name
}

// Keys returns the explicit keys in table order. The generic table has none.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Implicit reports whether the table resolves every image to one entry.
func (t *Table) Implicit() bool {
	return t.implicit != nil
}

// Lookup returns the entry for an explicit key.
func (t *Table) Lookup(key string) (Entry, error) {
	if e, ok := t.entries[key]; ok {
		return e, nil
	}
	return Entry{}, fmt.Errorf("%w: %q", ErrInvalidConfiguration, key)
}

// Infer finds the first key pattern in filename. Matching ignores case; the
// returned entry carries the canonical key.
func (t *Table) Infer(filename string) (Entry, error) {
	if t.pattern == nil {
		return Entry{}, ErrUnresolvedConfiguration
	}
	match := t.pattern.FindString(filename)
	if match == "" {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnresolvedConfiguration, filename)
	}
	e, ok := t.entries[strings.ToUpper(match)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnresolvedConfiguration, filename)
	}
	return e, nil
}

// Resolve turns an optional key and a filename into a bar length and label.
// A table with an implicit entry ignores both. When showLabel is false the
// label is blanked and the bar length is kept.
func (t *Table) Resolve(key, filename string, showLabel bool) (Resolution, error) {
	var (
		e        Entry
		inferred bool
		err      error
	)
	switch {
	case t.implicit != nil:
		e = *t.implicit
	case key != "":
		e, err = t.Lookup(key)
	default:
		e, err = t.Infer(filename)
		inferred = true
	}
	if err != nil {
		return Resolution{}, err
	}

	r := Resolution{
		Key:       e.Key,
		BarLength: e.BarLength(),
		Label:     e.Label,
		Inferred:  inferred,
	}
	if !showLabel {
		r.Label = ""
	}
	return r, nil
}
