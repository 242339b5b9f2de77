// Package records implements reading and writing of the CSV cache
// artifacts that hold strings fetched from Transifex.
//
// Column layout matches the original export format:
//
//	Resource, String Key, Source String[, Translation], Context
//
// The Translation column is present only for unreviewed-mode artifacts,
// where every record carries an existing translation awaiting review.
package records

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Mode selects which strings a pipeline run operates on.
type Mode string

const (
	// ModeUntranslated selects strings without any translation.
	ModeUntranslated Mode = "untranslated"
	// ModeUnreviewed selects translated strings not yet reviewed.
	ModeUnreviewed Mode = "unreviewed"
)

// ParseMode validates a mode string from the CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUntranslated, ModeUnreviewed:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid mode %q (want untranslated or unreviewed)", s)
}

// Record is a single string fetched from Transifex. Only the Translation
// field is ever rewritten downstream; everything else is immutable once
// fetched.
type Record struct {
	// Resource is the slug of the Transifex resource.
	Resource string
	// Key is the string key within the resource.
	Key string
	// Source is the source-language text.
	Source string
	// Translation is the existing target-language text (unreviewed mode)
	// or empty (untranslated mode).
	Translation string
	// Context is the translator context attached to the string.
	Context string
}

// ---------------------------------------------------------------------------
// CSV layout
// ---------------------------------------------------------------------------

func headerFor(mode Mode) []string {
	if mode == ModeUnreviewed {
		return []string{"Resource", "String Key", "Source String", "Translation", "Context"}
	}
	return []string{"Resource", "String Key", "Source String", "Context"}
}

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// ReadFile reads a cache artifact. The mode determines the expected
// column layout. A file containing only the header row yields an empty
// slice, not an error.
func ReadFile(path string, mode Mode) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range headerFor(mode) {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var recs []Record
	for _, row := range rows[1:] {
		rec := Record{
			Resource: field(row, "Resource"),
			Key:      field(row, "String Key"),
			Source:   field(row, "Source String"),
			Context:  field(row, "Context"),
		}
		if mode == ModeUnreviewed {
			rec.Translation = field(row, "Translation")
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// WriteFile writes records to a cache artifact, overwriting any prior
// content. An empty record slice still produces a file with the header
// row, so artifact existence remains a valid cache signal.
func WriteFile(path string, recs []Record, mode Mode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(headerFor(mode)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	for _, rec := range recs {
		var row []string
		if mode == ModeUnreviewed {
			row = []string{rec.Resource, rec.Key, rec.Source, rec.Translation, rec.Context}
		} else {
			row = []string{rec.Resource, rec.Key, rec.Source, rec.Context}
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ByResource groups records by resource name, preserving record order
// within each group and returning resource names in first-seen order.
func ByResource(recs []Record) (names []string, groups map[string][]Record) {
	groups = make(map[string][]Record)
	for _, rec := range recs {
		if _, seen := groups[rec.Resource]; !seen {
			names = append(names, rec.Resource)
		}
		groups[rec.Resource] = append(groups[rec.Resource], rec)
	}
	return names, groups
}
