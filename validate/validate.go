// Package validate checks downloaded translation files for structural
// soundness and placeholder consistency. PO files are compared entry by
// entry; JSON and YAML files are walked for source/translation pairs.
package validate

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openedx/txsync/placeholder"
	"github.com/openedx/txsync/pofile"
)

// Issue is one problem found in a file.
type Issue struct {
	// Location identifies where in the file the problem is (line
	// number for PO, key path for JSON/YAML).
	Location string
	Message  string
}

// FileResult is the validation outcome for one file.
type FileResult struct {
	Path   string
	Valid  bool
	Issues []Issue
}

// Report aggregates the results of a validation run.
type Report struct {
	Valid   []FileResult
	Invalid []FileResult
}

// Total returns the number of validated files.
func (r *Report) Total() int { return len(r.Valid) + len(r.Invalid) }

// OK reports whether every file passed.
func (r *Report) OK() bool { return len(r.Invalid) == 0 }

// ---------------------------------------------------------------------------
// Single file validation
// ---------------------------------------------------------------------------

// File validates one translation file based on its extension.
func File(path string) FileResult {
	var issues []Issue
	switch strings.ToLower(filepath.Ext(path)) {
	case ".po":
		issues = validatePO(path)
	case ".json":
		issues = validateJSON(path)
	case ".yaml", ".yml":
		issues = validateYAML(path)
	default:
		issues = []Issue{{Message: fmt.Sprintf("unsupported file format: %s", filepath.Ext(path))}}
	}
	return FileResult{Path: path, Valid: len(issues) == 0, Issues: issues}
}

// validatePO parses the file and checks that every translated entry
// preserves the placeholders of its source.
func validatePO(path string) []Issue {
	f, err := pofile.ParseFile(path)
	if err != nil {
		return []Issue{{Message: fmt.Sprintf("PO parse error: %v", err)}}
	}

	var issues []Issue
	check := func(line int, source, translation string) {
		if translation == "" {
			return
		}
		issues = append(issues, placeholderIssues(fmt.Sprintf("line %d", line), source, translation)...)
	}

	for _, e := range f.Entries {
		if e.Obsolete {
			continue
		}
		check(e.Line, e.MsgID, e.MsgStr)
		if e.MsgIDPlural != "" {
			for _, idx := range sortedKeys(e.MsgStrPlural) {
				check(e.Line, e.MsgIDPlural, e.MsgStrPlural[idx])
			}
		}
	}
	return issues
}

// validateJSON checks that the file is valid JSON, holds an object, and
// that nested source/translation pairs keep their placeholders.
func validateJSON(path string) []Issue {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Issue{{Message: err.Error()}}
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []Issue{{Message: fmt.Sprintf("invalid JSON: %v", err)}}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return []Issue{{Message: "JSON must contain an object of translations"}}
	}
	return walkTranslations(obj, "")
}

// validateYAML mirrors validateJSON for YAML documents.
func validateYAML(path string) []Issue {
	data, err := os.ReadFile(path)
	if err != nil {
		return []Issue{{Message: err.Error()}}
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return []Issue{{Message: fmt.Sprintf("invalid YAML: %v", err)}}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return []Issue{{Message: "YAML must contain a mapping of translations"}}
	}
	return walkTranslations(obj, "")
}

// walkTranslations descends a parsed document. An object holding both
// "source" and "translation" string fields is a checkable pair; other
// objects and strings are descended or accepted, anything else flagged.
func walkTranslations(obj map[string]any, prefix string) []Issue {
	var issues []Issue
	for _, key := range sortedStringKeys(obj) {
		value := obj[key]
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		switch v := value.(type) {
		case map[string]any:
			source, okS := v["source"].(string)
			translation, okT := v["translation"].(string)
			if okS && okT {
				issues = append(issues, placeholderIssues(path, source, translation)...)
				continue
			}
			issues = append(issues, walkTranslations(v, path)...)
		case string:
			// plain key -> translation entry, nothing to compare against
		default:
			issues = append(issues, Issue{
				Location: path,
				Message:  fmt.Sprintf("invalid value type %T", value),
			})
		}
	}
	return issues
}

// placeholderIssues diffs the placeholders of a source/translation pair.
func placeholderIssues(location, source, translation string) []Issue {
	missing, extra := placeholder.Diff(source, translation)
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing placeholders: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("extra placeholders: %s", strings.Join(extra, ", ")))
	}
	return []Issue{{
		Location: location,
		Message:  fmt.Sprintf("source %q vs translation %q: %s", source, translation, strings.Join(parts, "; ")),
	}}
}

// ---------------------------------------------------------------------------
// Directory validation
// ---------------------------------------------------------------------------

// FormatAll matches every supported translation file format.
const FormatAll = "all"

var formatExtensions = map[string][]string{
	"po":   {".po"},
	"json": {".json"},
	"yaml": {".yaml", ".yml"},
}

func extensionsFor(format string) (map[string]bool, error) {
	wanted := map[string]bool{}
	if format == "" || format == FormatAll {
		for _, exts := range formatExtensions {
			for _, ext := range exts {
				wanted[ext] = true
			}
		}
		return wanted, nil
	}
	exts, ok := formatExtensions[format]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (expected all, po, json or yaml)", format)
	}
	for _, ext := range exts {
		wanted[ext] = true
	}
	return wanted, nil
}

// Directory validates every translation file under root, recursively.
// Format narrows the walk to one file format; FormatAll or the empty
// string validates everything supported.
func Directory(root, format string) (*Report, error) {
	wanted, err := extensionsFor(format)
	if err != nil {
		return nil, err
	}
	rep := &Report{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !wanted[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		res := File(path)
		if res.Valid {
			rep.Valid = append(rep.Valid, res)
		} else {
			rep.Invalid = append(rep.Invalid, res)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return rep, nil
}

func sortedKeys(m map[int]string) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
