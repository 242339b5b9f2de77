// Package results persists per-language translation results. Each
// language accumulates into one JSON file mapping resource name to the
// list of processed strings, so repeated runs over different resources
// build up a single reviewable document.
package results

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Actions recorded on a result.
const (
	ActionTranslate = "translate"
	ActionReview    = "review"
)

// Result is the outcome of processing one string.
type Result struct {
	Key         string `json:"key"`
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Context     string `json:"context"`
	// Action is "translate" or "review".
	Action string `json:"action"`
	// Approved is set only for review results.
	Approved *bool `json:"approved,omitempty"`
}

// Store reads and writes per-language result files under Dir.
type Store struct {
	Dir string
}

// Path returns the result file path for a language.
func (s Store) Path(lang string) string {
	return filepath.Join(s.Dir, lang+".json")
}

// Load reads the accumulated results for a language. A missing file is
// an empty document, not an error.
func (s Store) Load(lang string) (map[string][]Result, error) {
	data, err := os.ReadFile(s.Path(lang))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string][]Result{}, nil
		}
		return nil, fmt.Errorf("reading results for %s: %w", lang, err)
	}
	doc := map[string][]Result{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.Path(lang), err)
	}
	return doc, nil
}

// Save merges new results for one resource into the language file and
// writes it back. Entries whose key already exists for the resource are
// replaced in place; new keys are appended. Returns the file path.
func (s Store) Save(lang, resource string, items []Result) (string, error) {
	doc, err := s.Load(lang)
	if err != nil {
		return "", err
	}

	existing := doc[resource]
	index := make(map[string]int, len(existing))
	for i, r := range existing {
		index[r.Key] = i
	}
	for _, item := range items {
		if i, ok := index[item.Key]; ok {
			existing[i] = item
			continue
		}
		index[item.Key] = len(existing)
		existing = append(existing, item)
	}
	doc[resource] = existing

	path := s.Path(lang)
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating results directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding results for %s: %w", lang, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
