// transifex.yml support: maps Transifex resources to the translation
// file locations declared in the project's git integration filters.
package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TransifexFileName is the default resource-mapping file name.
const TransifexFileName = "transifex.yml"

// Filter types used by the Transifex git integration.
const (
	FilterTypeDir  = "dir"
	FilterTypeFile = "file"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

type transifexFile struct {
	Git struct {
		Filters []filter `yaml:"filters"`
	} `yaml:"git"`
}

type filter struct {
	FilterType      string `yaml:"filter_type"`
	FileFormat      string `yaml:"file_format"`
	SourceFile      string `yaml:"source_file"`
	SourceFileDir   string `yaml:"source_file_dir"`
	TranslationExpr string `yaml:"translation_files_expression"`
}

// ---------------------------------------------------------------------------
// Resource configurations
// ---------------------------------------------------------------------------

// ResourceConfig describes where one resource's translation files live.
type ResourceConfig struct {
	// Name is the project name extracted from the filter paths.
	Name string
	// Type is the filter type: dir or file.
	Type string
	// Format is the Transifex file format (PO, KEYVALUEJSON, ...).
	Format string
	// PathExpression is the translation file path with a <lang> marker.
	PathExpression string
}

// PathFor resolves the translation file path for a language. For PO dir
// filters the path follows the gettext layout: the language directory
// gains an LC_MESSAGES segment with django.po (or djangojs.po for -js
// resources).
func (rc ResourceConfig) PathFor(lang string, js bool) string {
	p := strings.ReplaceAll(rc.PathExpression, "<lang>", lang)
	if rc.Type == FilterTypeDir && rc.Format == "PO" {
		name := "django.po"
		if js {
			name = "djangojs.po"
		}
		p = path.Join(path.Dir(p), "LC_MESSAGES", name)
	}
	return filepath.FromSlash(p)
}

// ResourceMap holds all resource configurations from transifex.yml,
// indexed for lookup by normalized resource name.
type ResourceMap struct {
	configs    map[string]ResourceConfig // by declared name
	normalized map[string]string         // normalized variant -> declared name
	names      []string                  // declared names in file order
}

// Names returns the declared resource names in file order.
func (m *ResourceMap) Names() []string {
	return m.names
}

// Len returns the number of configured resources.
func (m *ResourceMap) Len() int {
	return len(m.configs)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadResourceMap parses transifex.yml from the given directory.
// Returns (nil, nil) when the file does not exist; the download step
// requires it, the string pipeline does not.
func LoadResourceMap(rootDir string) (*ResourceMap, error) {
	p := filepath.Join(rootDir, TransifexFileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}

	var tf transifexFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", p, err)
	}

	m := &ResourceMap{
		configs:    make(map[string]ResourceConfig),
		normalized: make(map[string]string),
	}

	for _, f := range tf.Git.Filters {
		var source string
		switch f.FilterType {
		case FilterTypeDir:
			source = f.SourceFileDir
		case FilterTypeFile:
			source = f.SourceFile
		default:
			continue
		}

		// Project name is the second path segment:
		// translations/AudioXBlock/... -> AudioXBlock
		parts := strings.Split(path.Clean(filepath.ToSlash(source)), "/")
		if len(parts) < 3 {
			continue
		}
		name := parts[1]

		rc := ResourceConfig{
			Name:           name,
			Type:           f.FilterType,
			Format:         f.FileFormat,
			PathExpression: f.TranslationExpr,
		}
		if _, exists := m.configs[name]; !exists {
			m.names = append(m.names, name)
		}
		m.configs[name] = rc
		m.indexVariants(name)
	}

	return m, nil
}

// indexVariants registers the normalized lookup variants for a name.
func (m *ResourceMap) indexVariants(name string) {
	lower := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	m.normalized[normalizeResourceName(lower)] = name
	if base := strings.TrimSuffix(lower, "-input"); base != lower {
		m.normalized[normalizeResourceName(base)] = name
	}
}

// normalizeResourceName lowercases a name and drops separators so
// resource names from the API can be matched against transifex.yml
// entries despite naming drift (AudioXBlock vs audio_xblock).
func normalizeResourceName(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "-", "")
	return s
}

// Match finds the configuration for a resource name as reported by the
// Transifex API. It tries the name itself, the name without its file
// extension, normalized forms, path segments, and -input/-js suffix
// stripping, mirroring how resources were historically registered.
func (m *ResourceMap) Match(resourceName string) (ResourceConfig, bool) {
	for _, candidate := range matchVariants(resourceName) {
		if declared, ok := m.normalized[candidate]; ok {
			return m.configs[declared], true
		}
	}
	return ResourceConfig{}, false
}

// matchVariants generates lookup candidates for a resource name.
// Suffixes are stripped before separators are dropped so that -js and
// -input remain recognizable.
func matchVariants(resourceName string) []string {
	base := resourceName
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	lower := strings.ReplaceAll(strings.ToLower(base), "_", "-")

	raw := []string{lower}
	if strings.Contains(lower, "/") {
		raw = append(raw, strings.Split(lower, "/")...)
	}

	var variants []string
	for _, v := range raw {
		variants = append(variants, normalizeResourceName(v))
		if b := strings.TrimSuffix(v, "-js"); b != v {
			variants = append(variants, normalizeResourceName(b))
		}
		if b := strings.TrimSuffix(v, "-input"); b != v {
			variants = append(variants, normalizeResourceName(b))
		}
	}
	return variants
}

// IsJSResource reports whether a resource name denotes the JavaScript
// catalog of a Django project (the -js suffix convention).
func IsJSResource(resourceName string) bool {
	base := resourceName
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	lower := strings.ReplaceAll(strings.ToLower(base), "_", "-")
	return strings.HasSuffix(lower, "-js")
}
