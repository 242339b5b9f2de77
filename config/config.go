// Package config loads the pipeline configuration: credentials and
// target languages from the environment (with .env support), and the
// resource-to-file mapping from transifex.yml.
//
// Configuration is loaded once at startup into an explicit Config value
// that is passed to each stage. Nothing reads the environment after
// Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Default directories for pipeline artifacts, relative to the project root.
const (
	DefaultOutputDir       = "output"
	DefaultTranslationsDir = "translations"
	DefaultReviewsDir      = "reviews"
)

// Config holds everything the pipeline needs. Required fields are
// validated by Load; the zero value is unusable.
type Config struct {
	// APIToken authenticates against the Transifex REST API.
	APIToken string
	// Organization is the Transifex organization slug.
	Organization string
	// Project is the Transifex project slug.
	Project string
	// TargetLanguages are the language codes to process, in order.
	TargetLanguages []string

	// OpenAIAPIKey authenticates against the translation model API.
	OpenAIAPIKey string
	// OpenAIBaseURL overrides the model API endpoint (empty = default).
	OpenAIBaseURL string
	// Model is the chat model used for translation and review.
	Model string

	// OutputDir holds fetched-string CSV artifacts.
	OutputDir string
	// TranslationsDir holds per-language JSON result artifacts.
	TranslationsDir string
	// ReviewsDir holds approved/rejected review CSVs.
	ReviewsDir string
}

// Load reads configuration from the environment. A .env file under
// rootDir is loaded first if present (variables already set in the
// environment win). Missing required values abort the run before any
// network call is made.
func Load(rootDir string) (*Config, error) {
	// Ignore a missing .env; the environment may be complete without it.
	_ = godotenv.Load(filepath.Join(rootDir, ".env"))

	cfg := &Config{
		APIToken:        os.Getenv("TRANSIFEX_API_TOKEN"),
		Organization:    os.Getenv("TRANSIFEX_ORGANIZATION"),
		Project:         os.Getenv("TRANSIFEX_PROJECT"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		Model:           os.Getenv("TRANSLATION_MODEL"),
		OutputDir:       DefaultOutputDir,
		TranslationsDir: DefaultTranslationsDir,
		ReviewsDir:      DefaultReviewsDir,
	}

	cfg.TargetLanguages = splitLanguages(os.Getenv("TARGET_LANGUAGES"))

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	var missing []string
	if cfg.APIToken == "" {
		missing = append(missing, "TRANSIFEX_API_TOKEN")
	}
	if cfg.Organization == "" {
		missing = append(missing, "TRANSIFEX_ORGANIZATION")
	}
	if cfg.Project == "" {
		missing = append(missing, "TRANSIFEX_PROJECT")
	}
	if len(cfg.TargetLanguages) == 0 {
		missing = append(missing, "TARGET_LANGUAGES")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

// splitLanguages parses a comma-separated language list, trimming
// whitespace and dropping empty items.
func splitLanguages(s string) []string {
	var langs []string
	for _, part := range strings.Split(s, ",") {
		if lang := strings.TrimSpace(part); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}
