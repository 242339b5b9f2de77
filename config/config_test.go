package config

import (
	"reflect"
	"strings"
	"testing"
)

func TestLoadValidatesRequiredVariables(t *testing.T) {
	t.Setenv("TRANSIFEX_API_TOKEN", "")
	t.Setenv("TRANSIFEX_ORGANIZATION", "open-edx")
	t.Setenv("TRANSIFEX_PROJECT", "")
	t.Setenv("TARGET_LANGUAGES", "ar,fa")

	_, err := Load(t.TempDir())
	if err == nil {
		t.Fatal("Load() should fail with missing variables")
	}
	msg := err.Error()
	for _, want := range []string{"TRANSIFEX_API_TOKEN", "TRANSIFEX_PROJECT"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
	if strings.Contains(msg, "TRANSIFEX_ORGANIZATION") {
		t.Errorf("error %q names a variable that was set", msg)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRANSIFEX_API_TOKEN", "tok")
	t.Setenv("TRANSIFEX_ORGANIZATION", "open-edx")
	t.Setenv("TRANSIFEX_PROJECT", "edx-platform")
	t.Setenv("TARGET_LANGUAGES", " ar, fa ,,")
	t.Setenv("TRANSLATION_MODEL", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(cfg.TargetLanguages, []string{"ar", "fa"}) {
		t.Fatalf("TargetLanguages = %v", cfg.TargetLanguages)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Fatalf("Model = %q, want default gpt-4o-mini", cfg.Model)
	}
	if cfg.OutputDir != DefaultOutputDir || cfg.TranslationsDir != DefaultTranslationsDir || cfg.ReviewsDir != DefaultReviewsDir {
		t.Fatalf("directories not defaulted: %+v", cfg)
	}
}
