package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidatePOPlaceholderMismatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "django.po", `msgid ""
msgstr ""

msgid "Hello {name}"
msgstr "مرحبا"

msgid "Goodbye"
msgstr "وداعا"
`)

	res := File(path)
	if res.Valid {
		t.Fatal("file with a dropped placeholder should be invalid")
	}
	if len(res.Issues) != 1 {
		t.Fatalf("issues = %+v", res.Issues)
	}
	if !strings.Contains(res.Issues[0].Message, "{name}") {
		t.Fatalf("issue = %+v", res.Issues[0])
	}
	if res.Issues[0].Location != "line 4" {
		t.Fatalf("location = %q", res.Issues[0].Location)
	}
}

func TestValidatePOSkipsUntranslated(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "django.po", `msgid ""
msgstr ""

msgid "Hello {name}"
msgstr ""
`)
	if res := File(path); !res.Valid {
		t.Fatalf("untranslated entries must not be checked: %+v", res.Issues)
	}
}

func TestValidateJSON(t *testing.T) {
	dir := t.TempDir()

	good := writeFile(t, dir, "good.json", `{
		"greeting": {"source": "Hello {name}", "translation": "مرحبا {name}"},
		"plain": "just a string"
	}`)
	if res := File(good); !res.Valid {
		t.Fatalf("good file flagged: %+v", res.Issues)
	}

	bad := writeFile(t, dir, "bad.json", `{
		"nested": {
			"greeting": {"source": "Hello {name}", "translation": "مرحبا"}
		}
	}`)
	res := File(bad)
	if res.Valid {
		t.Fatal("placeholder loss not detected")
	}
	if res.Issues[0].Location != "nested.greeting" {
		t.Fatalf("location = %q", res.Issues[0].Location)
	}

	broken := writeFile(t, dir, "broken.json", `{not json`)
	if res := File(broken); res.Valid {
		t.Fatal("malformed JSON accepted")
	}

	scalar := writeFile(t, dir, "scalar.json", `[1,2,3]`)
	if res := File(scalar); res.Valid {
		t.Fatal("non-object JSON accepted")
	}
}

func TestValidateYAML(t *testing.T) {
	dir := t.TempDir()

	good := writeFile(t, dir, "good.yaml", "greeting:\n  source: \"Hello %(name)s\"\n  translation: \"Bonjour %(name)s\"\n")
	if res := File(good); !res.Valid {
		t.Fatalf("good file flagged: %+v", res.Issues)
	}

	bad := writeFile(t, dir, "bad.yml", "greeting:\n  source: \"Hello %(name)s\"\n  translation: \"Bonjour\"\n")
	if res := File(bad); res.Valid {
		t.Fatal("placeholder loss not detected")
	}

	broken := writeFile(t, dir, "broken.yaml", "greeting: [unclosed\n")
	if res := File(broken); res.Valid {
		t.Fatal("malformed YAML accepted")
	}
}

func TestValidateUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "strings.xml", `<resources/>`)
	if res := File(path); res.Valid {
		t.Fatal("unsupported format accepted")
	}
}

func TestDirectoryWalksRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a/django.po", "msgid \"\"\nmsgstr \"\"\n\nmsgid \"Hi {x}\"\nmsgstr \"Salut {x}\"\n")
	writeFile(t, dir, "b/c/messages.json", `{"k": {"source": "Hi {x}", "translation": "Salut"}}`)
	writeFile(t, dir, "notes.txt", "ignored")

	rep, err := Directory(dir, FormatAll)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if rep.Total() != 2 {
		t.Fatalf("total = %d, want 2", rep.Total())
	}
	if len(rep.Valid) != 1 || len(rep.Invalid) != 1 {
		t.Fatalf("valid=%d invalid=%d", len(rep.Valid), len(rep.Invalid))
	}
	if rep.OK() {
		t.Fatal("report with invalid files must not be OK")
	}
}

func TestDirectoryFormatFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "django.po", "msgid \"\"\nmsgstr \"\"\n\nmsgid \"Hi {x}\"\nmsgstr \"Salut {x}\"\n")
	writeFile(t, dir, "messages.json", `{"k": {"source": "Hi {x}", "translation": "Salut {x}"}}`)

	rep, err := Directory(dir, "po")
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if rep.Total() != 1 {
		t.Fatalf("total = %d, want 1", rep.Total())
	}

	if _, err := Directory(dir, "xliff"); err == nil {
		t.Fatal("unknown format accepted")
	}
}
