package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResultsLang(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"ar.json", "ar"},
		{"pt_BR.json", "pt_BR"},
		{"ar.csv", ""},
		{"notes.txt", ""},
	}
	for _, tt := range tests {
		if got := resultsLang(tt.name); got != tt.want {
			t.Errorf("resultsLang(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestUploadTally(t *testing.T) {
	var tally uploadTally
	if tally.allFailed() {
		t.Error("empty tally must not count as all-failed")
	}

	tally.attempted = 3
	tally.failed = 2
	if tally.allFailed() {
		t.Error("tally with one success must not count as all-failed")
	}
	if got := tally.succeeded(); got != 1 {
		t.Errorf("succeeded() = %d, want 1", got)
	}

	tally.failed = 3
	if !tally.allFailed() {
		t.Error("tally with every attempt failed must count as all-failed")
	}
}

func TestReviewArtifacts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"unreviewed_course-app_ar.csv",
		"unreviewed_frontend-app-learning_ar.csv",
		"unreviewed_course-app_fa.csv",
		"untranslated_course-app_ar.csv",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := reviewArtifacts(dir, "ar")
	want := []string{
		filepath.Join(dir, "unreviewed_course-app_ar.csv"),
		filepath.Join(dir, "unreviewed_frontend-app-learning_ar.csv"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d artifacts, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("artifact[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReadApprovedReport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "approved_ar.csv")
	content := `Resource,String Key,Source String,Translation,Context,Is Valid,Explanation
course-app,welcome.title,Welcome,أهلا,greeting,true,Accurate
course-app,demoted.key,Bye,وداعا,farewell,false,Edited out by hand
frontend-app-learning,next.button,Next,التالي,,true,Good
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rows, err := readApprovedReport(path)
	if err != nil {
		t.Fatalf("readApprovedReport: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Resource != "course-app" || rows[0].Key != "welcome.title" {
		t.Errorf("row 0 = %+v", rows[0])
	}
	if rows[1].Resource != "frontend-app-learning" || rows[1].Key != "next.button" {
		t.Errorf("row 1 = %+v", rows[1])
	}
}

func TestReadApprovedReportRejectsBadHeader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "approved_ar.csv")
	if err := os.WriteFile(path, []byte("a,b,c\n1,2,3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := readApprovedReport(path); err == nil {
		t.Fatal("report without the expected columns must be rejected")
	}
}

func TestRootCmdHasAllSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"fetch-strings", "translate", "update", "review", "download", "validate", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
