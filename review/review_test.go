package review

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/openedx/txsync/translate"
)

func newFakeReviewer(t *testing.T, verdict func(userMsg string) string) *translate.Translator {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		content := verdict(req.Messages[len(req.Messages)-1].Content)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tr, err := translate.New("sk-test", srv.URL, "gpt-4o-mini", "ar")
	if err != nil {
		t.Fatalf("translate.New: %v", err)
	}
	return tr
}

func writeUnreviewedCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unreviewed_app_ar.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w := csv.NewWriter(f)
	_ = w.Write([]string{"Resource", "String Key", "Source String", "Translation", "Context"})
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessFilesSplitsVerdicts(t *testing.T) {
	tr := newFakeReviewer(t, func(userMsg string) string {
		if strings.Contains(userMsg, "wrong") {
			return "VERDICT: REJECT\nREASON: meaning lost"
		}
		return "VERDICT: APPROVE\nREASON: accurate"
	})

	input := writeUnreviewedCSV(t, [][]string{
		{"app", "good", "Hello", "مرحبا", ""},
		{"app", "bad", "Hello", "wrong", ""},
	})
	outDir := t.TempDir()

	rep, err := ProcessFiles(context.Background(), tr, []string{input}, outDir, Options{MaxWorkers: 2})
	if err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}
	if rep.Total() != 2 || len(rep.Approved) != 1 || len(rep.Rejected) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Approved[0].Record.Key != "good" {
		t.Fatalf("approved = %+v", rep.Approved)
	}
	if rep.Rejected[0].Explanation != "meaning lost" {
		t.Fatalf("rejected = %+v", rep.Rejected)
	}

	for _, path := range []string{rep.ApprovedFile, rep.RejectedFile} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatalf("report file missing: %v", err)
		}
		rows, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("reading %s: %v", path, err)
		}
		if len(rows) != 2 {
			t.Fatalf("%s has %d rows, want header+1", path, len(rows))
		}
		if rows[0][5] != "Is Valid" || rows[0][6] != "Explanation" {
			t.Fatalf("%s header = %v", path, rows[0])
		}
	}
}

func TestProcessFilesKeepsInputOrder(t *testing.T) {
	tr := newFakeReviewer(t, func(string) string {
		return "VERDICT: APPROVE\nREASON: ok"
	})

	var rows [][]string
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		rows = append(rows, []string{"app", key, "src " + key, "tr " + key, ""})
	}
	input := writeUnreviewedCSV(t, rows)

	rep, err := ProcessFiles(context.Background(), tr, []string{input}, t.TempDir(), Options{MaxWorkers: 3})
	if err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}
	if len(rep.Approved) != 5 {
		t.Fatalf("approved = %d", len(rep.Approved))
	}
	for i, key := range []string{"a", "b", "c", "d", "e"} {
		if rep.Approved[i].Record.Key != key {
			t.Fatalf("order broken at %d: %+v", i, rep.Approved[i].Record)
		}
	}
}

func TestProcessFilesReviewErrorLandsInRejected(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	tr, err := translate.New("sk-test", srv.URL, "gpt-4o-mini", "ar")
	if err != nil {
		t.Fatal(err)
	}

	input := writeUnreviewedCSV(t, [][]string{{"app", "k", "Hello", "مرحبا", ""}})
	rep, err := ProcessFiles(context.Background(), tr, []string{input}, t.TempDir(), Options{MaxWorkers: 1})
	if err != nil {
		t.Fatalf("ProcessFiles: %v", err)
	}
	if len(rep.Rejected) != 1 {
		t.Fatalf("report = %+v", rep)
	}
	if !strings.Contains(rep.Rejected[0].Explanation, "Error during review") {
		t.Fatalf("explanation = %q", rep.Rejected[0].Explanation)
	}
	if calls == 0 {
		t.Fatal("model endpoint was never called")
	}
}
