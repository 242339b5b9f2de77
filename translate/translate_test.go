package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/openedx/txsync/records"
)

// newFakeModel starts a chat-completions endpoint whose reply is
// computed from the user message.
func newFakeModel(t *testing.T, reply func(userMsg string) (string, int)) *Translator {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want system+user", len(req.Messages))
		}
		content, status := reply(req.Messages[1].Content)
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":{"message":"boom"}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tr, err := New("sk-test", srv.URL, "gpt-4o-mini", "Arabic")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestParseReview(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		approved bool
		reason   string
		wantErr  bool
	}{
		{"approve", "VERDICT: APPROVE\nREASON: faithful and fluent", true, "faithful and fluent", false},
		{"reject", "VERDICT: REJECT\nREASON: placeholder dropped", false, "placeholder dropped", false},
		{"indented", "  VERDICT: [APPROVE]\n  REASON: ok", true, "ok", false},
		{"missing verdict", "looks good to me", false, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rev, err := ParseReview(tc.content)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseReview: %v", err)
			}
			if rev.Approved != tc.approved || rev.Reason != tc.reason {
				t.Fatalf("got %+v", rev)
			}
		})
	}
}

func TestTranslateStringRestoresPlaceholders(t *testing.T) {
	tr := newFakeModel(t, func(userMsg string) (string, int) {
		if !strings.Contains(userMsg, "__PLACEHOLDER_0__") {
			t.Errorf("placeholder not escaped in prompt: %q", userMsg)
		}
		return "مرحبا __PLACEHOLDER_0__", http.StatusOK
	})

	got, err := tr.TranslateString(context.Background(), "Hello {name}", "")
	if err != nil {
		t.Fatalf("TranslateString: %v", err)
	}
	if got != "مرحبا {name}" {
		t.Fatalf("got %q", got)
	}
}

func TestTranslateStringLostPlaceholderFallsBackToSource(t *testing.T) {
	tr := newFakeModel(t, func(string) (string, int) {
		return "مرحبا", http.StatusOK
	})

	got, err := tr.TranslateString(context.Background(), "Hello {name}", "")
	if err != nil {
		t.Fatalf("TranslateString: %v", err)
	}
	if got != "Hello {name}" {
		t.Fatalf("got %q, want the untouched source", got)
	}
}

func TestProcessRecordsSkipsFailedTranslations(t *testing.T) {
	tr := newFakeModel(t, func(userMsg string) (string, int) {
		if strings.Contains(userMsg, "Broken") {
			return "", http.StatusInternalServerError
		}
		return "ok", http.StatusOK
	})

	recs := []records.Record{
		{Resource: "app", Key: "a", Source: "First"},
		{Resource: "app", Key: "b", Source: "Broken"},
		{Resource: "app", Key: "c", Source: "Last"},
	}

	var errs int
	got, err := tr.ProcessRecords(context.Background(), recs, records.ModeUntranslated, Options{
		OnError: func(string, ...any) { errs++ },
	})
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Key != "a" || got[1].Key != "c" {
		t.Fatalf("results = %+v", got)
	}
	if errs != 1 {
		t.Fatalf("errors reported = %d, want 1", errs)
	}
}

func TestProcessRecordsReviewMode(t *testing.T) {
	tr := newFakeModel(t, func(userMsg string) (string, int) {
		if strings.Contains(userMsg, "سيئ") {
			return "VERDICT: REJECT\nREASON: mistranslation", http.StatusOK
		}
		return "VERDICT: APPROVE\nREASON: accurate", http.StatusOK
	})

	recs := []records.Record{
		{Resource: "app", Key: "good", Source: "Hello", Translation: "مرحبا"},
		{Resource: "app", Key: "bad", Source: "Hello", Translation: "سيئ"},
	}

	got, err := tr.ProcessRecords(context.Background(), recs, records.ModeUnreviewed, Options{})
	if err != nil {
		t.Fatalf("ProcessRecords: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results", len(got))
	}
	if got[0].Approved == nil || !*got[0].Approved {
		t.Fatalf("first result = %+v", got[0])
	}
	if got[1].Approved == nil || *got[1].Approved {
		t.Fatalf("second result = %+v", got[1])
	}
	if got[0].Translation != "مرحبا" {
		t.Fatalf("review must keep the existing translation: %+v", got[0])
	}
}

func TestProcessRecordsHonorsCancellation(t *testing.T) {
	tr := newFakeModel(t, func(string) (string, int) { return "ok", http.StatusOK })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.ProcessRecords(ctx, []records.Record{{Key: "a", Source: "x"}}, records.ModeUntranslated, Options{})
	if err == nil {
		t.Fatal("want context error")
	}
}
