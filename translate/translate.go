// Package translate drives LLM translation and review of localization
// strings. Placeholders are swapped for opaque tokens before the text
// reaches the model and restored afterwards; a translation that loses a
// placeholder is discarded in favor of the source text.
package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/openedx/txsync/placeholder"
	"github.com/openedx/txsync/records"
	"github.com/openedx/txsync/results"
)

// ---------------------------------------------------------------------------
// Prompts
// ---------------------------------------------------------------------------

const translationSystemPrompt = `You are a professional translator. Translate the following text to %s.
Maintain the original meaning and context.
IMPORTANT: The text contains special placeholders that must remain EXACTLY as they are.
These placeholders will be marked with __PLACEHOLDER_X__ tokens.
Do not translate or modify these tokens in any way.`

const reviewSystemPrompt = `You are a professional translator reviewing translations.
Compare the source text and its translation to %s.
Check for:
1. Accuracy of meaning
2. Preservation of placeholders
3. Cultural appropriateness
4. Grammar and spelling

Respond with:
VERDICT: [APPROVE/REJECT]
REASON: [Brief explanation]`

const noContext = "No specific context provided"

// temperature keeps the model output close to deterministic.
const temperature = 0.1

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

// Translator translates and reviews strings for one target language.
type Translator struct {
	client   *openai.Client
	model    string
	language string
}

// New creates a Translator. baseURL overrides the API endpoint when
// non-empty (proxies, tests).
func New(apiKey, baseURL, model, language string) (*Translator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("translate: OPENAI_API_KEY is required")
	}
	if model == "" {
		return nil, fmt.Errorf("translate: model is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Translator{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
	}, nil
}

// Language returns the target language code.
func (t *Translator) Language() string { return t.language }

// chat sends one system+user exchange and returns the reply text.
func (t *Translator) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       t.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// TranslateString translates one string. Placeholders are escaped
// before the call and restored after; when the model loses one, the
// source text is returned unchanged rather than a broken translation.
func (t *Translator) TranslateString(ctx context.Context, text, contextInfo string) (string, error) {
	escaped, placeholders := placeholder.Escape(text)

	if len(placeholders) > 0 {
		var info []string
		for _, p := range placeholders {
			info = append(info, fmt.Sprintf("%s (%s style)", p.Token, p.Style))
		}
		contextInfo = contextInfo + "\nPlaceholders found: " + strings.Join(info, ", ")
	}
	if strings.TrimSpace(contextInfo) == "" {
		contextInfo = noContext
	}

	system := fmt.Sprintf(translationSystemPrompt, t.language)
	user := fmt.Sprintf("Text to translate: %s\nContext: %s", escaped, contextInfo)

	reply, err := t.chat(ctx, system, user)
	if err != nil {
		return "", err
	}

	translated := placeholder.Restore(reply, placeholders)
	if lost := placeholder.Lost(translated, placeholders); len(lost) > 0 {
		return text, nil
	}
	return translated, nil
}

// ---------------------------------------------------------------------------
// Review
// ---------------------------------------------------------------------------

// Review is a parsed review verdict.
type Review struct {
	Approved bool
	Reason   string
}

// ReviewString asks the model to judge an existing translation.
func (t *Translator) ReviewString(ctx context.Context, source, translation, contextInfo string) (Review, error) {
	if strings.TrimSpace(contextInfo) == "" {
		contextInfo = noContext
	}
	system := fmt.Sprintf(reviewSystemPrompt, t.language)
	user := fmt.Sprintf("Source: %s\nTranslation: %s\nContext: %s", source, translation, contextInfo)

	reply, err := t.chat(ctx, system, user)
	if err != nil {
		return Review{}, err
	}
	return ParseReview(reply)
}

// ParseReview extracts the VERDICT and REASON lines from a review
// reply. Fails when the verdict line is missing.
func ParseReview(content string) (Review, error) {
	var rev Review
	verdictSeen := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "VERDICT:"):
			rev.Approved = strings.Contains(line, "APPROVE")
			verdictSeen = true
		case strings.HasPrefix(line, "REASON:"):
			rev.Reason = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		}
	}
	if !verdictSeen {
		return Review{}, fmt.Errorf("no VERDICT line in review reply: %q", content)
	}
	return rev, nil
}

// ---------------------------------------------------------------------------
// Record processing
// ---------------------------------------------------------------------------

// Options controls ProcessRecords behavior and reporting.
type Options struct {
	// OnProgress is called after each record, done out of total.
	OnProgress func(done, total int)
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// ProcessRecords runs translation (untranslated mode) or review
// (unreviewed mode) over the records in order. A record whose API call
// fails is reported and skipped; the rest of the batch continues.
func (t *Translator) ProcessRecords(ctx context.Context, recs []records.Record, mode records.Mode, opts Options) ([]results.Result, error) {
	out := make([]results.Result, 0, len(recs))

	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		switch mode {
		case records.ModeUntranslated:
			translation, err := t.TranslateString(ctx, rec.Source, rec.Context)
			if err != nil {
				opts.logError("translating %q: %v", rec.Key, err)
				break
			}
			out = append(out, results.Result{
				Key:         rec.Key,
				Source:      rec.Source,
				Translation: translation,
				Context:     rec.Context,
				Action:      results.ActionTranslate,
			})

		case records.ModeUnreviewed:
			rev, err := t.ReviewString(ctx, rec.Source, rec.Translation, rec.Context)
			if err != nil {
				opts.logError("reviewing %q: %v", rec.Key, err)
				break
			}
			approved := rev.Approved
			out = append(out, results.Result{
				Key:         rec.Key,
				Source:      rec.Source,
				Translation: rec.Translation,
				Context:     rec.Context,
				Action:      results.ActionReview,
				Approved:    &approved,
			})

		default:
			return out, fmt.Errorf("unknown mode %q", mode)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(recs))
		}
	}

	return out, nil
}
