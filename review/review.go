// Package review runs LLM review over a CSV of unreviewed strings in
// parallel and splits the outcomes into approved and rejected reports.
package review

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openedx/txsync/records"
	"github.com/openedx/txsync/translate"
)

// Outcome is one reviewed string with its verdict.
type Outcome struct {
	Record      records.Record
	Approved    bool
	Explanation string
}

// Report is the result of reviewing one CSV.
type Report struct {
	// ApprovedFile and RejectedFile are the written report paths.
	ApprovedFile string
	RejectedFile string
	Approved     []Outcome
	Rejected     []Outcome
}

// Total returns the number of reviewed strings.
func (r *Report) Total() int { return len(r.Approved) + len(r.Rejected) }

// Options controls the review run.
type Options struct {
	// MaxWorkers bounds concurrent review requests. Default 4.
	MaxWorkers int
	// OnResult is called as each verdict arrives.
	OnResult func(o Outcome)
	// OnError emits error messages.
	OnError func(format string, args ...any)
}

func (o *Options) effectiveMaxWorkers() int {
	if o.MaxWorkers > 0 {
		return o.MaxWorkers
	}
	return 4
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	}
}

// ProcessFiles reviews every record of the input CSVs and writes
// approved_{lang}.csv and rejected_{lang}.csv under outputDir. A
// record whose review call fails lands in the rejected report with the
// error as explanation.
func ProcessFiles(ctx context.Context, tr *translate.Translator, inputCSVs []string, outputDir string, opts Options) (*Report, error) {
	var recs []records.Record
	for _, path := range inputCSVs {
		fileRecs, err := records.ReadFile(path, records.ModeUnreviewed)
		if err != nil {
			return nil, err
		}
		recs = append(recs, fileRecs...)
	}

	outcomes := reviewParallel(ctx, tr, recs, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report{}
	for _, o := range outcomes {
		if o.Approved {
			rep.Approved = append(rep.Approved, o)
		} else {
			rep.Rejected = append(rep.Rejected, o)
		}
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating review directory: %w", err)
	}
	lang := tr.Language()
	rep.ApprovedFile = filepath.Join(outputDir, "approved_"+lang+".csv")
	rep.RejectedFile = filepath.Join(outputDir, "rejected_"+lang+".csv")
	if err := writeReport(rep.ApprovedFile, rep.Approved); err != nil {
		return nil, err
	}
	if err := writeReport(rep.RejectedFile, rep.Rejected); err != nil {
		return nil, err
	}
	return rep, nil
}

// reviewParallel fans the records out to a bounded worker pool.
// Outcomes keep the input order so reports are stable across runs.
func reviewParallel(ctx context.Context, tr *translate.Translator, recs []records.Record, opts Options) []Outcome {
	outcomes := make([]Outcome, len(recs))
	sem := make(chan struct{}, opts.effectiveMaxWorkers())
	var wg sync.WaitGroup

	for i, rec := range recs {
		if ctx.Err() != nil {
			break
		}

		sem <- struct{}{}
		wg.Add(1)

		go func(i int, rec records.Record) {
			defer func() {
				<-sem
				wg.Done()
			}()

			rev, err := tr.ReviewString(ctx, rec.Source, rec.Translation, rec.Context)
			o := Outcome{Record: rec, Approved: rev.Approved, Explanation: rev.Reason}
			if err != nil {
				opts.logError("reviewing %q: %v", rec.Key, err)
				o.Approved = false
				o.Explanation = fmt.Sprintf("Error during review: %v", err)
			}
			outcomes[i] = o
			if opts.OnResult != nil {
				opts.OnResult(o)
			}
		}(i, rec)
	}

	wg.Wait()
	return outcomes
}

var reportHeader = []string{"Resource", "String Key", "Source String", "Translation", "Context", "Is Valid", "Explanation"}

// writeReport writes one verdict CSV. The header is always written so
// an empty report is still a readable file.
func writeReport(path string, outcomes []Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, o := range outcomes {
		row := []string{
			o.Record.Resource,
			o.Record.Key,
			o.Record.Source,
			o.Record.Translation,
			o.Record.Context,
			fmt.Sprintf("%t", o.Approved),
			o.Explanation,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
