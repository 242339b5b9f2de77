// txsync — Transifex translation pipeline with AI translation and review.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/openedx/txsync/cache"
	"github.com/openedx/txsync/config"
	"github.com/openedx/txsync/records"
	"github.com/openedx/txsync/results"
	"github.com/openedx/txsync/review"
	"github.com/openedx/txsync/transifex"
	"github.com/openedx/txsync/translate"
	"github.com/openedx/txsync/validate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	blue   = color.New(color.FgBlue).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", blue("[INFO]"), fmt.Sprintf(format, args...))
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", green("[OK]"), fmt.Sprintf(format, args...))
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", yellow("[WARN]"), fmt.Sprintf(format, args...))
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", red("[ERROR]"), fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "txsync",
		Short: "Sync Transifex translations with AI translation and review",
		Long: `txsync — Transifex translation pipeline with AI translation and review.

Fetches untranslated or unreviewed strings from a Transifex project,
translates or reviews them with an OpenAI-compatible chat model, and
optionally pushes the outcome back to Transifex.

Commands:
  fetch-strings  Fetch strings from Transifex into CSV files
  translate      Translate or review fetched strings with the model
  update         Push saved translation results back to Transifex
  review         Review unreviewed strings and split verdicts into reports
  download       Download translation files to the paths in transifex.yml
  validate       Check translation files for placeholder consistency

Configuration is read from the environment (a .env file under --root is
honored): TRANSIFEX_API_TOKEN, TRANSIFEX_ORGANIZATION, TRANSIFEX_PROJECT,
TARGET_LANGUAGES, OPENAI_API_KEY and optionally OPENAI_BASE_URL and
TRANSLATION_MODEL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newFetchStringsCmd(),
		newTranslateCmd(),
		newUpdateCmd(),
		newReviewCmd(),
		newDownloadCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on the first interrupt so
// every stage can stop between records and keep what it already saved.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, saving progress...")
		cancel()
	}()
	return ctx, cancel
}

// ---------------------------------------------------------------------------
// Pipeline setup
// ---------------------------------------------------------------------------

// pipeline bundles the configuration, the Transifex client and the
// artifact directories resolved against the project root.
type pipeline struct {
	cfg      *config.Config
	client   *transifex.Client
	resolver cache.Resolver

	outputDir       string
	translationsDir string
	reviewsDir      string
}

func newPipeline() (*pipeline, error) {
	cfg, err := config.Load(rootDir)
	if err != nil {
		return nil, err
	}
	client, err := transifex.New(cfg.APIToken, cfg.Organization, cfg.Project)
	if err != nil {
		return nil, err
	}
	outputDir := filepath.Join(rootDir, cfg.OutputDir)
	return &pipeline{
		cfg:             cfg,
		client:          client,
		resolver:        cache.Resolver{Dir: outputDir},
		outputDir:       outputDir,
		translationsDir: filepath.Join(rootDir, cfg.TranslationsDir),
		reviewsDir:      filepath.Join(rootDir, cfg.ReviewsDir),
	}, nil
}

func (p *pipeline) translator(lang string) (*translate.Translator, error) {
	return translate.New(p.cfg.OpenAIAPIKey, p.cfg.OpenAIBaseURL, p.cfg.Model, lang)
}

// ---------------------------------------------------------------------------
// fetch-strings command
// ---------------------------------------------------------------------------

func newFetchStringsCmd() *cobra.Command {
	var modeStr string
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch-strings",
		Short: "Fetch strings from Transifex into CSV files",
		Long: `Fetch untranslated or unreviewed strings for every resource and
target language and save them as CSV files under the output directory.
An existing CSV is reused as-is unless --force-download is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := records.ParseMode(modeStr)
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			_, err = p.fetchStrings(ctx, mode, p.cfg.TargetLanguages, force)
			return err
		},
	}

	cmd.Flags().StringVar(&modeStr, "mode", string(records.ModeUntranslated), "String filter: untranslated or unreviewed")
	cmd.Flags().BoolVar(&force, "force-download", false, "Fetch from Transifex even if a CSV already exists")
	return cmd
}

// fetchStrings fetches strings for every resource and language pair and
// writes one CSV artifact per pair. A pair whose fetch fails is logged
// and skipped; only the initial resource listing is fatal. When an
// artifact is force-refetched, records present only in the old artifact
// are kept.
func (p *pipeline) fetchStrings(ctx context.Context, mode records.Mode, langs []string, force bool) ([]transifex.Resource, error) {
	resources, err := p.client.Resources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing resources: %w", err)
	}
	logInfo("Found %d resources in project %s", len(resources), p.cfg.Project)

	for _, res := range resources {
		for _, lang := range langs {
			if err := ctx.Err(); err != nil {
				return resources, err
			}

			key := cache.Key{Resource: res.Slug, Lang: lang, Mode: mode}
			useCache, path := p.resolver.Resolve(key, force)
			if useCache {
				logInfo("Using cached %s strings for %s [%s]", mode, res.Slug, lang)
				continue
			}

			var recs []records.Record
			var fetchErr error
			switch mode {
			case records.ModeUntranslated:
				recs, fetchErr = p.client.UntranslatedStrings(ctx, res.Slug, lang, nil)
			case records.ModeUnreviewed:
				recs, fetchErr = p.client.UnreviewedStrings(ctx, res.Slug, lang, nil)
			}
			if fetchErr != nil {
				logError("Fetching %s strings for %s [%s]: %v", mode, res.Slug, lang, fetchErr)
				continue
			}

			if cached, rerr := records.ReadFile(path, mode); rerr == nil && len(cached) > 0 {
				recs = cache.Merge(cached, recs)
			}
			if werr := records.WriteFile(path, recs, mode); werr != nil {
				logError("Writing %s: %v", path, werr)
				continue
			}
			logSuccess("Saved %d %s strings for %s [%s] to %s", len(recs), mode, res.Slug, lang, path)
		}
	}
	return resources, nil
}

// ---------------------------------------------------------------------------
// translate command
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var modeStr string
	var force bool
	var updateTransifex bool

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate or review fetched strings with the model",
		Long: `Run the model over every fetched CSV. In untranslated mode the model
translates each string; in unreviewed mode it reviews the existing
translation. Results are merged into per-language JSON files under the
translations directory. Strings the model fails on are skipped, never
fatal. With --update-transifex the results are pushed back afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := records.ParseMode(modeStr)
			if err != nil {
				return err
			}
			p, err := newPipeline()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			if err := p.runTranslate(ctx, mode, force); err != nil {
				return err
			}
			if updateTransifex {
				return p.runUpdate(ctx)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modeStr, "mode", string(records.ModeUntranslated), "String filter: untranslated or unreviewed")
	cmd.Flags().BoolVar(&force, "force-download", false, "Fetch from Transifex even if a CSV already exists")
	cmd.Flags().BoolVar(&updateTransifex, "update-transifex", false, "Push results back to Transifex after translating")
	return cmd
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *pipeline) runTranslate(ctx context.Context, mode records.Mode, force bool) error {
	resources, err := p.fetchStrings(ctx, mode, p.cfg.TargetLanguages, force)
	if err != nil {
		return err
	}

	store := results.Store{Dir: p.translationsDir}
	for _, lang := range p.cfg.TargetLanguages {
		tr, err := p.translator(lang)
		if err != nil {
			return err
		}

		for _, res := range resources {
			path := p.resolver.Path(cache.Key{Resource: res.Slug, Lang: lang, Mode: mode})
			recs, err := records.ReadFile(path, mode)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				logError("Reading %s: %v", path, err)
				continue
			}
			if len(recs) == 0 {
				continue
			}

			logInfo("Processing %d %s strings for %s [%s]", len(recs), mode, res.Slug, lang)
			bar := newProgressBar(len(recs), fmt.Sprintf("%s [%s]", res.Slug, lang))
			out, procErr := tr.ProcessRecords(ctx, recs, mode, translate.Options{
				OnProgress: func(done, total int) { _ = bar.Set(done) },
				OnError: func(format string, args ...any) {
					_ = bar.Clear()
					logError(format, args...)
				},
			})
			fmt.Fprintln(os.Stderr)

			// Save whatever finished, even on interrupt.
			if len(out) > 0 {
				saved, serr := store.Save(lang, res.Slug, out)
				if serr != nil {
					logError("Saving results for %s [%s]: %v", res.Slug, lang, serr)
				} else {
					logSuccess("Saved %d results for %s [%s] to %s", len(out), res.Slug, lang, saved)
				}
			}
			if procErr != nil {
				return procErr
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// update command
// ---------------------------------------------------------------------------

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Push saved translation results back to Transifex",
		Long: `Read every per-language JSON file under the translations directory and
push it to Transifex: translate results update the translation text,
approved review results mark the translation as reviewed. Individual
upload failures are logged; the command fails only when every attempted
upload failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return p.runUpdate(ctx)
		},
	}
	return cmd
}

// uploadTally tracks the outcome of an upload run. The run as a whole
// fails only when every attempted upload failed, so one bad record
// cannot mask hundreds of successful ones.
type uploadTally struct {
	attempted int
	failed    int
	skipped   int
}

func (t *uploadTally) succeeded() int { return t.attempted - t.failed }

func (t *uploadTally) allFailed() bool { return t.attempted > 0 && t.failed == t.attempted }

// resultsLang extracts the language code from a results file name
// ("ar.json" gives "ar"). Returns "" for non-results files.
func resultsLang(name string) string {
	if !strings.HasSuffix(name, ".json") {
		return ""
	}
	return strings.TrimSuffix(name, ".json")
}

func (p *pipeline) runUpdate(ctx context.Context) error {
	entries, err := os.ReadDir(p.translationsDir)
	if errors.Is(err, fs.ErrNotExist) {
		logWarning("No translations directory at %s, nothing to upload", p.translationsDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", p.translationsDir, err)
	}

	resources, err := p.client.Resources(ctx)
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	known := make(map[string]bool, len(resources))
	for _, res := range resources {
		known[res.Slug] = true
	}

	store := results.Store{Dir: p.translationsDir}
	var tally uploadTally

	for _, entry := range entries {
		lang := resultsLang(entry.Name())
		if entry.IsDir() || lang == "" {
			continue
		}

		doc, err := store.Load(lang)
		if err != nil {
			logError("Loading results for %s: %v", lang, err)
			continue
		}

		slugs := make([]string, 0, len(doc))
		for slug := range doc {
			slugs = append(slugs, slug)
		}
		sort.Strings(slugs)

		for _, slug := range slugs {
			if !known[slug] {
				logWarning("Resource %s not found in project, skipping %d results", slug, len(doc[slug]))
				tally.skipped += len(doc[slug])
				continue
			}
			for _, r := range doc[slug] {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := p.uploadResult(ctx, slug, lang, r, &tally); err != nil {
					logError("Uploading %q to %s [%s]: %v", r.Key, slug, lang, err)
					tally.failed++
				}
			}
		}
	}

	logSuccess("Uploaded %d results (%d failed, %d skipped)", tally.succeeded(), tally.failed, tally.skipped)
	if tally.allFailed() {
		return fmt.Errorf("all %d uploads failed", tally.attempted)
	}
	return nil
}

// uploadResult pushes one result. Translate results without a
// translation and review results without approval are skipped.
func (p *pipeline) uploadResult(ctx context.Context, slug, lang string, r results.Result, tally *uploadTally) error {
	switch r.Action {
	case results.ActionTranslate:
		if r.Translation == "" {
			tally.skipped++
			return nil
		}
		tally.attempted++
		return p.client.UpdateTranslation(ctx, slug, lang, r.Key, r.Translation)

	case results.ActionReview:
		if r.Approved == nil || !*r.Approved {
			tally.skipped++
			return nil
		}
		tally.attempted++
		return p.client.ReviewTranslation(ctx, slug, lang, r.Key)

	default:
		tally.skipped++
		logWarning("Unknown action %q for %q in %s [%s]", r.Action, r.Key, slug, lang)
		return nil
	}
}

// ---------------------------------------------------------------------------
// review command
// ---------------------------------------------------------------------------

func newReviewCmd() *cobra.Command {
	var language string
	var update bool
	var force bool
	var approveAll bool
	var workers int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review unreviewed strings and split verdicts into reports",
		Long: `Review fetched unreviewed strings in parallel and write
approved_{lang}.csv and rejected_{lang}.csv under the reviews directory.
Strings whose review call fails land in the rejected report with the
error as explanation. With --update, previously approved strings are
marked as reviewed on Transifex instead; each string is confirmed
interactively unless --approve-all is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			langs := p.cfg.TargetLanguages
			if language != "" {
				langs = []string{language}
			}

			if update {
				return p.uploadApproved(ctx, langs, approveAll, os.Stdin)
			}
			return p.runReview(ctx, langs, force, workers)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Review a single language instead of all configured ones")
	cmd.Flags().BoolVar(&update, "update", false, "Mark previously approved strings as reviewed on Transifex")
	cmd.Flags().BoolVar(&force, "force-download", false, "Fetch from Transifex even if a CSV already exists")
	cmd.Flags().BoolVar(&approveAll, "approve-all", false, "Skip per-string confirmation with --update")
	cmd.Flags().IntVar(&workers, "workers", 4, "Concurrent review requests")
	return cmd
}

// reviewArtifacts lists the unreviewed CSV artifacts for one language.
func reviewArtifacts(outputDir, lang string) []string {
	pattern := filepath.Join(outputDir, fmt.Sprintf("%s_*_%s.csv", records.ModeUnreviewed, lang))
	paths, _ := filepath.Glob(pattern)
	sort.Strings(paths)
	return paths
}

func (p *pipeline) runReview(ctx context.Context, langs []string, force bool, workers int) error {
	for _, lang := range langs {
		inputs := reviewArtifacts(p.outputDir, lang)
		if force || len(inputs) == 0 {
			if _, err := p.fetchStrings(ctx, records.ModeUnreviewed, []string{lang}, force); err != nil {
				return err
			}
			inputs = reviewArtifacts(p.outputDir, lang)
		}
		if len(inputs) == 0 {
			logWarning("No unreviewed strings for [%s]", lang)
			continue
		}

		tr, err := p.translator(lang)
		if err != nil {
			return err
		}

		logInfo("Reviewing %d files for [%s] with %d workers", len(inputs), lang, workers)
		rep, err := review.ProcessFiles(ctx, tr, inputs, p.reviewsDir, review.Options{
			MaxWorkers: workers,
			OnResult: func(o review.Outcome) {
				if o.Approved {
					logSuccess("APPROVE %s/%s", o.Record.Resource, o.Record.Key)
				} else {
					logWarning("REJECT %s/%s: %s", o.Record.Resource, o.Record.Key, o.Explanation)
				}
			},
			OnError: logError,
		})
		if err != nil {
			return err
		}
		logSuccess("[%s] %d approved (%s), %d rejected (%s)",
			lang, len(rep.Approved), rep.ApprovedFile, len(rep.Rejected), rep.RejectedFile)
	}
	return nil
}

// uploadApproved marks the strings of approved_{lang}.csv as reviewed
// on Transifex. Without approveAll each string is confirmed on stdin.
func (p *pipeline) uploadApproved(ctx context.Context, langs []string, approveAll bool, in io.Reader) error {
	reader := bufio.NewReader(in)
	var tally uploadTally

	for _, lang := range langs {
		path := filepath.Join(p.reviewsDir, "approved_"+lang+".csv")
		rows, err := readApprovedReport(path)
		if errors.Is(err, fs.ErrNotExist) {
			logWarning("No approved report for [%s] at %s", lang, path)
			continue
		}
		if err != nil {
			return err
		}

		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !approveAll {
				fmt.Fprintf(os.Stderr, "Mark %s/%s as reviewed? [y/N]: ", row.Resource, row.Key)
				answer, _ := reader.ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					tally.skipped++
					continue
				}
			}
			tally.attempted++
			if err := p.client.ReviewTranslation(ctx, row.Resource, lang, row.Key); err != nil {
				logError("Marking %s/%s as reviewed [%s]: %v", row.Resource, row.Key, lang, err)
				tally.failed++
			}
		}
	}

	logSuccess("Marked %d strings as reviewed (%d failed, %d skipped)", tally.succeeded(), tally.failed, tally.skipped)
	if tally.allFailed() {
		return fmt.Errorf("all %d uploads failed", tally.attempted)
	}
	return nil
}

// readApprovedReport reads an approved review report back. Only rows
// whose verdict column still says true are returned, so a hand-edited
// report can demote strings before upload.
func readApprovedReport(path string) ([]records.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, required := range []string{"Resource", "String Key", "Is Valid"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	var out []records.Record
	for _, row := range rows[1:] {
		if row[col["Is Valid"]] != "true" {
			continue
		}
		out = append(out, records.Record{
			Resource: row[col["Resource"]],
			Key:      row[col["String Key"]],
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// download command
// ---------------------------------------------------------------------------

func newDownloadCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download translation files to the paths in transifex.yml",
		Long: `Download the translated file of every resource declared in
transifex.yml for every target language, writing each file to the path
derived from the filter's path expression. Files that already exist are
skipped unless --force-download is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			return p.runDownload(ctx, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force-download", false, "Overwrite files that already exist")
	return cmd
}

func (p *pipeline) runDownload(ctx context.Context, force bool) error {
	resourceMap, err := config.LoadResourceMap(rootDir)
	if err != nil {
		return err
	}
	if resourceMap == nil {
		return fmt.Errorf("no %s found under %s", config.TransifexFileName, rootDir)
	}

	resources, err := p.client.Resources(ctx)
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	logInfo("Matching %d resources against %d filters", len(resources), resourceMap.Len())

	var completed, failed, skipped int
	for _, res := range resources {
		rc, ok := resourceMap.Match(res.Slug)
		if !ok {
			logWarning("Resource %s has no filter in %s", res.Slug, config.TransifexFileName)
			continue
		}

		for _, lang := range p.cfg.TargetLanguages {
			if err := ctx.Err(); err != nil {
				return err
			}

			outPath := filepath.Join(rootDir, rc.PathFor(lang, config.IsJSResource(res.Slug)))
			if !force {
				if _, err := os.Stat(outPath); err == nil {
					logInfo("Skipping %s, already exists", outPath)
					skipped++
					continue
				}
			}

			content, err := p.client.DownloadTranslation(ctx, res.Slug, lang)
			if err != nil {
				logError("Downloading %s [%s]: %v", res.Slug, lang, err)
				failed++
				continue
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				logError("Creating directory for %s: %v", outPath, err)
				failed++
				continue
			}
			if err := os.WriteFile(outPath, content, 0o644); err != nil {
				logError("Writing %s: %v", outPath, err)
				failed++
				continue
			}
			logSuccess("Downloaded %s [%s] to %s", res.Slug, lang, outPath)
			completed++
		}
	}

	logSuccess("Download finished: %d completed, %d failed, %d skipped", completed, failed, skipped)
	if failed > 0 && completed == 0 {
		return fmt.Errorf("all %d downloads failed", failed)
	}
	return nil
}

// ---------------------------------------------------------------------------
// validate command
// ---------------------------------------------------------------------------

func newValidateCmd() *cobra.Command {
	var directory string
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check translation files for placeholder consistency",
		Long: `Walk a directory of translation files (PO, JSON, YAML) and check each
translated string against its source: placeholders present in the
source must survive in the translation, and none may be invented. The
command fails if any file has issues.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Join(rootDir, directory)
			rep, err := validate.Directory(dir, format)
			if err != nil {
				return err
			}

			for _, res := range rep.Invalid {
				logError("%s:", res.Path)
				for _, issue := range res.Issues {
					fmt.Fprintf(os.Stderr, "    %s: %s\n", issue.Location, issue.Message)
				}
			}
			logInfo("Checked %d files: %d valid, %d invalid", rep.Total(), len(rep.Valid), len(rep.Invalid))
			if !rep.OK() {
				return fmt.Errorf("%d files with issues", len(rep.Invalid))
			}
			logSuccess("All translation files are valid")
			return nil
		},
	}

	cmd.Flags().StringVar(&directory, "directory", config.DefaultTranslationsDir, "Directory to validate, relative to --root")
	cmd.Flags().StringVar(&format, "format", validate.FormatAll, "File format to validate: all, po, json or yaml")
	return cmd
}

// ---------------------------------------------------------------------------
// version command
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("txsync %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
