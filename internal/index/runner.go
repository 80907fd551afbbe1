// Package index runs the build pipeline: scan the dist directory, extract
// records from every page and publish them.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/extract"
	"github.com/Aman-CERP/docindex/internal/metrics"
	"github.com/Aman-CERP/docindex/internal/objectid"
	"github.com/Aman-CERP/docindex/internal/publish"
	"github.com/Aman-CERP/docindex/internal/record"
	"github.com/Aman-CERP/docindex/internal/scanner"
	"github.com/Aman-CERP/docindex/internal/ui"
)

// RunnerConfig configures an indexing run.
type RunnerConfig struct {
	// DistDir is the generated site to index.
	DistDir string

	// OutputDir is the local index directory name inside DistDir. It is
	// never indexed.
	OutputDir string

	// SkipDirs are directory names left out of the scan. Nil uses the
	// scanner defaults.
	SkipDirs []string

	// ExcludePatterns are extra glob patterns left out of the scan.
	ExcludePatterns []string

	// HiddenPrefixes are page ID prefixes that never reach the index.
	HiddenPrefixes []string

	// Workers bounds parallel page parsing. Zero uses GOMAXPROCS.
	Workers int
}

// RunnerResult contains the outcome of an indexing operation.
type RunnerResult struct {
	Pages      int
	Records    int
	Hidden     int
	Duplicates int
	Replaced   int
	Warnings   int
	Duration   time.Duration
	Stages     ui.StageTimings
	Publishes  []*publish.Result
}

// RunnerDependencies contains the injected dependencies for Runner.
type RunnerDependencies struct {
	// Renderer for progress display (required).
	Renderer ui.Renderer

	// Publishers run in order after the records are built. None is a dry run.
	Publishers []publish.Publisher

	// Builder turns parsed pages into records. Nil uses default options.
	Builder *record.Builder

	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Runner executes indexing operations with progress reporting.
type Runner struct {
	renderer   ui.Renderer
	publishers []publish.Publisher
	builder    *record.Builder
	metrics    *metrics.Metrics
}

// NewRunner creates a Runner with injected dependencies.
func NewRunner(deps RunnerDependencies) (*Runner, error) {
	if deps.Renderer == nil {
		return nil, fmt.Errorf("renderer is required")
	}
	builder := deps.Builder
	if builder == nil {
		builder = record.NewBuilder(record.BuilderOptions{})
	}
	return &Runner{
		renderer:   deps.Renderer,
		publishers: deps.Publishers,
		builder:    builder,
		metrics:    deps.Metrics,
	}, nil
}

// parsed is the outcome of one page. A nil page with a nil err means the
// page was hidden.
type parsed struct {
	page    *record.Page
	records []*record.SearchRecord
	err     error
}

// Run executes the full pipeline. Page level failures are reported as
// warnings and the page is skipped; publish failures fail the run.
func (r *Runner) Run(ctx context.Context, cfg RunnerConfig) (*RunnerResult, error) {
	start := time.Now()
	result := &RunnerResult{}

	slog.Info("index_started",
		slog.String("dist", cfg.DistDir),
		slog.Int("publishers", len(r.publishers)))

	// Stage 1: Scan
	scanStart := time.Now()
	files, err := r.scan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	result.Stages.Scan = time.Since(scanStart)
	if r.metrics != nil {
		r.metrics.PagesScannedTotal.Add(float64(len(files)))
	}

	// Stage 2: Parse and extract
	parseStart := time.Now()
	outcomes, err := r.parseAll(ctx, cfg, files)
	if err != nil {
		return nil, err
	}

	// Stage 3: Merge in file order
	collector := record.NewCollector()
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			result.Warnings++
			r.skip("parse_error")
			r.renderer.AddError(ui.ErrorEvent{File: files[i].Path, Err: o.err, IsWarn: true})
			slog.Warn("page_skipped_parse_error",
				slog.String("file", files[i].Path),
				slog.String("error", o.err.Error()))
		case o.page == nil:
			result.Hidden++
			r.skip("hidden")
		default:
			collector.Add(o.page.ID, o.records)
		}
	}
	result.Stages.Parse = time.Since(parseStart)

	stats := collector.Stats()
	records := collector.Records()
	result.Pages = stats.Pages
	result.Records = stats.Records
	result.Duplicates = stats.DuplicateAnchors
	result.Replaced = stats.ReplacedPages
	r.observeRecords(records, stats)
	if r.metrics != nil {
		r.metrics.BuildDuration.Observe(time.Since(start).Seconds())
	}

	slog.Info("index_records_built",
		slog.Int("files", len(files)),
		slog.Int("pages", stats.Pages),
		slog.Int("records", stats.Records),
		slog.Int("hidden", result.Hidden),
		slog.Int("duplicates", stats.DuplicateAnchors),
		slog.Int("replaced", stats.ReplacedPages),
		slog.Int("warnings", result.Warnings))

	// Stage 4: Publish
	publishStart := time.Now()
	pubs, err := r.publish(ctx, records)
	result.Publishes = pubs
	result.Stages.Publish = time.Since(publishStart)
	result.Duration = time.Since(start)
	if err != nil {
		r.renderer.AddError(ui.ErrorEvent{Err: err})
		return result, err
	}

	// Stage 5: Report
	r.renderer.Complete(ui.CompletionStats{
		Pages:      result.Pages,
		Records:    result.Records,
		Hidden:     result.Hidden,
		Duplicates: result.Duplicates,
		Duration:   result.Duration,
		Warnings:   result.Warnings,
		Stages:     result.Stages,
		Publishes:  summaries(pubs),
	})

	slog.Info("index_complete",
		slog.Int("pages", result.Pages),
		slog.Int("records", result.Records),
		slog.String("duration_total", result.Duration.String()),
		slog.Int64("duration_total_ms", result.Duration.Milliseconds()),
		slog.Int64("duration_scan_ms", result.Stages.Scan.Milliseconds()),
		slog.Int64("duration_parse_ms", result.Stages.Parse.Milliseconds()),
		slog.Int64("duration_publish_ms", result.Stages.Publish.Milliseconds()),
		slog.String("path", cfg.DistDir))

	return result, nil
}

// scan lists the pages of the dist directory.
func (r *Runner) scan(ctx context.Context, cfg RunnerConfig) ([]*scanner.PageFile, error) {
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageScanning,
		Message: fmt.Sprintf("Scanning %s...", cfg.DistDir),
	})
	slog.Info("index_scan_started", slog.String("path", cfg.DistDir))

	if info, err := os.Stat(cfg.DistDir); err != nil || !info.IsDir() {
		return nil, docerrors.New(docerrors.ErrCodeDistNotFound, "dist directory not found", err).
			WithDetail("path", cfg.DistDir).
			WithSuggestion("Build the site first, or pass --dist")
	}

	exclude := append([]string(nil), cfg.ExcludePatterns...)
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = publish.DefaultOutputDir
	}
	exclude = append(exclude, outputDir+"/**")

	files, err := scanner.New().Collect(ctx, &scanner.ScanOptions{
		RootDir:         cfg.DistDir,
		SkipDirs:        cfg.SkipDirs,
		ExcludePatterns: exclude,
	})
	if err != nil {
		return nil, err
	}

	slog.Info("index_scan_complete", slog.Int("files", len(files)))
	r.renderer.UpdateProgress(ui.ProgressEvent{
		Stage:   ui.StageScanning,
		Current: len(files),
		Total:   len(files),
		Message: fmt.Sprintf("Found %d pages", len(files)),
	})
	return files, nil
}

// parseAll parses pages in parallel. Outcomes are stored by file index so
// the merge that follows is deterministic.
func (r *Runner) parseAll(ctx context.Context, cfg RunnerConfig, files []*scanner.PageFile) ([]parsed, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]parsed, len(files))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.parsePage(cfg, f)
			n := done.Add(1)
			r.renderer.UpdateProgress(ui.ProgressEvent{
				Stage:       ui.StageParsing,
				Current:     int(n),
				Total:       len(files),
				CurrentFile: f.Path,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// parsePage resolves, filters and extracts one page.
func (r *Runner) parsePage(cfg RunnerConfig, f *scanner.PageFile) parsed {
	fh, err := os.Open(f.AbsPath)
	if err != nil {
		return parsed{err: docerrors.IOError("failed to open page", err).WithDetail("file", f.Path)}
	}
	defer func() { _ = fh.Close() }()

	doc, err := extract.Parse(fh)
	if err != nil {
		return parsed{err: docerrors.New(docerrors.ErrCodeHTMLParse, "failed to parse page", err).
			WithDetail("file", f.Path)}
	}

	id, err := objectid.Resolve(doc.Canonical, cfg.DistDir, f.AbsPath)
	if err != nil {
		return parsed{err: docerrors.New(docerrors.ErrCodeInvalidPath, "failed to resolve page ID", err).
			WithDetail("file", f.Path)}
	}

	if objectid.IsHidden(id, cfg.HiddenPrefixes) {
		slog.Debug("page_skipped_hidden", slog.String("page", id), slog.String("file", f.Path))
		return parsed{}
	}

	page := &record.Page{ID: id, Doc: doc}
	return parsed{page: page, records: r.builder.Build(*page)}
}

// publish runs every publisher in order, stopping at the first failure.
func (r *Runner) publish(ctx context.Context, records []*record.SearchRecord) ([]*publish.Result, error) {
	var results []*publish.Result
	for i, p := range r.publishers {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StagePublishing,
			Current: i,
			Total:   len(r.publishers),
			Message: p.Name(),
		})

		start := time.Now()
		res, err := p.Publish(ctx, records)
		r.metrics.ObservePublish(p.Name(), time.Since(start), err == nil && res.Skipped, err)
		if err != nil {
			slog.Error("publish_failed",
				slog.String("backend", p.Name()),
				slog.String("error", err.Error()))
			return results, err
		}

		results = append(results, res)
		if res.Skipped {
			slog.Info("publish_skipped",
				slog.String("backend", res.Backend),
				slog.String("reason", res.Reason))
			continue
		}
		slog.Info("publish_complete",
			slog.String("backend", res.Backend),
			slog.Int("records", res.Records),
			slog.Int("pages", res.Pages),
			slog.String("location", res.Location),
			slog.Int64("duration_ms", res.Duration.Milliseconds()))
	}
	if len(r.publishers) > 0 {
		r.renderer.UpdateProgress(ui.ProgressEvent{
			Stage:   ui.StagePublishing,
			Current: len(r.publishers),
			Total:   len(r.publishers),
		})
	}
	return results, nil
}

func (r *Runner) skip(reason string) {
	if r.metrics != nil {
		r.metrics.PagesSkippedTotal.WithLabelValues(reason).Inc()
	}
}

func (r *Runner) observeRecords(records []*record.SearchRecord, stats record.CollectorStats) {
	if r.metrics == nil {
		return
	}
	for _, rec := range records {
		r.metrics.RecordsBuiltTotal.WithLabelValues(string(rec.Type)).Inc()
	}
	r.metrics.DuplicatesDropped.Add(float64(stats.DuplicateAnchors))
	r.metrics.PagesReplaced.Add(float64(stats.ReplacedPages))
}

func summaries(results []*publish.Result) []ui.PublishSummary {
	out := make([]ui.PublishSummary, 0, len(results))
	for _, res := range results {
		out = append(out, ui.PublishSummary{
			Backend:  res.Backend,
			Skipped:  res.Skipped,
			Reason:   res.Reason,
			Records:  res.Records,
			Location: res.Location,
		})
	}
	return out
}
