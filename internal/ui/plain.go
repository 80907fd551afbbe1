package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu     sync.Mutex
	out    io.Writer
	stage  Stage
	errors []ErrorEvent
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stage = event.Stage

	// Format: [STAGE] current/total - message or file
	msg := event.Message
	if msg == "" {
		msg = event.CurrentFile
	}

	if event.Total > 0 {
		_, _ = fmt.Fprintf(r.out, "[%s] %d/%d - %s\n", event.Stage.Icon(), event.Current, event.Total, msg)
	} else if msg != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), msg)
	}
}

// AddError implements Renderer.
func (r *PlainRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors = append(r.errors, event)

	prefix := "ERROR"
	if event.IsWarn {
		prefix = "WARN"
	}

	if event.File != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s: %v\n", prefix, event.File, event.Err)
	} else {
		_, _ = fmt.Fprintf(r.out, "%s: %v\n", prefix, event.Err)
	}
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d pages, %d records indexed in %s",
		stats.Pages, stats.Records, stats.Duration.Round(100*time.Millisecond))

	if stats.Errors > 0 || stats.Warnings > 0 {
		_, _ = fmt.Fprintf(r.out, " (%d errors, %d warnings)", stats.Errors, stats.Warnings)
	}
	_, _ = fmt.Fprintln(r.out)

	if stats.Hidden > 0 || stats.Duplicates > 0 {
		_, _ = fmt.Fprintf(r.out, "Skipped: %d hidden pages, %d duplicate sections\n", stats.Hidden, stats.Duplicates)
	}

	if stats.Stages.Scan > 0 || stats.Stages.Parse > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintln(r.out, "Stage Breakdown:")
		_, _ = fmt.Fprintf(r.out, "  Scan:    %s (pages discovered)\n", stats.Stages.Scan.Round(time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Parse:   %s (records extracted)\n", stats.Stages.Parse.Round(time.Millisecond))
		_, _ = fmt.Fprintf(r.out, "  Publish: %s\n", stats.Stages.Publish.Round(time.Millisecond))
	}

	if len(stats.Publishes) > 0 {
		_, _ = fmt.Fprintln(r.out)
		for _, p := range stats.Publishes {
			_, _ = fmt.Fprintln(r.out, formatPublish(p))
		}
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

func formatPublish(p PublishSummary) string {
	if p.Skipped {
		return fmt.Sprintf("%s: skipped (%s)", p.Backend, p.Reason)
	}
	return fmt.Sprintf("%s: %d records -> %s", p.Backend, p.Records, p.Location)
}

var _ Renderer = (*PlainRenderer)(nil)
