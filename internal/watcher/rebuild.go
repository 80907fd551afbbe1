package watcher

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"
)

// BuildFunc rebuilds the index after the pages in batch changed.
type BuildFunc func(ctx context.Context, batch []FileEvent) error

// Rebuilder runs one build per batch of page events. Builds never overlap:
// batches that arrive while a build runs are merged into a single
// follow-up build.
type Rebuilder struct {
	build    BuildFunc
	runs     atomic.Int64
	failures atomic.Int64
}

// NewRebuilder creates a Rebuilder around build.
func NewRebuilder(build BuildFunc) *Rebuilder {
	return &Rebuilder{build: build}
}

// Run consumes batches until events is closed or ctx is done. A failed
// build is logged and the next batch still triggers a build.
func (r *Rebuilder) Run(ctx context.Context, events <-chan []FileEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-events:
			if !ok {
				return nil
			}
			batch, closed := drain(events, batch)
			r.runOnce(ctx, batch)
			if closed {
				return nil
			}
		}
	}
}

// Runs returns the number of builds started.
func (r *Rebuilder) Runs() int64 {
	return r.runs.Load()
}

// Failures returns the number of builds that returned an error.
func (r *Rebuilder) Failures() int64 {
	return r.failures.Load()
}

func (r *Rebuilder) runOnce(ctx context.Context, batch []FileEvent) {
	if ctx.Err() != nil {
		return
	}
	r.runs.Add(1)
	start := time.Now()

	slog.Info("rebuild_started",
		slog.Int("changed_pages", len(batch)))

	if err := r.build(ctx, batch); err != nil {
		r.failures.Add(1)
		slog.Error("rebuild_failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return
	}

	slog.Info("rebuild_complete",
		slog.Duration("duration", time.Since(start)))
}

// drain merges batches already queued behind first. Later events for a
// path replace earlier ones. closed reports that events was closed.
func drain(events <-chan []FileEvent, first []FileEvent) (merged []FileEvent, closed bool) {
	byPath := make(map[string]FileEvent, len(first))
	add := func(batch []FileEvent) {
		for _, e := range batch {
			byPath[e.Path] = e
		}
	}
	add(first)

loop:
	for {
		select {
		case batch, ok := <-events:
			if !ok {
				closed = true
				break loop
			}
			add(batch)
		default:
			break loop
		}
	}

	merged = make([]FileEvent, 0, len(byPath))
	for _, e := range byPath {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Path < merged[j].Path })
	return merged, closed
}
