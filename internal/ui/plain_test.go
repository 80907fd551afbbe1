package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainRenderer_UpdateProgress_OutputFormat(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating progress
	r.UpdateProgress(ProgressEvent{
		Stage:       StageParsing,
		Current:     50,
		Total:       100,
		CurrentFile: "workflow/rebase/index.html",
	})

	// Then: output is correctly formatted
	assert.Equal(t, "[PARSE] 50/100 - workflow/rebase/index.html\n", buf.String())
}

func TestPlainRenderer_UpdateProgress_NoANSICodes(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: rendering progress through all stages
	for _, stage := range []Stage{StageScanning, StageParsing, StagePublishing, StageComplete} {
		r.UpdateProgress(ProgressEvent{Stage: stage, Current: 50, Total: 100, Message: "Processing..."})
	}

	// Then: output contains no ANSI escape codes
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestPlainRenderer_UpdateProgress_MessageWins(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	r.UpdateProgress(ProgressEvent{
		Stage:       StagePublishing,
		Current:     1,
		Total:       2,
		CurrentFile: "ignored.html",
		Message:     "algolia",
	})

	assert.Equal(t, "[PUBLISH] 1/2 - algolia\n", buf.String())
}

func TestPlainRenderer_UpdateProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: no total and no message
	r.UpdateProgress(ProgressEvent{Stage: StageScanning})
	assert.Empty(t, buf.String())

	// When: no total but a message
	r.UpdateProgress(ProgressEvent{Stage: StageScanning, Message: "Discovering pages..."})
	assert.Equal(t, "[SCAN] Discovering pages...\n", buf.String())
}

func TestPlainRenderer_AddError(t *testing.T) {
	tests := []struct {
		name  string
		event ErrorEvent
		want  string
	}{
		{
			name:  "error with file",
			event: ErrorEvent{File: "broken.html", Err: errors.New("parse failed")},
			want:  "ERROR: broken.html: parse failed\n",
		},
		{
			name:  "warning with file",
			event: ErrorEvent{File: "odd.html", Err: errors.New("no title"), IsWarn: true},
			want:  "WARN: odd.html: no title\n",
		},
		{
			name:  "error without file",
			event: ErrorEvent{Err: errors.New("publish failed")},
			want:  "ERROR: publish failed\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			r := NewPlainRenderer(NewConfig(buf))

			r.AddError(tt.event)

			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPlainRenderer_Complete_Basic(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: completing
	r.Complete(CompletionStats{Pages: 12, Records: 87, Duration: 1500 * time.Millisecond})

	// Then: summary line is printed
	assert.Equal(t, "Complete: 12 pages, 87 records indexed in 1.5s\n", buf.String())
}

func TestPlainRenderer_Complete_Details(t *testing.T) {
	// Given: a run with skips, timings and publishers
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: completing
	r.Complete(CompletionStats{
		Pages:      10,
		Records:    40,
		Hidden:     2,
		Duplicates: 1,
		Duration:   2 * time.Second,
		Errors:     1,
		Warnings:   3,
		Stages: StageTimings{
			Scan:    20 * time.Millisecond,
			Parse:   900 * time.Millisecond,
			Publish: time.Second,
		},
		Publishes: []PublishSummary{
			{Backend: "algolia", Skipped: true, Reason: "credentials not configured"},
			{Backend: "local", Records: 40, Location: "dist/docindex"},
		},
	})

	// Then: every section is present
	out := buf.String()
	assert.Contains(t, out, "(1 errors, 3 warnings)")
	assert.Contains(t, out, "Skipped: 2 hidden pages, 1 duplicate sections")
	assert.Contains(t, out, "Stage Breakdown:")
	assert.Contains(t, out, "Parse:   900ms")
	assert.Contains(t, out, "algolia: skipped (credentials not configured)")
	assert.Contains(t, out, "local: 40 records -> dist/docindex")
	assert.NotContains(t, out, "\x1b[")
}

func TestPlainRenderer_StartStop(t *testing.T) {
	r := NewPlainRenderer(NewConfig(&bytes.Buffer{}))

	require.NoError(t, r.Start(context.Background()))
	require.NoError(t, r.Stop())
}

func TestPlainRenderer_ThreadSafe(t *testing.T) {
	// Given: a plain renderer
	buf := &bytes.Buffer{}
	r := NewPlainRenderer(NewConfig(buf))

	// When: updating from many goroutines
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.UpdateProgress(ProgressEvent{Stage: StageParsing, Current: i, Total: 50, CurrentFile: "page.html"})
		}()
		go func() {
			defer wg.Done()
			r.AddError(ErrorEvent{File: "page.html", Err: assert.AnError, IsWarn: true})
		}()
	}
	wg.Wait()

	// Then: every line is intact
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 100)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "[PARSE]") || strings.HasPrefix(line, "WARN:"), line)
	}
}

func TestFormatPublish(t *testing.T) {
	assert.Equal(t, "algolia: skipped (no records)",
		formatPublish(PublishSummary{Backend: "algolia", Skipped: true, Reason: "no records"}))
	assert.Equal(t, "local: 3 records -> out",
		formatPublish(PublishSummary{Backend: "local", Records: 3, Location: "out"}))
}
