package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTUIRenderer_RejectsNonTTY(t *testing.T) {
	// Given: a non-TTY buffer
	cfg := NewConfig(&bytes.Buffer{})

	// When: creating TUI renderer
	r, err := NewTUIRenderer(cfg)

	// Then: it fails
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestIndexingModel_StageIndicators(t *testing.T) {
	tracker := NewProgressTracker()
	model := newIndexingModel(tracker, "")
	model.styles = NoColorStyles()

	tracker.SetStage(StageParsing, 100)
	view := model.View()

	assert.Contains(t, view, "● Scan")
	assert.Contains(t, view, "Parse")
	assert.Contains(t, view, "○ Publish")
}

func TestIndexingModel_HeaderShowsSiteDir(t *testing.T) {
	model := newIndexingModel(NewProgressTracker(), "dist")

	assert.Contains(t, model.View(), "docindex • dist")
}

func TestIndexingModel_ProgressDisplay(t *testing.T) {
	// Given: a model half way through parsing
	tracker := NewProgressTracker()
	tracker.SetStage(StageParsing, 100)
	tracker.Update(50, "workflow/rebase/index.html")
	model := newIndexingModel(tracker, "")

	// When: rendering view
	view := model.View()

	// Then: counts and current page are shown
	assert.Contains(t, view, "50 / 100 pages")
	assert.Contains(t, view, "index.html")
}

func TestIndexingModel_StatusBarCounts(t *testing.T) {
	tracker := NewProgressTracker()
	tracker.AddError(ErrorEvent{File: "broken.html", Err: assert.AnError})
	tracker.AddError(ErrorEvent{File: "odd.html", Err: assert.AnError, IsWarn: true})
	tracker.AddError(ErrorEvent{File: "odd2.html", Err: assert.AnError, IsWarn: true})
	model := newIndexingModel(tracker, "")

	view := model.View()

	assert.Contains(t, view, "2 warnings")
	assert.Contains(t, view, "1 errors")
}

func TestIndexingModel_CompleteQuits(t *testing.T) {
	// Given: a running model
	model := newIndexingModel(NewProgressTracker(), "")

	// When: the run completes
	_, cmd := model.Update(completeMsg(CompletionStats{
		Pages:     12,
		Records:   87,
		Duration:  3 * time.Second,
		Publishes: []PublishSummary{{Backend: "local", Records: 87, Location: "dist/docindex"}},
	}))

	// Then: the summary renders and the program quits
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	view := model.View()
	assert.Contains(t, view, "Indexing Complete")
	assert.Contains(t, view, "87")
	assert.Contains(t, view, "local: 87 records -> dist/docindex")
}

func TestIndexingModel_QuitKey(t *testing.T) {
	model := newIndexingModel(NewProgressTracker(), "")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})

	require.NotNil(t, cmd)
	assert.Equal(t, "Cancelled.\n", model.View())
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{42 * time.Second, "42s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
		{time.Hour + 30*time.Minute, "1h 30m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDuration(tt.in))
		})
	}
}

func TestTruncateFilePath(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		maxLen int
		check  func(t *testing.T, got string)
	}{
		{"short unchanged", "index.html", 50, func(t *testing.T, got string) {
			assert.Equal(t, "index.html", got)
		}},
		{"empty", "", 50, func(t *testing.T, got string) {
			assert.Empty(t, got)
		}},
		{"long keeps file name", "reference/cli/commands/merge-queue/status/index.html", 30, func(t *testing.T, got string) {
			assert.LessOrEqual(t, len(got), 30)
			assert.Contains(t, got, "...")
			assert.Contains(t, got, "index.html")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, truncateFilePath(tt.path, tt.maxLen))
		})
	}
}
