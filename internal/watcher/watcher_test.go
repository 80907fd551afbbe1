package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpCreate, "CREATE"},
		{OpModify, "MODIFY"},
		{OpDelete, "DELETE"},
		{OpRename, "RENAME"},
		{Operation(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.String())
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	// Given: partially specified options
	opts := Options{DebounceWindow: 50 * time.Millisecond, IgnoreDirs: []string{"docindex"}}

	// When: applying defaults
	got := opts.WithDefaults()

	// Then: explicit values are kept and the rest are filled in
	assert.Equal(t, 50*time.Millisecond, got.DebounceWindow)
	assert.Equal(t, DefaultOptions().PollInterval, got.PollInterval)
	assert.Equal(t, 100, got.EventBufferSize)
	assert.Equal(t, []string{".html"}, got.Extensions)
	assert.Equal(t, []string{"docindex"}, got.IgnoreDirs)
}

func TestOptions_IsPage(t *testing.T) {
	opts := Options{IgnoreDirs: []string{"docindex", "_astro"}}.WithDefaults()

	tests := []struct {
		path string
		want bool
	}{
		{"index.html", true},
		{"guide/setup/index.html", true},
		{"guide/SETUP.HTML", true},
		{"guide/style.css", false},
		{"docindex/documents.json", false},
		{"docindex/index.html", false},
		{"_astro/chunk.html", false},
		{"nested/_astro/chunk.html", false},
		{".cache/page.html", false},
		{"guide/.draft.html", false},
		{".", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, opts.isPage(tt.path))
		})
	}
}

func TestOptions_IgnoreDir(t *testing.T) {
	opts := Options{IgnoreDirs: []string{"docindex"}}

	assert.False(t, opts.ignoreDir("."))
	assert.False(t, opts.ignoreDir("guide"))
	assert.True(t, opts.ignoreDir("docindex"))
	assert.True(t, opts.ignoreDir("a/docindex"))
	assert.True(t, opts.ignoreDir(".git"))
}
