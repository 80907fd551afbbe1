package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/query"
	"github.com/Aman-CERP/docindex/internal/store"
)

func TestIndex_LocalThenSearch(t *testing.T) {
	for _, engine := range []string{"sqlite", "bleve"} {
		t.Run(engine, func(t *testing.T) {
			// Given: a built site
			home := isolate(t)
			dir := newProject(t)

			// When: indexing locally
			out, err := run(t, home, "-C", dir, "index", "--no-tui", "--backend", "local", "--engine", engine)

			// Then: the summary is printed and the artifacts exist
			require.NoError(t, err)
			assert.Contains(t, out, "Complete: 2 pages, 3 records")
			assert.Equal(t, store.Engine(engine), store.DetectEngine(filepath.Join(dir, "dist", "docindex")))

			// When: searching the fresh index as JSON
			out, err = run(t, home, "-C", dir, "search", "rebase", "--json")

			// Then: the rebase page is found
			require.NoError(t, err)
			var entries []query.Entry
			require.NoError(t, json.Unmarshal([]byte(out), &entries))
			require.NotEmpty(t, entries)
			found := false
			for _, e := range entries {
				if strings.Contains(e.URL, "workflow/rebase") {
					found = true
				}
			}
			assert.True(t, found, "no entry for workflow/rebase in %v", entries)
		})
	}
}

func TestIndex_DryRunPublishesNothing(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)

	out, err := run(t, home, "-C", dir, "index", "--no-tui", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 2 pages")
	assert.NoDirExists(t, filepath.Join(dir, "dist", "docindex"))
}

func TestIndex_ExplicitDistArgument(t *testing.T) {
	// Given: a site outside the project directory
	home := isolate(t)
	site := newProject(t)
	dir := t.TempDir()

	// When: passing the dist path as an argument
	_, err := run(t, home, "-C", dir, "index", "--no-tui", filepath.Join(site, "dist"))

	// Then: the index lands next to that site
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(site, "dist", "docindex"))
}

func TestIndex_MissingDistFails(t *testing.T) {
	home := isolate(t)
	dir := t.TempDir()

	_, err := run(t, home, "-C", dir, "index", "--no-tui")

	require.Error(t, err)
}

func TestIndex_RejectsUnknownBackendAndEngine(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)

	tests := []struct {
		name string
		args []string
	}{
		{"backend", []string{"--backend", "ftp"}},
		{"engine", []string{"--engine", "lucene"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-C", dir, "index", "--no-tui"}, tt.args...)
			_, err := run(t, home, args...)
			require.Error(t, err)
		})
	}
	assert.NoDirExists(t, filepath.Join(dir, "dist", "docindex"))
}

func TestIndex_AlgoliaWithoutCredentialsSkips(t *testing.T) {
	// Given: no Algolia credentials in the environment
	home := isolate(t)
	dir := newProject(t)

	// When: indexing to both backends
	_, err := run(t, home, "-C", dir, "index", "--no-tui", "--backend", "both")

	// Then: the local index is still written
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dir, "dist", "docindex"))
}

func TestPublish_RequiresCredentials(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)

	_, err := run(t, home, "-C", dir, "publish", "--no-tui")

	require.Error(t, err)
	assert.Equal(t, docerrors.CategoryConfig, docerrors.GetCategory(err))
}

func TestPublish_DryRunNeedsNoCredentials(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)

	out, err := run(t, home, "-C", dir, "publish", "--no-tui", "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "Complete: 2 pages")
}

func TestSearch_WithoutIndexSuggestsIndexing(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)

	_, err := run(t, home, "-C", dir, "search", "rebase", "--plain")

	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeFileNotFound, docerrors.GetCode(err))
}

func TestSearch_PlainOutput(t *testing.T) {
	// Given: an indexed site
	home := isolate(t)
	dir := newProject(t)
	_, err := run(t, home, "-C", dir, "index", "--no-tui")
	require.NoError(t, err)

	t.Run("hits", func(t *testing.T) {
		out, err := run(t, home, "-C", dir, "search", "rebase", "--plain")
		require.NoError(t, err)
		assert.Contains(t, out, " 1. ")
		assert.Contains(t, out, "workflow/rebase")
	})

	t.Run("no results", func(t *testing.T) {
		out, err := run(t, home, "-C", dir, "search", "kubernetes", "--plain")
		require.NoError(t, err)
		assert.Contains(t, out, `No results for "kubernetes"`)
	})

	t.Run("no results as JSON is an empty array", func(t *testing.T) {
		out, err := run(t, home, "-C", dir, "search", "kubernetes", "--json")
		require.NoError(t, err)
		assert.Equal(t, "[]\n", out)
	})

	t.Run("query too short", func(t *testing.T) {
		_, err := run(t, home, "-C", dir, "search", "r", "--plain")
		require.Error(t, err)
		assert.Equal(t, docerrors.CategoryValidation, docerrors.GetCategory(err))
	})

	t.Run("missing query off a terminal", func(t *testing.T) {
		_, err := run(t, home, "-C", dir, "search")
		require.Error(t, err)
	})

	t.Run("limit", func(t *testing.T) {
		out, err := run(t, home, "-C", dir, "search", "rebase", "--json", "-n", "1")
		require.NoError(t, err)
		var entries []query.Entry
		require.NoError(t, json.Unmarshal([]byte(out), &entries))
		assert.Len(t, entries, 1)
	})
}

func TestIndex_MetricsFile(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)
	metricsPath := filepath.Join(t.TempDir(), "docindex.prom")

	_, err := run(t, home, "-C", dir, "--metrics-file", metricsPath, "index", "--no-tui")

	require.NoError(t, err)
	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docindex_")
}

func TestServe_WithoutIndexFails(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)

	_, err := run(t, home, "-C", dir, "serve")

	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeFileNotFound, docerrors.GetCode(err))
}

func TestIndex_Profiles(t *testing.T) {
	home := isolate(t)
	dir := newProject(t)
	profDir := t.TempDir()
	cpu := filepath.Join(profDir, "cpu.prof")
	heap := filepath.Join(profDir, "heap.prof")

	_, err := run(t, home, "-C", dir, "index", "--no-tui", "--cpuprofile", cpu, "--memprofile", heap)

	require.NoError(t, err)
	assert.FileExists(t, cpu)
	assert.FileExists(t, heap)
}
