package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
)

// isolate points the user config at an empty directory and clears the
// variables Load reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		EnvAlgoliaAppID, EnvAlgoliaWriteKey, EnvAlgoliaIndexName, EnvAlgoliaSearchKey,
		"DOCINDEX_DIST_DIR", "DOCINDEX_BACKEND", "DOCINDEX_ENGINE", "DOCINDEX_OUTPUT_DIR",
		"DOCINDEX_WORKERS", "DOCINDEX_SEARCH_BACKEND", "DOCINDEX_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// =============================================================================
// Defaults
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "dist", cfg.Site.DistDir)
	assert.Equal(t, []string{"enterprise"}, cfg.Site.HiddenPrefixes)
	assert.Equal(t, []string{"changelog"}, cfg.Site.DemotedPrefixes)
	assert.Equal(t, []string{"_astro", "pagefind"}, cfg.Site.SkipDirs)
	assert.Equal(t, BackendLocal, cfg.Index.Backend)
	assert.Equal(t, "sqlite", cfg.Index.Engine)
	assert.Equal(t, "docindex", cfg.Index.OutputDir)
	assert.Equal(t, runtime.NumCPU(), cfg.Index.Workers)
	assert.Equal(t, EnvAlgoliaWriteKey, cfg.Algolia.WriteKeyEnv)
	assert.Equal(t, 1000, cfg.Algolia.BatchSize)
	assert.Equal(t, 10_000, cfg.Algolia.MaxRecordBytes)
	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, 30, cfg.Search.MaxResults)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce())
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// Loading and precedence
// =============================================================================

func TestLoad_NoFilesUsesDefaults(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dist"), cfg.Site.DistDir)
	assert.Equal(t, filepath.Join(dir, "dist", "docindex"), cfg.OutputPath())
	assert.False(t, cfg.Algolia.Configured())
}

func TestLoad_Precedence(t *testing.T) {
	// Given: a user config and a project config that overlap
	isolate(t)
	userDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", userDir)
	writeFile(t, filepath.Join(userDir, "docindex", "config.yaml"), `
index:
  engine: bleve
  workers: 3
search:
  max_results: 10
`)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".docindex.yaml"), `
site:
  dist_dir: build
  exclude: ["drafts/**"]
index:
  workers: 5
`)

	// When: loading
	cfg, err := Load(dir)

	// Then: project beats user, user beats defaults
	require.NoError(t, err)
	assert.Equal(t, "bleve", cfg.Index.Engine)
	assert.Equal(t, 5, cfg.Index.Workers)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, filepath.Join(dir, "build"), cfg.Site.DistDir)
	assert.Equal(t, []string{"drafts/**"}, cfg.Site.Exclude)
	assert.Equal(t, []string{"enterprise"}, cfg.Site.HiddenPrefixes, "unset lists keep defaults")
}

func TestLoad_YmlFallback(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".docindex.yml"), "index:\n  backend: both\n")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, BackendBoth, cfg.Index.Backend)
}

func TestLoad_EnvOverrides(t *testing.T) {
	// Given: Algolia and DOCINDEX variables
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".docindex.yaml"), "algolia:\n  app_id: FROMFILE\n")
	t.Setenv(EnvAlgoliaAppID, "APP123")
	t.Setenv(EnvAlgoliaIndexName, "docs")
	t.Setenv(EnvAlgoliaWriteKey, "secret")
	t.Setenv("DOCINDEX_BACKEND", "algolia")
	t.Setenv("DOCINDEX_WORKERS", "7")

	// When: loading
	cfg, err := Load(dir)

	// Then: env wins over files
	require.NoError(t, err)
	assert.Equal(t, "APP123", cfg.Algolia.AppID)
	assert.Equal(t, "docs", cfg.Algolia.IndexName)
	assert.Equal(t, "secret", cfg.Algolia.WriteKey)
	assert.True(t, cfg.Algolia.Configured())
	assert.Equal(t, BackendAlgolia, cfg.Index.Backend)
	assert.Equal(t, 7, cfg.Index.Workers)
}

func TestLoad_CustomWriteKeyEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".docindex.yaml"), "algolia:\n  write_key_env: DOCS_ALGOLIA_KEY\n")
	t.Setenv("DOCS_ALGOLIA_KEY", "k")

	cfg, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "k", cfg.Algolia.WriteKey)
}

func TestLoad_WriteKeyNeverSerialized(t *testing.T) {
	cfg := NewConfig()
	cfg.Algolia.WriteKey = "secret"
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, cfg.WriteYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestLoad_InvalidYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".docindex.yaml"), "index: [unclosed\n")

	_, err := Load(dir)

	require.Error(t, err)
	assert.Equal(t, docerrors.ErrCodeConfigInvalid, docerrors.GetCode(err))
}

// =============================================================================
// Validation
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty dist", func(c *Config) { c.Site.DistDir = " " }},
		{"unknown backend", func(c *Config) { c.Index.Backend = "s3" }},
		{"unknown engine", func(c *Config) { c.Index.Engine = "lucene" }},
		{"nested output dir", func(c *Config) { c.Index.OutputDir = "a/b" }},
		{"dot output dir", func(c *Config) { c.Index.OutputDir = ".." }},
		{"negative workers", func(c *Config) { c.Index.Workers = -1 }},
		{"negative batch", func(c *Config) { c.Algolia.BatchSize = -1 }},
		{"negative record size", func(c *Config) { c.Algolia.MaxRecordBytes = -1 }},
		{"both search backend", func(c *Config) { c.Search.Backend = BackendBoth }},
		{"zero min query", func(c *Config) { c.Search.MinQueryLength = 0 }},
		{"bad debounce", func(c *Config) { c.Search.Debounce = "soon" }},
		{"bad watch debounce", func(c *Config) { c.Watch.Debounce = "5 minutes" }},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			require.Error(t, err)
			assert.Equal(t, docerrors.ErrCodeConfigInvalid, docerrors.GetCode(err))
		})
	}
}

func TestParseDuration_ZeroForms(t *testing.T) {
	for _, s := range []string{"", "0", " 0 "} {
		d, err := parseDuration(s)
		require.NoError(t, err)
		assert.Zero(t, d)
	}
}

func TestWriteYAML_RoundTripsThroughLoad(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.Index.Engine = "bleve"
	cfg.Site.FlatSections = true

	require.NoError(t, cfg.WriteYAML(filepath.Join(dir, ".docindex.yaml")))
	loaded, err := Load(dir)

	require.NoError(t, err)
	assert.Equal(t, "bleve", loaded.Index.Engine)
	assert.True(t, loaded.Site.FlatSections)
}

func TestProjectConfigPath(t *testing.T) {
	dir := t.TempDir()

	p, ok := ProjectConfigPath(dir)
	assert.False(t, ok)
	assert.Equal(t, filepath.Join(dir, ".docindex.yaml"), p)

	writeFile(t, filepath.Join(dir, ".docindex.yml"), "version: 1\n")
	p, ok = ProjectConfigPath(dir)
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(dir, ".docindex.yml"), p)
}
