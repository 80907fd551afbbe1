// Package config loads docindex settings from defaults, YAML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
)

// Backend names accepted by index.backend.
const (
	BackendLocal   = "local"
	BackendAlgolia = "algolia"
	BackendBoth    = "both"
)

// Environment variables read for Algolia credentials.
const (
	EnvAlgoliaAppID     = "PUBLIC_ALGOLIA_APP_ID"
	EnvAlgoliaWriteKey  = "ALGOLIA_WRITE_KEY"
	EnvAlgoliaIndexName = "PUBLIC_ALGOLIA_INDEX_NAME"
	EnvAlgoliaSearchKey = "PUBLIC_ALGOLIA_SEARCH_KEY"
)

// ProjectConfigNames are the project config file names, in lookup order.
var ProjectConfigNames = []string{".docindex.yaml", ".docindex.yml"}

// Config represents the complete docindex configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Site    SiteConfig    `yaml:"site" json:"site"`
	Index   IndexConfig   `yaml:"index" json:"index"`
	Algolia AlgoliaConfig `yaml:"algolia" json:"algolia"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Watch   WatchConfig   `yaml:"watch" json:"watch"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// SiteConfig describes the generated site.
type SiteConfig struct {
	// DistDir is the static build output to index.
	DistDir string `yaml:"dist_dir" json:"dist_dir"`
	// DefaultSiteName is the og:site_name that does not count as a category.
	DefaultSiteName string `yaml:"default_site_name" json:"default_site_name"`
	// MainSelectors locate the main content container, first match wins.
	MainSelectors []string `yaml:"main_selectors" json:"main_selectors"`
	// FlatSections ends each section at the next heading of any level
	// instead of the next heading of equal or higher rank.
	FlatSections bool `yaml:"flat_sections" json:"flat_sections"`
	// HiddenPrefixes are page ID prefixes never indexed.
	HiddenPrefixes []string `yaml:"hidden_prefixes" json:"hidden_prefixes"`
	// DemotedPrefixes are page ID prefixes ranked below primary docs.
	DemotedPrefixes []string `yaml:"demoted_prefixes" json:"demoted_prefixes"`
	// SkipDirs are directory names inside dist that hold no pages.
	SkipDirs []string `yaml:"skip_dirs" json:"skip_dirs"`
	// Exclude holds extra glob patterns left out of the scan.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// IndexConfig configures index builds.
type IndexConfig struct {
	Backend   string `yaml:"backend" json:"backend"`
	Engine    string `yaml:"engine" json:"engine"`
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	Workers   int    `yaml:"workers" json:"workers"`
}

// AlgoliaConfig configures the hosted backend. The write key is never
// stored in a file; it is read from the variable named by WriteKeyEnv.
type AlgoliaConfig struct {
	AppID          string `yaml:"app_id" json:"app_id"`
	IndexName      string `yaml:"index_name" json:"index_name"`
	WriteKeyEnv    string `yaml:"write_key_env" json:"write_key_env"`
	SearchKey      string `yaml:"search_key" json:"search_key"`
	BatchSize      int    `yaml:"batch_size" json:"batch_size"`
	MaxRecordBytes int    `yaml:"max_record_bytes" json:"max_record_bytes"`
	BaseURL        string `yaml:"base_url" json:"base_url"`

	WriteKey string `yaml:"-" json:"-"`
}

// Configured reports whether publishing credentials are present.
func (a AlgoliaConfig) Configured() bool {
	return a.AppID != "" && a.IndexName != "" && a.WriteKey != ""
}

// SearchConfig configures the query side.
type SearchConfig struct {
	// Backend selects what `docindex search` queries: local or algolia.
	Backend          string `yaml:"backend" json:"backend"`
	MinQueryLength   int    `yaml:"min_query_length" json:"min_query_length"`
	MaxResults       int    `yaml:"max_results" json:"max_results"`
	Debounce         string `yaml:"debounce" json:"debounce"`
	PreviewCacheSize int    `yaml:"preview_cache_size" json:"preview_cache_size"`
	// BaseURL fetches previews from a running site instead of dist.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// WatchConfig configures `docindex watch`.
type WatchConfig struct {
	Debounce string `yaml:"debounce" json:"debounce"`
}

// ServerConfig configures logging for long-running commands.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Site: SiteConfig{
			DistDir:         "dist",
			DefaultSiteName: "Docs",
			MainSelectors:   []string{"main article", "article", "main", "body"},
			HiddenPrefixes:  []string{"enterprise"},
			DemotedPrefixes: []string{"changelog"},
			SkipDirs:        []string{"_astro", "pagefind"},
		},
		Index: IndexConfig{
			Backend:   BackendLocal,
			Engine:    "sqlite",
			OutputDir: "docindex",
			Workers:   runtime.NumCPU(),
		},
		Algolia: AlgoliaConfig{
			WriteKeyEnv:    EnvAlgoliaWriteKey,
			BatchSize:      1000,
			MaxRecordBytes: 10_000,
		},
		Search: SearchConfig{
			Backend:          BackendLocal,
			MinQueryLength:   2,
			MaxResults:       30,
			Debounce:         "300ms",
			PreviewCacheSize: 128,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user/global configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/docindex/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/docindex/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docindex", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docindex", "config.yaml")
	}
	return filepath.Join(home, ".config", "docindex", "config.yaml")
}

// ProjectConfigPath returns the existing project config in dir, or the
// default name when there is none.
func ProjectConfigPath(dir string) (string, bool) {
	for _, name := range ProjectConfigNames {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p, true
		}
	}
	return filepath.Join(dir, ProjectConfigNames[0]), false
}

// Load loads configuration for the project in dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User/global config (~/.config/docindex/config.yaml)
//  3. Project config (.docindex.yaml in dir)
//  4. Environment variables (DOCINDEX_* and the Algolia variables)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if p := GetUserConfigPath(); fileExists(p) {
		if err := cfg.loadYAML(p); err != nil {
			return nil, err
		}
	}

	if p, ok := ProjectConfigPath(dir); ok {
		if err := cfg.loadYAML(p); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if !filepath.IsAbs(cfg.Site.DistDir) {
		cfg.Site.DistDir = filepath.Join(dir, cfg.Site.DistDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return docerrors.New(docerrors.ErrCodeConfigPermission, "failed to read config file", err).
			WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return docerrors.ConfigError("failed to parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax, or regenerate it with 'docindex config init --force'")
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Site
	mergeString(&c.Site.DistDir, other.Site.DistDir)
	mergeString(&c.Site.DefaultSiteName, other.Site.DefaultSiteName)
	mergeList(&c.Site.MainSelectors, other.Site.MainSelectors)
	if other.Site.FlatSections {
		c.Site.FlatSections = true
	}
	mergeList(&c.Site.HiddenPrefixes, other.Site.HiddenPrefixes)
	mergeList(&c.Site.DemotedPrefixes, other.Site.DemotedPrefixes)
	mergeList(&c.Site.SkipDirs, other.Site.SkipDirs)
	if len(other.Site.Exclude) > 0 {
		// Merge rather than replace
		c.Site.Exclude = append(c.Site.Exclude, other.Site.Exclude...)
	}

	// Index
	mergeString(&c.Index.Backend, other.Index.Backend)
	mergeString(&c.Index.Engine, other.Index.Engine)
	mergeString(&c.Index.OutputDir, other.Index.OutputDir)
	mergeInt(&c.Index.Workers, other.Index.Workers)

	// Algolia
	mergeString(&c.Algolia.AppID, other.Algolia.AppID)
	mergeString(&c.Algolia.IndexName, other.Algolia.IndexName)
	mergeString(&c.Algolia.WriteKeyEnv, other.Algolia.WriteKeyEnv)
	mergeString(&c.Algolia.SearchKey, other.Algolia.SearchKey)
	mergeInt(&c.Algolia.BatchSize, other.Algolia.BatchSize)
	mergeInt(&c.Algolia.MaxRecordBytes, other.Algolia.MaxRecordBytes)
	mergeString(&c.Algolia.BaseURL, other.Algolia.BaseURL)

	// Search
	mergeString(&c.Search.Backend, other.Search.Backend)
	mergeInt(&c.Search.MinQueryLength, other.Search.MinQueryLength)
	mergeInt(&c.Search.MaxResults, other.Search.MaxResults)
	mergeString(&c.Search.Debounce, other.Search.Debounce)
	mergeInt(&c.Search.PreviewCacheSize, other.Search.PreviewCacheSize)
	mergeString(&c.Search.BaseURL, other.Search.BaseURL)

	// Watch and server
	mergeString(&c.Watch.Debounce, other.Watch.Debounce)
	mergeString(&c.Server.LogLevel, other.Server.LogLevel)
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func mergeList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}

// applyEnvOverrides applies DOCINDEX_* and Algolia environment overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvAlgoliaAppID); v != "" {
		c.Algolia.AppID = v
	}
	if v := os.Getenv(EnvAlgoliaIndexName); v != "" {
		c.Algolia.IndexName = v
	}
	if v := os.Getenv(EnvAlgoliaSearchKey); v != "" {
		c.Algolia.SearchKey = v
	}
	if c.Algolia.WriteKeyEnv != "" {
		c.Algolia.WriteKey = os.Getenv(c.Algolia.WriteKeyEnv)
	}

	if v := os.Getenv("DOCINDEX_DIST_DIR"); v != "" {
		c.Site.DistDir = v
	}
	if v := os.Getenv("DOCINDEX_BACKEND"); v != "" {
		c.Index.Backend = v
	}
	if v := os.Getenv("DOCINDEX_ENGINE"); v != "" {
		c.Index.Engine = v
	}
	if v := os.Getenv("DOCINDEX_OUTPUT_DIR"); v != "" {
		c.Index.OutputDir = v
	}
	if v := os.Getenv("DOCINDEX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Index.Workers = n
		}
	}
	if v := os.Getenv("DOCINDEX_SEARCH_BACKEND"); v != "" {
		c.Search.Backend = v
	}
	if v := os.Getenv("DOCINDEX_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Site.DistDir) == "" {
		return invalid("site.dist_dir must not be empty")
	}
	switch c.Index.Backend {
	case BackendLocal, BackendAlgolia, BackendBoth:
	default:
		return invalid(fmt.Sprintf("index.backend must be 'local', 'algolia' or 'both', got %q", c.Index.Backend))
	}
	switch c.Index.Engine {
	case "bleve", "sqlite":
	default:
		return invalid(fmt.Sprintf("index.engine must be 'bleve' or 'sqlite', got %q", c.Index.Engine))
	}
	out := c.Index.OutputDir
	if out == "" || strings.ContainsAny(out, `/\`) || out == "." || out == ".." {
		return invalid(fmt.Sprintf("index.output_dir must be a plain directory name, got %q", out))
	}
	if c.Index.Workers < 0 {
		return invalid(fmt.Sprintf("index.workers must be non-negative, got %d", c.Index.Workers))
	}

	if c.Algolia.BatchSize < 0 {
		return invalid(fmt.Sprintf("algolia.batch_size must be non-negative, got %d", c.Algolia.BatchSize))
	}
	if c.Algolia.MaxRecordBytes < 0 {
		return invalid(fmt.Sprintf("algolia.max_record_bytes must be non-negative, got %d", c.Algolia.MaxRecordBytes))
	}

	switch c.Search.Backend {
	case BackendLocal, BackendAlgolia:
	default:
		return invalid(fmt.Sprintf("search.backend must be 'local' or 'algolia', got %q", c.Search.Backend))
	}
	if c.Search.MinQueryLength < 1 {
		return invalid(fmt.Sprintf("search.min_query_length must be at least 1, got %d", c.Search.MinQueryLength))
	}
	if c.Search.MaxResults < 0 {
		return invalid(fmt.Sprintf("search.max_results must be non-negative, got %d", c.Search.MaxResults))
	}

	for key, v := range map[string]string{
		"search.debounce": c.Search.Debounce,
		"watch.debounce":  c.Watch.Debounce,
	} {
		if _, err := parseDuration(v); err != nil {
			return invalid(fmt.Sprintf("%s must be a duration like 300ms, got %q", key, v))
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return invalid(fmt.Sprintf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel))
	}

	return nil
}

func invalid(msg string) error {
	return docerrors.New(docerrors.ErrCodeConfigInvalid, msg, nil)
}

// SearchDebounce returns search.debounce as a duration.
func (c *Config) SearchDebounce() time.Duration {
	d, _ := parseDuration(c.Search.Debounce)
	return d
}

// WatchDebounce returns watch.debounce as a duration.
func (c *Config) WatchDebounce() time.Duration {
	d, _ := parseDuration(c.Watch.Debounce)
	return d
}

// OutputPath is the local index directory.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Site.DistDir, c.Index.OutputDir)
}

// parseDuration parses a duration, treating "" and "0" as zero.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
