package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Aman-CERP/docindex/internal/config"
	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/extract"
	"github.com/Aman-CERP/docindex/internal/index"
	"github.com/Aman-CERP/docindex/internal/publish"
	"github.com/Aman-CERP/docindex/internal/query"
	"github.com/Aman-CERP/docindex/internal/record"
	"github.com/Aman-CERP/docindex/internal/store"
	"github.com/Aman-CERP/docindex/pkg/version"
)

// backendNone builds records without publishing them.
const backendNone = "none"

// loadConfig loads the configuration of the project directory.
func loadConfig() (*config.Config, error) {
	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project directory: %w", err)
	}
	return config.Load(dir)
}

// applyDist points cfg at an explicit dist directory argument.
func applyDist(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return nil
	}
	abs, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve dist directory: %w", err)
	}
	cfg.Site.DistDir = abs
	return nil
}

func extractOptions(cfg *config.Config) extract.Options {
	return extract.Options{
		MainSelectors: cfg.Site.MainSelectors,
		FlatSections:  cfg.Site.FlatSections,
	}
}

func newBuilder(cfg *config.Config) *record.Builder {
	return record.NewBuilder(record.BuilderOptions{
		DefaultSiteName: cfg.Site.DefaultSiteName,
		DemotedPrefixes: cfg.Site.DemotedPrefixes,
		Extract:         extractOptions(cfg),
	})
}

func runnerConfig(cfg *config.Config) index.RunnerConfig {
	return index.RunnerConfig{
		DistDir:         cfg.Site.DistDir,
		OutputDir:       cfg.Index.OutputDir,
		SkipDirs:        cfg.Site.SkipDirs,
		ExcludePatterns: cfg.Site.Exclude,
		HiddenPrefixes:  cfg.Site.HiddenPrefixes,
		Workers:         cfg.Index.Workers,
	}
}

func newLocalPublisher(cfg *config.Config) *publish.LocalPublisher {
	return publish.NewLocalPublisher(publish.LocalConfig{
		DistDir:   cfg.Site.DistDir,
		OutputDir: cfg.Index.OutputDir,
		Engine:    store.Engine(cfg.Index.Engine),
		Generator: "docindex " + version.Version,
	})
}

func newAlgoliaPublisher(cfg *config.Config) *publish.AlgoliaPublisher {
	return publish.NewAlgoliaPublisher(publish.AlgoliaConfig{
		AppID:          cfg.Algolia.AppID,
		WriteKey:       cfg.Algolia.WriteKey,
		IndexName:      cfg.Algolia.IndexName,
		BatchSize:      cfg.Algolia.BatchSize,
		MaxRecordBytes: cfg.Algolia.MaxRecordBytes,
		BaseURL:        cfg.Algolia.BaseURL,
	})
}

// newPublishers returns the publishers for backend, in publish order.
func newPublishers(cfg *config.Config, backend string) ([]publish.Publisher, error) {
	switch backend {
	case config.BackendLocal:
		return []publish.Publisher{newLocalPublisher(cfg)}, nil
	case config.BackendAlgolia:
		return []publish.Publisher{newAlgoliaPublisher(cfg)}, nil
	case config.BackendBoth:
		return []publish.Publisher{newLocalPublisher(cfg), newAlgoliaPublisher(cfg)}, nil
	case backendNone:
		return nil, nil
	default:
		return nil, docerrors.ValidationError(fmt.Sprintf("unknown backend %q", backend), nil).
			WithSuggestion("Use one of: local, algolia, both, none")
	}
}

// newEngine creates and initializes the query engine for backend.
func newEngine(ctx context.Context, cfg *config.Config, backend string) (*query.Engine, func(), error) {
	var b query.Backend
	cleanup := func() {}

	switch backend {
	case config.BackendLocal:
		dir := cfg.OutputPath()
		if store.DetectEngine(dir) == "" {
			return nil, nil, docerrors.New(docerrors.ErrCodeFileNotFound, "no local index found", nil).
				WithDetail("path", dir).
				WithSuggestion("Run 'docindex index' after building the site")
		}
		local := query.NewLocalBackend(dir, "")
		cleanup = func() { _ = local.Close() }
		b = local
	case config.BackendAlgolia:
		if cfg.Algolia.AppID == "" || cfg.Algolia.IndexName == "" || cfg.Algolia.SearchKey == "" {
			return nil, nil, docerrors.ConfigError("algolia search is not configured", nil).
				WithSuggestion(fmt.Sprintf("Set %s, %s and %s",
					config.EnvAlgoliaAppID, config.EnvAlgoliaIndexName, config.EnvAlgoliaSearchKey))
		}
		b = query.NewAlgoliaBackend(query.AlgoliaConfig{
			AppID:     cfg.Algolia.AppID,
			SearchKey: cfg.Algolia.SearchKey,
			IndexName: cfg.Algolia.IndexName,
			BaseURL:   cfg.Algolia.BaseURL,
		})
	default:
		return nil, nil, docerrors.ValidationError(fmt.Sprintf("unknown search backend %q", backend), nil).
			WithSuggestion("Use local or algolia")
	}

	engine := query.NewEngine(b, query.Options{
		MinQueryLength: cfg.Search.MinQueryLength,
		MaxResults:     cfg.Search.MaxResults,
		Metrics:        runMetrics,
	})
	if err := engine.Init(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

// newPreviewer loads sections from the running site when search.base_url
// is set, otherwise from the dist directory.
func newPreviewer(cfg *config.Config) *query.Previewer {
	var fetcher query.Fetcher = query.DirFetcher{Dir: cfg.Site.DistDir}
	if cfg.Search.BaseURL != "" {
		fetcher = query.HTTPFetcher{BaseURL: cfg.Search.BaseURL, UserAgent: version.UserAgent()}
	}
	return query.NewPreviewer(fetcher, extractOptions(cfg), cfg.Search.PreviewCacheSize)
}
