package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docindex/internal/config"
	"github.com/Aman-CERP/docindex/internal/index"
	"github.com/Aman-CERP/docindex/internal/profiling"
	"github.com/Aman-CERP/docindex/internal/store"
	"github.com/Aman-CERP/docindex/internal/ui"
)

// indexOptions are the flags shared by index, publish and watch.
type indexOptions struct {
	backend string
	engine  string
	workers int
	noTUI   bool
	dryRun  bool
}

func (o *indexOptions) apply(cfg *config.Config) (string, error) {
	if o.engine != "" {
		if _, err := store.ParseEngine(o.engine); err != nil {
			return "", err
		}
		cfg.Index.Engine = o.engine
	}
	if o.workers > 0 {
		cfg.Index.Workers = o.workers
	}
	backend := cfg.Index.Backend
	if o.backend != "" {
		backend = o.backend
	}
	if o.dryRun {
		backend = backendNone
	}
	return backend, nil
}

func newIndexCmd() *cobra.Command {
	var (
		opts    indexOptions
		profile profiling.Options
	)

	cmd := &cobra.Command{
		Use:   "index [dist]",
		Short: "Build and publish the search index",
		Long: `Build search records from the generated site and publish them.

Every HTML page under the dist directory is parsed into one record for its
intro and one per section. Records are then published to the configured
backend:

  local     write a static index into <dist>/docindex (default)
  algolia   replace the Algolia index through a temporary copy
  both      local first, then Algolia
  none      build records only (same as --dry-run)

Algolia publishing is skipped with a warning when credentials are missing.`,
		Example: `  # Index ./dist with the configured backend
  docindex index

  # Build a bleve index for another output directory
  docindex index public --engine bleve

  # Check extraction without publishing
  docindex index --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := applyDist(cfg, args); err != nil {
				return err
			}
			backend, err := opts.apply(cfg)
			if err != nil {
				return err
			}

			var prof *profiling.Session
			if profile.Enabled() {
				if prof, err = profiling.Start(profile); err != nil {
					return err
				}
			}
			_, err = runIndex(ctx, cmd, cfg, backend, opts.noTUI)
			if perr := prof.Stop(); err == nil {
				err = perr
			}
			return err
		},
	}

	addIndexFlags(cmd, &opts)
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Publish backend: local, algolia, both or none")
	cmd.Flags().StringVar(&profile.CPUProfile, "cpuprofile", "", "Write a CPU profile to this file")
	cmd.Flags().StringVar(&profile.HeapProfile, "memprofile", "", "Write a heap profile to this file after the build")
	cmd.Flags().StringVar(&profile.Trace, "trace", "", "Write an execution trace to this file")

	return cmd
}

func addIndexFlags(cmd *cobra.Command, opts *indexOptions) {
	cmd.Flags().StringVar(&opts.engine, "engine", "", "Local index engine: sqlite or bleve")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Parallel page parsers (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Build records without publishing")
}

// runIndex runs one build with progress rendered on the command output.
func runIndex(ctx context.Context, cmd *cobra.Command, cfg *config.Config, backend string, noTUI bool) (*index.RunnerResult, error) {
	publishers, err := newPublishers(cfg, backend)
	if err != nil {
		return nil, err
	}

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithSiteDir(cfg.Site.DistDir),
	))
	if err := renderer.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start renderer: %w", err)
	}
	defer func() { _ = renderer.Stop() }()

	runner, err := index.NewRunner(index.RunnerDependencies{
		Renderer:   renderer,
		Publishers: publishers,
		Builder:    newBuilder(cfg),
		Metrics:    runMetrics,
	})
	if err != nil {
		return nil, err
	}
	return runner.Run(ctx, runnerConfig(cfg))
}
