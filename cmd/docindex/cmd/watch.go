package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docindex/internal/config"
	"github.com/Aman-CERP/docindex/internal/output"
	"github.com/Aman-CERP/docindex/internal/watcher"
)

type watchOptions struct {
	indexOptions
	poll        bool
	skipInitial bool
	metricsAddr string
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [dist]",
		Short: "Rebuild the index whenever the site output changes",
		Long: `Watch the dist directory and rebuild the index after pages change.

Page writes are collected until the site generator goes quiet for
watch.debounce, then one build runs. Builds never overlap; changes made
during a build trigger a single follow-up build. A failed build is
reported and the watcher keeps running.

The index output directory itself is never watched.`,
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
			return runWatch(ctx, cmd, cfg, backend, opts)
		},
	}

	addIndexFlags(cmd, &opts.indexOptions)
	cmd.Flags().StringVar(&opts.backend, "backend", "", "Publish backend: local, algolia, both or none")
	cmd.Flags().BoolVar(&opts.poll, "poll", false, "Poll for changes instead of using file system events")
	cmd.Flags().BoolVar(&opts.skipInitial, "skip-initial", false, "Do not build before the first change")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, backend string, opts watchOptions) error {
	out := output.New(cmd.OutOrStdout())

	if !opts.skipInitial {
		if _, err := runIndex(ctx, cmd, cfg, backend, opts.noTUI); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			out.Warningf("Initial build failed: %v", err)
		}
	}

	w, err := watcher.NewHybridWatcher(watcher.Options{
		DebounceWindow: cfg.WatchDebounce(),
		IgnoreDirs:     []string{cfg.Index.OutputDir},
		ForcePolling:   opts.poll,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	rebuilder := watcher.NewRebuilder(func(ctx context.Context, batch []watcher.FileEvent) error {
		out.Statusf("🔄", "%d page(s) changed, rebuilding...", len(batch))
		// Rebuilds render plainly below the watch log.
		_, err := runIndex(ctx, cmd, cfg, backend, true)
		return err
	})

	// The watcher ending for any reason stops everything else.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		err := w.Start(gctx, cfg.Site.DistDir)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		return rebuilder.Run(gctx, w.Events())
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	})
	if opts.metricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           runMetrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("metrics_listening", slog.String("addr", opts.metricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	out.Statusf("👀", "Watching %s (%s)", cfg.Site.DistDir, w.WatcherType())
	err = g.Wait()
	out.Statusf("", "Stopped after %d rebuild(s), %d failed", rebuilder.Runs(), rebuilder.Failures())
	return err
}
