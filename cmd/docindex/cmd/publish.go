package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docindex/internal/config"
	docerrors "github.com/Aman-CERP/docindex/internal/errors"
)

func newPublishCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "publish [dist]",
		Short: "Replace the Algolia index with the current site",
		Long: `Build search records and replace the live Algolia index.

The live index keeps serving while a temporary copy receives the records;
the copy then replaces it in one move. Unlike 'docindex index --backend
algolia', a missing credential is an error here instead of a skip.

Credentials are read from the environment:
  PUBLIC_ALGOLIA_APP_ID, PUBLIC_ALGOLIA_INDEX_NAME and ALGOLIA_WRITE_KEY
  (or the variable named by algolia.write_key_env)`,
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
			if _, err := opts.apply(cfg); err != nil {
				return err
			}
			if !opts.dryRun && !cfg.Algolia.Configured() {
				return docerrors.ConfigError("algolia credentials are missing", nil).
					WithSuggestion(fmt.Sprintf("Set %s, %s and %s",
						config.EnvAlgoliaAppID, config.EnvAlgoliaIndexName, cfg.Algolia.WriteKeyEnv))
			}

			backend := config.BackendAlgolia
			if opts.dryRun {
				backend = backendNone
			}
			_, err = runIndex(ctx, cmd, cfg, backend, opts.noTUI)
			return err
		},
	}

	addIndexFlags(cmd, &opts)

	return cmd
}
