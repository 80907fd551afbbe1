package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/output"
	"github.com/Aman-CERP/docindex/internal/query"
	"github.com/Aman-CERP/docindex/internal/ui"
)

type searchOptions struct {
	backend string
	json    bool
	plain   bool
	limit   int
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the docs index",
		Long: `Search the published index.

Without a query on a terminal, an interactive search opens: type to search,
arrow keys move through the results, enter prints the selected URL and
escape closes. Results show at most one entry per page.

With a query, or when output is not a terminal, results are printed once.`,
		Example: `  # Interactive search over the local index
  docindex search

  # One-shot search as JSON
  docindex search "rebase onto" --json

  # Query the published Algolia index
  docindex search "install" --backend algolia`,
		Annotations: map[string]string{annotationOwnsTerminal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", "", "Search backend: local or algolia (default: search.backend)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print results as JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Never open the interactive search")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum results to print")

	return cmd
}

func runSearch(cmd *cobra.Command, q string, opts searchOptions) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	backend := cfg.Search.Backend
	if opts.backend != "" {
		backend = opts.backend
	}

	engine, cleanup, err := newEngine(ctx, cfg, backend)
	if err != nil {
		return err
	}
	defer cleanup()

	interactive := q == "" && !opts.json && !opts.plain && ui.IsTTY(cmd.OutOrStdout())
	if interactive {
		m := ui.NewSearchModel(ctx, ui.SearchOptions{
			Search:         engine.Search,
			Previews:       newPreviewer(cfg),
			MinQueryLength: cfg.Search.MinQueryLength,
			Window:         cfg.SearchDebounce(),
			NoColor:        ui.DetectNoColor(),
		})
		target, err := ui.RunSearch(ctx, cmd.OutOrStdout(), m)
		if err != nil {
			return err
		}
		if target != "" {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), target)
		}
		return nil
	}

	if q == "" {
		return docerrors.ValidationError("a query is required when output is not a terminal", nil).
			WithSuggestion("Pass the query as an argument: docindex search \"getting started\"")
	}
	return printSearch(ctx, cmd, engine, q, opts)
}

// printSearch runs q once and prints the entries.
func printSearch(ctx context.Context, cmd *cobra.Command, engine *query.Engine, q string, opts searchOptions) error {
	if !engine.Searchable(q) {
		return docerrors.ValidationError(
			fmt.Sprintf("query must be at least %d characters", engine.MinQueryLength()), nil)
	}

	entries, err := engine.Search(ctx, q)
	if err != nil {
		return err
	}
	if opts.limit > 0 && len(entries) > opts.limit {
		entries = entries[:opts.limit]
	}
	for i := range entries {
		entries[i].URL = query.NavigationTarget(entries[i].URL)
	}

	out := output.New(cmd.OutOrStdout())
	if opts.json {
		if entries == nil {
			entries = []query.Entry{}
		}
		return out.JSON(entries)
	}

	if len(entries) == 0 {
		out.Statusf("🔍", "No results for %q", q)
		return nil
	}
	for i, e := range entries {
		out.Hit(i+1, e.Title, e.URL, e.Breadcrumb, e.Excerpt)
	}
	return nil
}
