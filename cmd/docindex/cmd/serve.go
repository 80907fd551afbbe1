package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docindex/internal/mcp"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		backend   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the docs index to AI assistants over MCP",
		Long: `Start an MCP server on stdio exposing the docs index.

Tools:
  search_docs    search the documentation, one result per page
  read_section   read the full text of a section by URL
  index_status   report the engine, record count and build time

Stdout carries the protocol only; logs go to ~/.docindex/logs/.`,
		Example: `  # Claude Desktop / Cursor config
  {"command": "docindex", "args": ["serve", "-C", "/path/to/site"]}`,
		Annotations: map[string]string{annotationOwnsTerminal: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, transport, backend)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio)")
	cmd.Flags().StringVar(&backend, "backend", "", "Search backend: local or algolia (default: search.backend)")

	return cmd
}

func runServe(ctx context.Context, transport, backend string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if backend == "" {
		backend = cfg.Search.Backend
	}

	engine, cleanup, err := newEngine(ctx, cfg, backend)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := mcp.NewServer(engine, newPreviewer(cfg), mcp.Options{
		IndexDir: cfg.OutputPath(),
		Logger:   slog.Default(),
	})
	if err != nil {
		return err
	}
	return srv.Serve(ctx, transport)
}
