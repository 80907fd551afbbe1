// Package cmd provides the CLI commands for docindex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	docerrors "github.com/Aman-CERP/docindex/internal/errors"
	"github.com/Aman-CERP/docindex/internal/logging"
	"github.com/Aman-CERP/docindex/internal/metrics"
	"github.com/Aman-CERP/docindex/pkg/version"
)

// annotationOwnsTerminal marks commands whose stdout or screen must stay
// clean, so debug logging never mirrors to stderr.
const annotationOwnsTerminal = "owns-terminal"

// Persistent flags
var (
	projectDir  string
	debugMode   bool
	logFile     string
	metricsFile string
)

var (
	loggingCleanup func()
	runMetrics     *metrics.Metrics
)

// NewRootCmd creates the root command for docindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docindex",
		Short: "Search indexes for static documentation sites",
		Long: `docindex turns the HTML output of a static documentation site into
search records and publishes them to Algolia or to a local static index.

It also searches those indexes from the terminal and serves them to AI
assistants over MCP.

Run 'docindex index' after building the site to get started.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docindex version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory holding .docindex.yaml")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to stderr and ~/.docindex/logs/")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (default ~/.docindex/logs/docindex.log)")
	cmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write a Prometheus textfile snapshot on exit")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newPublishCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the file logger and the metrics registry.
func startLogging(cmd *cobra.Command, _ []string) error {
	level := os.Getenv("DOCINDEX_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	cfg := logging.DefaultConfig()
	cfg.Level = level
	if debugMode {
		cfg = logging.DebugConfig()
	}
	if cmd.Annotations[annotationOwnsTerminal] != "" {
		cfg.WriteToStderr = false
	}
	if logFile != "" {
		cfg.FilePath = logFile
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("version", version.Version))

	runMetrics = metrics.New(version.Version)
	return nil
}

// stopLogging writes the metrics snapshot and closes the log file.
func stopLogging(_ *cobra.Command, _ []string) error {
	var err error
	if metricsFile != "" && runMetrics != nil {
		err = runMetrics.WriteTextfile(metricsFile)
	}

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints failures for humans.
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		slog.Error("command_failed", slog.Any("error", docerrors.FormatForLog(err)))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), docerrors.FormatForCLI(err))
		if loggingCleanup != nil {
			loggingCleanup()
			loggingCleanup = nil
		}
	}
	return err
}
