package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docindex/internal/logging"
)

func newLogsCmd() *cobra.Command {
	var (
		lines  int
		level  string
		filter string
		file   string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent docindex log entries",
		Long: `Show the last entries of the docindex log in a readable one-line format.

serve and search never log to the terminal; use this command to see what
they did.`,
		Example: `  docindex logs                    # last 50 lines
  docindex logs -n 200 --level warn
  docindex logs --filter publish`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			var pattern *regexp.Regexp
			if filter != "" {
				pattern, err = regexp.Compile(filter)
				if err != nil {
					return fmt.Errorf("invalid filter pattern: %w", err)
				}
			}

			viewer := logging.NewViewer(logging.ViewerConfig{
				Level:   level,
				Pattern: pattern,
			}, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to read from the end of the log")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&filter, "filter", "", "Only show lines matching this regex")
	cmd.Flags().StringVar(&file, "file", "", "Log file path (default ~/.docindex/logs/docindex.log)")

	return cmd
}
