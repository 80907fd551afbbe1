package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/docindex/internal/config"
	"github.com/Aman-CERP/docindex/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage docindex configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/docindex/config.yaml)
  3. Project config (.docindex.yaml)
  4. Environment variables (DOCINDEX_*, PUBLIC_ALGOLIA_*, ALGOLIA_WRITE_KEY)`,
		Example: `  # Create .docindex.yaml in the current project
  docindex config init

  # Show effective configuration
  docindex config show

  # Print config file paths
  docindex config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with defaults",
		Long: `Create a configuration file holding every default.

By default the project file .docindex.yaml is written. With --user the
user file is written instead. --force overwrites an existing file after
saving a timestamped backup next to it.

The Algolia write key is never written to a file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := config.ProjectConfigPath(projectDir)
			if user {
				path = config.GetUserConfigPath()
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")

	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil && !force {
		return existingConfig(out, path)
	}

	backupPath, err := config.Backup(path)
	if err != nil {
		return err
	}

	cfg := config.NewConfig()
	cfg.Index.Workers = 0
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}

	out.Successf("Created %s", path)
	if backupPath != "" {
		out.Statusf("💾", "Backup: %s", backupPath)
	}
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Set site.dist_dir to your build output")
	out.Status("", "  2. Export PUBLIC_ALGOLIA_APP_ID, PUBLIC_ALGOLIA_INDEX_NAME and ALGOLIA_WRITE_KEY to publish to Algolia")
	out.Status("", "  3. Run 'docindex index'")
	return nil
}

func existingConfig(out *output.Writer, path string) error {
	out.Warning("Configuration already exists")
	out.Statusf("📁", "Location: %s", path)
	out.Status("💡", "Use --force to overwrite it (a backup is kept)")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after merging defaults, the user
config, the project config and the environment. Secrets are never shown.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			if jsonOutput {
				return out.JSON(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print config file paths",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := filepath.Abs(projectDir)
			if err != nil {
				return err
			}
			project, exists := config.ProjectConfigPath(dir)

			out := output.New(cmd.OutOrStdout())
			out.KeyValue("User", config.GetUserConfigPath())
			if exists {
				out.KeyValue("Project", project)
			} else {
				out.KeyValue("Project", project+" (not found)")
			}
			return nil
		},
	}
}
