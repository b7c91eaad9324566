package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openmediahub/searchsync/configs"
	"github.com/openmediahub/searchsync/internal/config"
	syncerrors "github.com/openmediahub/searchsync/internal/errors"
	"github.com/openmediahub/searchsync/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Manage the searchsync configuration file.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. Config file (searchsync.yaml, searchsync.yml, or /etc/searchsync/config.yaml)
  3. Environment variables (SEARCHSYNC_*)`,
		Example: `  # Write the defaults to searchsync.yaml
  searchsync config init

  # Show the effective configuration (defaults + file + env)
  searchsync config show

  # Print the config file the other commands would load
  searchsync config path`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Write the commented starter configuration. Its values match the
built-in defaults, so the fresh file changes nothing until edited.

The file lands at the --config path when given, otherwise at
./searchsync.yaml. An existing file is kept unless --force is set;
--force moves the old file to a timestamped backup first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration (keeps a backup)")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the effective configuration after merging defaults, the config file, and SEARCHSYNC_* environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file in effect",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = config.FindConfigFile()
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(no config file found; defaults in effect)")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())

	path := configPath
	if path == "" {
		path = "searchsync.yaml"
	}

	if fileExists(path) {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to overwrite (a timestamped backup is kept)")
			return nil
		}

		backupPath, err := config.Backup(path)
		if err != nil {
			return syncerrors.ConfigError("failed to back up existing configuration", err)
		}
		out.Statusf("💾", "Backup: %s", backupPath)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return syncerrors.ConfigError(fmt.Sprintf("failed to create config directory %s", dir), err)
		}
	}
	if err := os.WriteFile(path, []byte(configs.Template), 0o644); err != nil {
		return syncerrors.ConfigError("failed to write configuration", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Newline()
	out.Status("📋", "Next steps:")
	out.Status("", "  1. Point database.path at the primary database")
	out.Status("", "  2. Pick the index backend (bleve or meili)")
	out.Status("", "  3. Run 'searchsync run' to start the sync loop")

	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
