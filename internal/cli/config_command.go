package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newConfigCommand creates the config command with subcommands
func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	configCmd.AddCommand(newConfigShowCommand())
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

// newConfigShowCommand prints the effective configuration
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := cliFromContext(cmd.Context())

			data, err := json.MarshalIndent(cli.cfg, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

// newConfigInitCommand writes the default configuration
func newConfigInitCommand() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to the user config directory, or to
--path when given. An existing file is left alone unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := cliFromContext(cmd.Context())
			cm := cli.configManager

			if path == "" {
				path = cm.UserConfigPath()
			}

			exists, err := afero.Exists(cm.Filesystem(), path)
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", path, err)
			}
			if exists && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			if err := cm.SaveToFile(cm.GetDefaultConfig(), path); err != nil {
				return err
			}
			cmd.Printf("wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Destination file (default: user config directory)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
