package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/buildsense/carbontally/internal/config"
)

// NewConfigInitCmd creates the "config init" command, which seeds the
// default config file.
func NewConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			if _, statErr := os.Stat(path); statErr == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			if err := config.Save(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}

// NewConfigShowCmd creates the "config show" command, which prints the
// effective configuration as YAML.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(config.GetGlobalConfig())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

// configPath resolves the config file path from the --config flag or
// the default location.
func configPath(cmd *cobra.Command) (string, error) {
	if flagPath, _ := cmd.Flags().GetString("config"); flagPath != "" {
		return flagPath, nil
	}
	return config.DefaultPath()
}
