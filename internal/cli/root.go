// Package cli wires the carbontally commands: report calculation and
// re-rendering, database validation, and configuration management.
package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/buildsense/carbontally/internal/config"
	"github.com/buildsense/carbontally/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the carbontally CLI.
// It wires up configuration loading, logging, and the report, database,
// and config command groups.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.Result

	cmd := &cobra.Command{
		Use:   "carbontally",
		Short: "Embodied-carbon reports for building-element inventories",
		Long: "carbontally computes embodied CO2 (kg CO2-eq) per building element and in\n" +
			"aggregate, from a classified-elements file and a material reference database.",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				var err error
				cfgPath, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			logResult = setupLogging(cmd)
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logResult != nil {
				return logResult.Close()
			}
			return nil
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "config file path (default ~/.carbontally/config.yaml)")
	cmd.AddCommand(newReportCmd(), newDatabaseCmd(), newConfigCmd())

	return cmd
}

const rootCmdExample = `  # Calculate a CO2 report from classified elements
  carbontally report calculate --elements batch_1_elements.json --database nibe.json --output co2_report.json

  # Re-render the console summary from an existing report
  carbontally report show --report co2_report.json

  # Validate a material database file
  carbontally database validate --database nibe.json

  # Initialize configuration
  carbontally config init`

// newReportCmd creates the report command group.
func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "CO2 report commands"}
	cmd.AddCommand(NewReportCalculateCmd(), NewReportShowCmd())
	return cmd
}

// newDatabaseCmd creates the database command group.
func newDatabaseCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "database", Short: "Material database commands"}
	cmd.AddCommand(NewDatabaseValidateCmd())
	return cmd
}

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd())
	return cmd
}
