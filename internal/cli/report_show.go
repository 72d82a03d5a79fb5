package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildsense/carbontally/internal/engine"
)

// NewReportShowCmd creates the "report show" command, which re-renders
// the console summary from an existing report file.
func NewReportShowCmd() *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the console summary of an existing CO2 report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := loadReport(reportPath)
			if err != nil {
				return err
			}
			return RenderReportSummary(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "report JSON file (required)")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

// loadReport reads a report file written by "report calculate".
func loadReport(path string) (*engine.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}

	var report engine.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &report, nil
}
