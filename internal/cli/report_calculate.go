package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/buildsense/carbontally/internal/config"
	"github.com/buildsense/carbontally/internal/engine"
	"github.com/buildsense/carbontally/internal/ingest"
	"github.com/buildsense/carbontally/internal/logging"
	"github.com/buildsense/carbontally/internal/matdb"
)

// reportFileMode is the permission set for written report files.
const reportFileMode = 0644

// NewReportCalculateCmd creates the "report calculate" command: load a
// classified-elements file and a material database, run the engine, and
// write the report JSON.
func NewReportCalculateCmd() *cobra.Command {
	var (
		elementsPath string
		databasePath string
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate an embodied-CO2 report from classified elements",
		Long: "Calculate loads a classified-elements JSON file and a material reference\n" +
			"database, computes mass and embodied CO2 per element (with reinforcement\n" +
			"for concrete structural elements), and writes the report JSON. Elements\n" +
			"with missing volume or material data are recorded as skipped, never fatal.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReportCalculate(cmd, elementsPath, databasePath, outputPath)
		},
	}

	cmd.Flags().StringVar(&elementsPath, "elements", "", "classified elements JSON file (required)")
	cmd.Flags().StringVar(&databasePath, "database", "", "material database JSON file (default from config)")
	cmd.Flags().StringVar(&outputPath, "output", "", "report output path, or - for stdout (required)")
	_ = cmd.MarkFlagRequired("elements")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runReportCalculate(cmd *cobra.Command, elementsPath, databasePath, outputPath string) error {
	ctx := cmd.Context()

	if databasePath == "" {
		databasePath = config.GetGlobalConfig().Database.Path
	}
	if databasePath == "" {
		return fmt.Errorf("no material database: pass --database or set database.path in the config file")
	}

	db, err := matdb.Load(ctx, databasePath)
	if err != nil {
		return err
	}
	if err := db.CheckVersion(); err != nil {
		return err
	}

	elements, err := ingest.LoadElements(ctx, elementsPath)
	if err != nil {
		return err
	}

	report := engine.Calculate(ctx, elements, db, engine.Meta{
		InputFile: filepath.Base(elementsPath),
		RunID:     logging.RunIDFromContext(ctx),
		Timestamp: time.Now(),
	})

	if err := writeReport(&report, outputPath, cmd); err != nil {
		return err
	}

	// Keep stdout clean for the report JSON when streaming it.
	summaryOut := cmd.OutOrStdout()
	if outputPath == "-" {
		summaryOut = cmd.ErrOrStderr()
	}
	return RenderReportSummary(summaryOut, &report)
}

// writeReport serializes the report to outputPath, or to stdout when
// outputPath is "-".
func writeReport(report *engine.Report, outputPath string, cmd *cobra.Command) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outputPath, data, reportFileMode); err != nil {
		return fmt.Errorf("writing report %s: %w", outputPath, err)
	}

	logger.Info().
		Str("output", outputPath).
		Int("bytes", len(data)).
		Msg("report written")
	return nil
}
