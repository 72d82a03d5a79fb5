package cli

import (
	"github.com/spf13/cobra"

	"github.com/buildsense/carbontally/internal/config"
	"github.com/buildsense/carbontally/internal/logging"
)

// setupLogging configures logging from the config file and CLI flags
// and attaches the logger plus a fresh run ID to the command context.
// The returned result holds the log file handle for cleanup.
func setupLogging(cmd *cobra.Command) *logging.Result {
	loggingCfg := config.GetGlobalConfig().Logging

	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		loggingCfg.Level = "debug"
		loggingCfg.Format = "console"
		loggingCfg.File = ""
	}

	result := logging.New(logging.Config{
		Level:  loggingCfg.Level,
		Format: loggingCfg.Format,
		File:   loggingCfg.File,
	})
	logger = logging.ComponentLogger(result.Logger, "cli")

	runID := logging.NewRunID()
	ctx := logging.ContextWithRunID(cmd.Context(), runID)
	ctx = logging.WithContext(ctx, result.Logger)
	cmd.SetContext(ctx)

	logger.Debug().Str("command", cmd.Name()).Str("run_id", runID).Msg("command started")
	return &result
}
