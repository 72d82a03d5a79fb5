// Package logging builds the zerolog loggers used across carbontally and
// carries them through context.Context so every component logs with the
// same run identity.
package logging

import (
	"context"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Config controls logger construction.
type Config struct {
	// Level is a zerolog level name (trace, debug, info, warn, error).
	// Unparseable values fall back to info.
	Level string

	// Format selects "console" (human-readable, default) or "json".
	Format string

	// File, when non-empty, receives a copy of all log output in
	// addition to stderr.
	File string
}

// Result holds the constructed logger and the file handle that must be
// closed when the process is done logging.
type Result struct {
	Logger   zerolog.Logger
	file     *os.File
	FilePath string
}

// Close releases the log file handle, if any.
func (r *Result) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// New constructs a logger from cfg. File open failures are not fatal:
// the logger falls back to stderr only and the caller can inspect
// Result.FilePath to see whether file output is active.
func New(cfg Config) Result {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if cfg.Format == "json" {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	result := Result{}
	if cfg.File != "" {
		logFile, fileErr := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if fileErr == nil {
			result.file = logFile
			result.FilePath = cfg.File
			writers = append(writers, logFile)
		}
	}

	result.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().
		Timestamp().
		Logger()
	return result
}

// ComponentLogger returns a child logger tagged with a component name.
func ComponentLogger(logger zerolog.Logger, component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// WithContext attaches the logger to ctx for retrieval via FromContext.
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// FromContext returns the logger attached to ctx, or a disabled logger
// when none was attached. Components use this instead of package-level
// globals so tests can run silently.
func FromContext(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}

type runIDKey struct{}

// NewRunID generates a ULID identifying one engine run. The ID is
// stamped on the report summary and on every log line so the two can be
// correlated after the fact.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gosec // IDs, not secrets
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// ContextWithRunID stores the run ID in ctx.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// RunIDFromContext returns the run ID stored in ctx, generating one when
// the context carries none.
func RunIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return NewRunID()
}
