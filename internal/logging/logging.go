// Package logging sets up the process-wide structured logger. Every
// component derives a child logger from the one returned here via
// logger.With("component", ...).
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a text-handler slog logger at the given level, installs it as
// the slog default, and returns it. Level is "debug", "info", "warn" or
// "error" (case-insensitive, CHIPPN_LOG_LEVEL in production); anything else
// falls back to info.
func Setup(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
