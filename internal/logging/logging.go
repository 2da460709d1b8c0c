// Package logging bootstraps the process-wide slog logger from a
// LOG_LEVEL environment variable.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a text-handler default logger whose level is read from the
// LOG_LEVEL environment variable (debug|info|warn|error, default warn).
// Call it once from main or from a test's TestMain.
func Init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
