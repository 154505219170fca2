package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the daemon's root logger, installs it as the slog default,
// and returns it. Every subsystem hangs its own logger off this root via
// logger.With("component", ...), so the level set here gates the whole
// process.
func Setup(level string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name ("debug", "info", "warn", "error",
// case-insensitive) to its slog level. Anything unrecognized, including
// the empty string, falls back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
