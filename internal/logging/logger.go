package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the process-wide logger used by both binaries. Output is
// structured JSON on stdout so a collector can ingest it without a parsing
// step; the level string comes straight from LOG_LEVEL.
func NewLogger(level string) *slog.Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo is NewLogger with an explicit sink, for tests that capture
// output.
func NewLoggerTo(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	}))
}

// ParseLevel maps a config string onto a slog level. Unknown values fall
// back to info rather than erroring; a bad LOG_LEVEL should never stop a
// deploy.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
