// Package logger configures the process-wide slog logger from LOG_LEVEL and
// LOG_FORMAT. Output goes to stderr so it never mixes with the terminal map.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

func Setup() *slog.Logger {
	return SetupWriter(os.Stderr)
}

func SetupWriter(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(os.Getenv("LOG_LEVEL"))}
	var h slog.Handler
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Discard is used by the terminal UI when no log file is requested.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
