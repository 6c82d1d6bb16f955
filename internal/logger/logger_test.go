package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupWriter_JSON(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_LEVEL", "info")

	var buf bytes.Buffer
	l := SetupWriter(&buf)
	l.Debug("hidden")
	l.Info("shown", "metric", "euclid")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line should be filtered")
	}
	if !strings.Contains(out, `"metric":"euclid"`) {
		t.Errorf("expected json output, got %q", out)
	}
}
