package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/wavelan/wifid/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	log := New(config.LoggingConfig{Level: "warn", Format: "text"}, "test")

	ctx := context.Background()
	if log.Enabled(ctx, slog.LevelInfo) {
		t.Error("info enabled at warn level")
	}
	if !log.Enabled(ctx, slog.LevelError) {
		t.Error("error not enabled at warn level")
	}
}

func TestDefault(t *testing.T) {
	log := Default()
	if log == nil || log.Logger == nil {
		t.Fatal("Default() returned nil logger")
	}
}

func TestWith(t *testing.T) {
	log := Default()
	sub := log.With("component", "server")
	if sub == nil || sub.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if sub == log {
		t.Error("With() returned the same logger")
	}
}
