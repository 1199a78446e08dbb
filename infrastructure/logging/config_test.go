package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestConfig_LogPath(t *testing.T) {
	cfg := &Config{Dir: filepath.Join("var", "log"), File: "buyer.log"}
	if got, want := cfg.LogPath(), filepath.Join("var", "log", "buyer.log"); got != want {
		t.Errorf("LogPath() = %q, want %q", got, want)
	}

	cfg.File = filepath.Join("custom", "x.log")
	if got := cfg.LogPath(); got != cfg.File {
		t.Errorf("LogPath() = %q, want %q", got, cfg.File)
	}
}

func TestSetup_Mirror(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	cfg.Mirror = &buf

	logger, closeFn, err := Setup(cfg)
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closeFn()

	logger.Info("mirrored entry", "k", "v")
	if !strings.Contains(buf.String(), "mirrored entry") {
		t.Errorf("mirror output = %q, want entry", buf.String())
	}
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := With(context.Background(), logger)
	ctx = WithAttrs(ctx, "run", "r1")
	From(ctx).Info("hello")

	if !strings.Contains(buf.String(), "run=r1") {
		t.Errorf("output = %q, want run attribute", buf.String())
	}
	if From(context.Background()) == nil {
		t.Error("From() without logger returned nil")
	}
}
