package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"smartbuyer-go/infrastructure/configstore"
	"smartbuyer-go/presentation/console"
)

func TestParseFlags(t *testing.T) {
	var stderr bytes.Buffer
	opts, err := parseFlags([]string{
		"--console", "-c", "my.json", "--timeout", "90s", "--no-confirm",
		"--set", "max_retries=5", "--set", "click_delay=0.1", "-v",
	}, &stderr)
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}

	if !opts.console || !opts.noConfirm || !opts.verbose {
		t.Errorf("bool flags not set: %+v", opts)
	}
	if opts.configPath != "my.json" {
		t.Errorf("configPath = %q, want my.json", opts.configPath)
	}
	if opts.timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", opts.timeout)
	}
	if len(opts.set) != 2 || opts.set[1] != "click_delay=0.1" {
		t.Errorf("set = %v", opts.set)
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	opts, err := parseFlags(nil, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("parseFlags() error = %v", err)
	}
	if opts.console || opts.configPath != "config.json" || opts.timeout != 0 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestParseFlags_Errors(t *testing.T) {
	tests := [][]string{
		{"-v", "-q"},
		{"--timeout", "soon"},
		{"--no-such-flag"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := parseFlags(args, &bytes.Buffer{}); err == nil {
				t.Error("parseFlags() error = nil")
			}
		})
	}
}

func TestRun_FlagErrorExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--timeout", "soon"}, &stdout, &stderr); code != console.ExitConfig {
		t.Errorf("run() = %d, want %d", code, console.ExitConfig)
	}
}

func TestRun_ValidateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-c", path, "--validate-config"}, &stdout, &stderr)
	if code != console.ExitOK {
		t.Fatalf("run() = %d, stderr = %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "is valid") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunConfigCommand_SetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := configstore.Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var stdout, stderr bytes.Buffer
	opts := &options{set: []string{"max_retries=7"}, get: "max_retries"}
	if code := runConfigCommand(store, opts, &stdout, &stderr); code != console.ExitOK {
		t.Fatalf("runConfigCommand() = %d, stderr = %s", code, stderr.String())
	}
	if !strings.HasSuffix(strings.TrimSpace(stdout.String()), "7") {
		t.Errorf("stdout = %q, want the new value", stdout.String())
	}

	saved, err := configstore.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.MaxRetries != 7 {
		t.Errorf("saved MaxRetries = %d, want 7", saved.MaxRetries)
	}
}

func TestRunConfigCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts *options
	}{
		{"missing equals", &options{set: []string{"max_retries"}}},
		{"unknown key", &options{set: []string{"nope=1"}}},
		{"invalid value", &options{set: []string{"max_retries=-1"}}},
		{"unknown get", &options{get: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := configstore.Open(filepath.Join(t.TempDir(), "config.json"), nil)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			var stdout, stderr bytes.Buffer
			if code := runConfigCommand(store, tt.opts, &stdout, &stderr); code != console.ExitConfig {
				t.Errorf("runConfigCommand() = %d, want %d", code, console.ExitConfig)
			}
		})
	}
}

func TestRunConfigCommand_List(t *testing.T) {
	store, err := configstore.Open(filepath.Join(t.TempDir(), "config.json"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	var stdout bytes.Buffer
	if code := runConfigCommand(store, &options{listConfig: true}, &stdout, &bytes.Buffer{}); code != console.ExitOK {
		t.Fatalf("runConfigCommand() = %d", code)
	}
	for _, want := range []string{"max_retries = 3", "countdown_box = [100,200,300,240]", "log_level = info"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("list output missing %q", want)
		}
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"info", "info"},
		{3, "3"},
		{true, "true"},
		{[]any{1, 2}, "[1,2]"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.in); got != tt.want {
			t.Errorf("formatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
