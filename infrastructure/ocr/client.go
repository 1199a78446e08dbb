// Package ocr provides the text recognition engine and the image
// preprocessing that runs before it.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"smartbuyer-go/core/apperr"
)

// Engine recognizes text in an image.
type Engine interface {
	// Recognize returns the text found in img.
	Recognize(ctx context.Context, img image.Image) (*Result, error)

	// Name identifies the engine in logs.
	Name() string
}

// Result contains the OCR recognition result.
type Result struct {
	Text    string
	Elapsed time.Duration
}

// TesseractConfig contains configuration for the tesseract engine.
type TesseractConfig struct {
	// Path to the tesseract binary. Empty searches PATH and the usual
	// install locations.
	Path string
	// Language passed with -l.
	Language string
	// PageSegMode passed with --psm.
	PageSegMode int
	// Whitelist restricts recognized characters. Empty disables it.
	Whitelist string
	// Timeout bounds a single recognition.
	Timeout time.Duration
	// Verify runs "tesseract --version" at construction.
	Verify bool
}

// DefaultTesseractConfig returns a config for single-line digit overlays.
func DefaultTesseractConfig() *TesseractConfig {
	return &TesseractConfig{
		Language:    "eng",
		PageSegMode: 8,
		Whitelist:   "0123456789:",
		Timeout:     5 * time.Second,
		Verify:      true,
	}
}

// wellKnownPaths are checked when no path is configured and tesseract is
// not on PATH.
var wellKnownPaths = map[string][]string{
	"windows": {
		`C:\Program Files\Tesseract-OCR\tesseract.exe`,
		`C:\Program Files (x86)\Tesseract-OCR\tesseract.exe`,
	},
	"darwin": {"/opt/homebrew/bin/tesseract", "/usr/local/bin/tesseract"},
	"linux":  {"/usr/bin/tesseract", "/usr/local/bin/tesseract"},
}

// Tesseract runs the tesseract command line tool once per image.
type Tesseract struct {
	config  TesseractConfig
	path    string
	version string
}

// NewTesseract resolves the tesseract binary. A missing or unusable
// binary is an OCR error.
func NewTesseract(config *TesseractConfig) (*Tesseract, error) {
	if config == nil {
		config = DefaultTesseractConfig()
	}
	cfg := *config
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	path, err := resolveBinary(cfg.Path)
	if err != nil {
		return nil, err
	}

	t := &Tesseract{config: cfg, path: path}
	if cfg.Verify {
		if err := t.verify(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func resolveBinary(configured string) (string, error) {
	if configured != "" {
		info, err := os.Stat(configured)
		if err != nil {
			return "", apperr.OCR("resolve", err, "tesseract not found at %s", configured)
		}
		if info.IsDir() {
			name := "tesseract"
			if runtime.GOOS == "windows" {
				name += ".exe"
			}
			return resolveBinary(filepath.Join(configured, name))
		}
		return configured, nil
	}

	if path, err := exec.LookPath("tesseract"); err == nil {
		return path, nil
	}
	for _, p := range wellKnownPaths[runtime.GOOS] {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", apperr.OCR("resolve", exec.ErrNotFound, "tesseract is not installed or not on PATH; set tesseract_path")
}

func (t *Tesseract) verify() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.config.Timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, t.path, "--version").CombinedOutput()
	if err != nil {
		return apperr.OCR("verify", err, "cannot run %s", t.path)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	t.version = strings.TrimSpace(line)
	return nil
}

// Path returns the resolved binary path.
func (t *Tesseract) Path() string { return t.path }

// Version returns the first line of "tesseract --version", if verified.
func (t *Tesseract) Version() string { return t.version }

// Name identifies the engine.
func (t *Tesseract) Name() string { return "tesseract" }

// Args returns the command line arguments used for recognition.
func (t *Tesseract) Args() []string {
	args := []string{"stdin", "stdout"}
	if t.config.Language != "" {
		args = append(args, "-l", t.config.Language)
	}
	args = append(args, "--psm", strconv.Itoa(t.config.PageSegMode))
	if t.config.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+t.config.Whitelist)
	}
	return args
}

// Recognize encodes img as PNG and pipes it through tesseract.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (*Result, error) {
	start := time.Now()

	var in bytes.Buffer
	if err := png.Encode(&in, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.path, t.Args()...)
	cmd.Stdin = &in
	cmd.Env = append(os.Environ(), "OMP_THREAD_LIMIT=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("tesseract timed out after %s", t.config.Timeout)
		}
		return nil, fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return &Result{
		Text:    strings.TrimSpace(string(out)),
		Elapsed: time.Since(start),
	}, nil
}

// Ensure Tesseract implements Engine
var _ Engine = (*Tesseract)(nil)
