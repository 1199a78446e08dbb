package screen

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Saver writes debug frames to disk.
type Saver struct {
	logger  *slog.Logger
	saveDir string
}

// NewSaver creates a saver writing under dir, or the default directory
// when dir is empty.
func NewSaver(dir string, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = DefaultSaveDir()
	}
	return &Saver{logger: logger, saveDir: dir}
}

// DefaultSaveDir returns the default directory for debug frames.
func DefaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Pictures", "smartbuyer")
}

// Dir returns the save directory.
func (s *Saver) Dir() string { return s.saveDir }

// Save writes img as <prefix>-<unix millis>.png and returns the path.
func (s *Saver) Save(prefix string, img image.Image) (string, error) {
	if err := os.MkdirAll(s.saveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create save directory: %w", err)
	}

	filename := filepath.Join(s.saveDir, fmt.Sprintf("%s-%d.png", prefix, time.Now().UnixMilli()))
	if err := EncodePNG(filename, img); err != nil {
		return "", err
	}

	s.logger.Debug("Frame saved", "filename", filename)
	return filename, nil
}
