// Package monitor implements the countdown monitoring run: reading the
// on-screen timer, deciding when to fire, and dispatching the clicks.
package monitor

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/corona10/goimagehash"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/ocr"
	"smartbuyer-go/infrastructure/screen"
)

// CountdownReader produces one reading per call.
type CountdownReader interface {
	Read(ctx context.Context) (countdown.Reading, error)
}

// ReaderConfig holds configuration for the Reader.
type ReaderConfig struct {
	Capturer   screen.Capturer
	Engine     ocr.Engine
	Parser     *countdown.Parser
	Region     settings.Region
	Preprocess ocr.PreprocessOptions
	// SkipUnchanged reuses the previous reading when the preprocessed
	// frame matches the last recognized one pixel for pixel.
	SkipUnchanged bool
	Logger        *slog.Logger
}

// Reader captures the countdown region, enhances it and runs OCR.
type Reader struct {
	capturer   screen.Capturer
	engine     ocr.Engine
	parser     *countdown.Parser
	rect       image.Rectangle
	preprocess ocr.PreprocessOptions
	cache      *frameCache
	logger     *slog.Logger
}

// NewReader creates a countdown reader.
func NewReader(cfg *ReaderConfig) (*Reader, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Capturer == nil {
		return nil, apperr.Configuration("countdown_box", "no screen capturer")
	}
	if cfg.Engine == nil {
		return nil, apperr.OCR("init", nil, "no OCR engine")
	}
	if cfg.Region.Empty() {
		return nil, apperr.Configuration("countdown_box", "region must have positive size")
	}
	parser := cfg.Parser
	if parser == nil {
		var err error
		if parser, err = countdown.NewParser(nil); err != nil {
			return nil, err
		}
	}

	r := &Reader{
		capturer:   cfg.Capturer,
		engine:     cfg.Engine,
		parser:     parser,
		rect:       cfg.Region.Rect(),
		preprocess: cfg.Preprocess,
		logger:     cfg.Logger,
	}
	if cfg.SkipUnchanged {
		r.cache = newFrameCache(0)
	}
	return r, nil
}

// Probe is the full result of one recognition, kept for diagnostics.
type Probe struct {
	Reading   countdown.Reading
	Raw       image.Image
	Processed *image.Gray
	Elapsed   time.Duration
	Cached    bool
}

// Read returns the current countdown reading. Text that matches no
// format is an unrecognized reading, not an error; errors mean the
// frame could not be captured or OCR failed.
func (r *Reader) Read(ctx context.Context) (countdown.Reading, error) {
	p, err := r.Probe(ctx)
	if err != nil {
		return countdown.Reading{}, err
	}
	return p.Reading, nil
}

// Probe performs one capture and recognition and returns every
// intermediate artifact.
func (r *Reader) Probe(ctx context.Context) (*Probe, error) {
	start := time.Now()

	raw, err := r.capturer.Capture(ctx, r.rect)
	if err != nil {
		return nil, apperr.OCR("capture", err, "failed to capture countdown region %v", r.rect)
	}

	processed := ocr.Preprocess(raw, r.preprocess)
	probe := &Probe{Raw: raw, Processed: processed}

	var hash *goimagehash.ImageHash
	if r.cache != nil {
		var cached countdown.Reading
		if cached, hash, probe.Cached = r.cache.lookup(processed); probe.Cached {
			probe.Reading = cached
			probe.Elapsed = time.Since(start)
			return probe, nil
		}
	}

	result, err := r.engine.Recognize(ctx, processed)
	if err != nil {
		return nil, apperr.OCR("recognize", err, "%s failed", r.engine.Name())
	}

	probe.Reading = r.parser.Parse(result.Text)
	probe.Elapsed = time.Since(start)
	if r.cache != nil {
		r.cache.store(hash, processed, probe.Reading)
	}

	r.logger.Debug("Countdown read",
		"text", probe.Reading.Text,
		"recognized", probe.Reading.Recognized,
		"seconds", probe.Reading.Seconds,
		"elapsed", probe.Elapsed,
	)
	return probe, nil
}

// Reset forgets cached frames. Called at the start of each run.
func (r *Reader) Reset() {
	if r.cache != nil {
		r.cache.reset()
	}
}

// Formats returns the active countdown patterns in match order.
func (r *Reader) Formats() []string {
	return r.parser.Formats()
}
