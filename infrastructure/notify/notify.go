// Package notify plays audible alerts when a monitoring run ends.
package notify

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Alert identifies which sound to play.
type Alert int

const (
	// AlertCompleted is the purchase-fired chime.
	AlertCompleted Alert = iota
	// AlertAborted is the failure buzz.
	AlertAborted
)

// Notifier plays alerts.
type Notifier interface {
	Notify(alert Alert)
}

// SoundNotifier plays synthesized tones through the default audio device.
type SoundNotifier struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	logger      *slog.Logger
}

// NewSoundNotifier creates a notifier. The speaker is opened lazily on
// the first alert.
func NewSoundNotifier(logger *slog.Logger) *SoundNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SoundNotifier{mixer: &beep.Mixer{}, logger: logger}
}

func (n *SoundNotifier) init() bool {
	if n.initialized {
		return true
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		n.logger.Warn("Audio unavailable, alerts disabled", "error", err)
		return false
	}
	speaker.Play(n.mixer)
	n.initialized = true
	return true
}

// Notify plays the sound for alert without blocking.
func (n *SoundNotifier) Notify(alert Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.init() {
		return
	}

	var s beep.Streamer
	switch alert {
	case AlertCompleted:
		s = beep.Seq(
			beep.Take(sampleRate.N(120*time.Millisecond), NewTone(sampleRate, 880, 0.25)),
			beep.Take(sampleRate.N(180*time.Millisecond), NewTone(sampleRate, 1320, 0.25)),
		)
	case AlertAborted:
		s = beep.Take(sampleRate.N(400*time.Millisecond), NewTone(sampleRate, 150, 0.3))
	default:
		return
	}

	speaker.Lock()
	n.mixer.Add(s)
	speaker.Unlock()
}

// Close stops playback.
func (n *SoundNotifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.initialized {
		return
	}
	speaker.Lock()
	n.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	n.initialized = false
}

var _ Notifier = (*SoundNotifier)(nil)

// Tone generates a sine wave with a short fade-in.
type Tone struct {
	sr        beep.SampleRate
	freq      float64
	amplitude float64
	pos       int
}

// NewTone creates a tone generator.
func NewTone(sr beep.SampleRate, freq, amplitude float64) *Tone {
	return &Tone{sr: sr, freq: freq, amplitude: amplitude}
}

func (g *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		envelope := math.Min(t/0.01, 1.0)
		sample := g.amplitude * envelope * math.Sin(2*math.Pi*g.freq*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *Tone) Err() error {
	return nil
}

// Silent discards alerts.
type Silent struct{}

func (Silent) Notify(Alert) {}

var _ Notifier = Silent{}
