package monitor

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"smartbuyer-go/core/state"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/ocr"
)

// step is one scripted reader result.
type step struct {
	reading countdown.Reading
	err     error
}

func secs(v int) step { return step{reading: countdown.Recognized(v, "", "test")} }

func miss() step { return step{reading: countdown.Unrecognized("")} }

func fail(msg string) step { return step{err: errors.New(msg)} }

// scriptedReader replays steps, repeating the last one when exhausted.
type scriptedReader struct {
	mu    sync.Mutex
	steps []step
	calls int
	reset int
}

func (r *scriptedReader) Read(ctx context.Context) (countdown.Reading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.calls
	if i >= len(r.steps) {
		i = len(r.steps) - 1
	}
	r.calls++
	s := r.steps[i]
	return s.reading, s.err
}

func (r *scriptedReader) Reset() {
	r.mu.Lock()
	r.reset++
	r.mu.Unlock()
}

func (r *scriptedReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// recordingExecutor records each Execute call.
type recordingExecutor struct {
	mu    sync.Mutex
	calls [][]settings.ClickTarget
	err   error
}

func (e *recordingExecutor) Execute(ctx context.Context, targets []settings.ClickTarget, delay time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, targets)
	return e.err
}

func (e *recordingExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

// collector gathers snapshots delivered to a listener.
type collector struct {
	mu        sync.Mutex
	snapshots []state.Snapshot
	onStatus  func(s state.Snapshot)
}

func (c *collector) OnStatus(s state.Snapshot) {
	c.mu.Lock()
	c.snapshots = append(c.snapshots, s)
	hook := c.onStatus
	c.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}

func (c *collector) All() []state.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]state.Snapshot(nil), c.snapshots...)
}

// textEngine returns a fixed OCR text and counts calls.
type textEngine struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (e *textEngine) Recognize(ctx context.Context, img image.Image) (*ocr.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return &ocr.Result{Text: e.text}, nil
}

func (e *textEngine) Name() string { return "text" }

func (e *textEngine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// timedClicker records the time of each click and fails at index failAt.
type timedClicker struct {
	mu     sync.Mutex
	points [][2]int
	times  []time.Time
	failAt int
}

func newTimedClicker() *timedClicker { return &timedClicker{failAt: -1} }

func (c *timedClicker) Click(ctx context.Context, x, y int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.points) == c.failAt {
		return errors.New("injection failed")
	}
	c.points = append(c.points, [2]int{x, y})
	c.times = append(c.times, time.Now())
	return nil
}

var testTargets = []settings.ClickTarget{
	{Name: "buy", Point: settings.Point{X: 10, Y: 20}},
	{Name: "confirm", Point: settings.Point{X: 30, Y: 40}},
}

// blockingReader holds each read until release is closed, then reports
// the countdown at zero.
type blockingReader struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingReader() *blockingReader {
	return &blockingReader{entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *blockingReader) Read(ctx context.Context) (countdown.Reading, error) {
	r.once.Do(func() { close(r.entered) })
	<-r.release
	return countdown.Recognized(0, "00:00", "test"), nil
}

// frameSequence serves one frame per capture, repeating the last.
type frameSequence struct {
	mu     sync.Mutex
	frames []image.Image
	calls  int
}

func (s *frameSequence) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.frames) {
		i = len(s.frames) - 1
	}
	s.calls++
	return s.frames[i], nil
}

func (s *frameSequence) Bounds() image.Rectangle { return s.frames[0].Bounds() }

// sequenceEngine returns texts in order, repeating the last.
type sequenceEngine struct {
	mu    sync.Mutex
	texts []string
	calls int
}

func (e *sequenceEngine) Recognize(ctx context.Context, img image.Image) (*ocr.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.calls
	if i >= len(e.texts) {
		i = len(e.texts) - 1
	}
	e.calls++
	return &ocr.Result{Text: e.texts[i]}, nil
}

func (e *sequenceEngine) Name() string { return "sequence" }
