package application

import (
	"context"
	"errors"
	"image"
	"os"
	"sync"
	"testing"
	"time"

	"smartbuyer-go/core/apperr"
	"smartbuyer-go/core/command"
	"smartbuyer-go/core/event"
	"smartbuyer-go/core/eventbus"
	"smartbuyer-go/domain/countdown"
	"smartbuyer-go/domain/settings"
	"smartbuyer-go/infrastructure/input"
	"smartbuyer-go/infrastructure/notify"
	"smartbuyer-go/infrastructure/ocr"
	"smartbuyer-go/infrastructure/screen"
	"smartbuyer-go/resources"
)

type fixedEngine struct{ text string }

func (e *fixedEngine) Recognize(ctx context.Context, img image.Image) (*ocr.Result, error) {
	return &ocr.Result{Text: e.text}, nil
}

func (e *fixedEngine) Name() string { return "fixed" }

func fixedOCR(text string) OCRFactory {
	return func(settings.Settings) (ocr.Engine, error) { return &fixedEngine{text: text}, nil }
}

type memoryPersister struct {
	saved []settings.Settings
	err   error
}

func (p *memoryPersister) Save(s settings.Settings) error {
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, s)
	return nil
}

func (p *memoryPersister) Path() string { return "memory.json" }

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []notify.Alert
}

func (n *recordingNotifier) Notify(a notify.Alert) {
	n.mu.Lock()
	n.alerts = append(n.alerts, a)
	n.mu.Unlock()
}

func (n *recordingNotifier) Alerts() []notify.Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Alert(nil), n.alerts...)
}

type eventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func (l *eventLog) handle(e event.Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.events))
	for i, e := range l.events {
		names[i] = e.EventName()
	}
	return names
}

func (l *eventLog) Finished() *event.MonitorFinished {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if f, ok := e.(*event.MonitorFinished); ok {
			return f
		}
	}
	return nil
}

type fixture struct {
	coord    *Coordinator
	bus      eventbus.EventBus
	events   *eventLog
	clicker  *input.DryRunClicker
	notifier *recordingNotifier
	persist  *memoryPersister
}

func newFixture(t *testing.T, s settings.Settings, factory OCRFactory) *fixture {
	t.Helper()

	presets, err := countdown.LoadPresets(resources.FormatFiles)
	if err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		bus:      eventbus.New(100),
		events:   &eventLog{},
		clicker:  input.NewDryRunClicker(nil),
		notifier: &recordingNotifier{},
		persist:  &memoryPersister{},
	}
	f.bus.Subscribe(f.events.handle)
	t.Cleanup(f.bus.Close)

	f.coord = NewCoordinator(&CoordinatorConfig{
		Settings:   s,
		EventBus:   f.bus,
		Presets:    presets,
		Capturer:   screen.NewImageCapturer(image.NewRGBA(image.Rect(0, 0, 1024, 768))),
		Clicker:    f.clicker,
		OCRFactory: factory,
		Persister:  f.persist,
		Notifier:   f.notifier,
		Saver:      screen.NewSaver(t.TempDir(), nil),
	})
	t.Cleanup(f.coord.Stop)
	return f
}

func fastSettings() settings.Settings {
	s := settings.Default()
	s.CheckInterval = 0.001
	s.ClickDelay = 0
	return s
}

func (f *fixture) run(t *testing.T) {
	t.Helper()
	if _, err := f.coord.StartMonitoring(context.Background()); err != nil {
		t.Fatalf("StartMonitoring() error = %v", err)
	}
	select {
	case <-f.coord.Engine().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	// drain the bus
	f.bus.Close()
}

func TestCoordinator_CompletedRun(t *testing.T) {
	f := newFixture(t, fastSettings(), fixedOCR("00:00"))
	f.run(t)

	clicks := f.clicker.Clicks()
	if len(clicks) != 2 || clicks[0] != [2]int{500, 600} || clicks[1] != [2]int{550, 650} {
		t.Errorf("clicks = %v, want buy then confirm", clicks)
	}

	names := f.events.Names()
	if len(names) < 3 || names[0] != "MonitorStarted" || names[1] != "StatusUpdated" {
		t.Errorf("events = %v", names)
	}
	finished := f.events.Finished()
	if finished == nil || finished.Reason != event.StopReasonCompleted {
		t.Errorf("MonitorFinished = %+v, want Completed", finished)
	}
	if got := f.notifier.Alerts(); len(got) != 1 || got[0] != notify.AlertCompleted {
		t.Errorf("alerts = %v, want completed chime", got)
	}
}

func TestCoordinator_RetriesExhausted(t *testing.T) {
	s := fastSettings()
	s.MaxRetries = 1
	f := newFixture(t, s, fixedOCR(""))
	f.run(t)

	finished := f.events.Finished()
	if finished == nil || finished.Reason != event.StopReasonRetriesExhausted {
		t.Fatalf("MonitorFinished = %+v, want RetriesExhausted", finished)
	}
	if finished.Snapshot.RetryCount != 2 {
		t.Errorf("retry_count = %d, want 2", finished.Snapshot.RetryCount)
	}
	if got := f.notifier.Alerts(); len(got) != 1 || got[0] != notify.AlertAborted {
		t.Errorf("alerts = %v, want aborted buzz", got)
	}
	if len(f.clicker.Clicks()) != 0 {
		t.Error("clicked on an aborted run")
	}
}

func TestCoordinator_PrepareErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *settings.Settings)
		factory OCRFactory
		kind    apperr.Kind
	}{
		{
			name:    "ocr unavailable",
			factory: func(settings.Settings) (ocr.Engine, error) { return nil, errors.New("not found") },
			kind:    apperr.KindOCR,
		},
		{
			name:    "invalid region",
			mutate:  func(s *settings.Settings) { s.CountdownBox = []int{10, 10, 5, 5} },
			factory: fixedOCR("1"),
			kind:    apperr.KindConfiguration,
		},
		{
			name:    "off screen",
			mutate:  func(s *settings.Settings) { s.BuyButton = []int{5000, 10} },
			factory: fixedOCR("1"),
			kind:    apperr.KindConfiguration,
		},
		{
			name:    "unknown preset",
			mutate:  func(s *settings.Settings) { s.CountdownFormats = []string{"preset:nope"} },
			factory: fixedOCR("1"),
			kind:    apperr.KindConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fastSettings()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			f := newFixture(t, s, tt.factory)

			err := f.coord.Prepare()
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("Prepare() error = %v, want %v", err, tt.kind)
			}
			if _, err := f.coord.StartMonitoring(context.Background()); apperr.KindOf(err) != tt.kind {
				t.Errorf("StartMonitoring() error = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestCoordinator_PresetFormats(t *testing.T) {
	s := fastSettings()
	s.CountdownFormats = []string{"preset:chinese"}
	f := newFixture(t, s, fixedOCR("1时02分03秒"))

	res, err := f.coord.ProbeRecognition(context.Background(), false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Recognized || res.Seconds != 3723 {
		t.Errorf("probe = %+v, want 3723 seconds", res)
	}
}

func TestCoordinator_ProbeSavesDebugImage(t *testing.T) {
	f := newFixture(t, fastSettings(), fixedOCR("00:30"))

	res, err := f.coord.ProbeRecognition(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Seconds != 30 {
		t.Errorf("seconds = %d, want 30", res.Seconds)
	}
	if res.ImagePath == "" {
		t.Fatal("ImagePath empty")
	}
	if _, err := os.Stat(res.ImagePath); err != nil {
		t.Errorf("debug image missing: %v", err)
	}
}

func TestCoordinator_TestClicksDryRun(t *testing.T) {
	f := newFixture(t, fastSettings(), fixedOCR("1"))

	if err := f.coord.Dispatch(&command.TestClick{DryRun: true}); err != nil {
		t.Fatal(err)
	}
	if n := len(f.clicker.Clicks()); n != 0 {
		t.Errorf("dry run used the real clicker %d times", n)
	}

	if err := f.coord.Dispatch(&command.TestClick{}); err != nil {
		t.Fatal(err)
	}
	if n := len(f.clicker.Clicks()); n != 2 {
		t.Errorf("clicks = %d, want 2", n)
	}
}

func TestCoordinator_Reconfigure(t *testing.T) {
	f := newFixture(t, fastSettings(), fixedOCR("99"))

	if _, err := f.coord.StartMonitoring(context.Background()); err != nil {
		t.Fatal(err)
	}
	s := fastSettings()
	s.MaxRetries = 9
	if err := f.coord.Reconfigure(s, true); !apperr.IsAutomation(err) {
		t.Errorf("Reconfigure while running error = %v, want AutomationError", err)
	}
	if err := f.coord.Dispatch(&command.TestClick{DryRun: true}); !apperr.IsAutomation(err) {
		t.Errorf("TestClick while running error = %v, want AutomationError", err)
	}

	f.coord.Dispatch(&command.StopMonitoring{})
	if f.coord.IsRunning() {
		t.Fatal("still running after stop")
	}

	if err := f.coord.Dispatch(command.NewApplySettings(s, true)); err != nil {
		t.Fatalf("ApplySettings error = %v", err)
	}
	if got := f.coord.Settings().MaxRetries; got != 9 {
		t.Errorf("MaxRetries = %d, want 9", got)
	}
	if len(f.persist.saved) != 1 {
		t.Errorf("saved %d times, want 1", len(f.persist.saved))
	}
	if f.coord.Engine() != nil {
		t.Error("engine should be rebuilt on next start")
	}

	bad := fastSettings()
	bad.CheckInterval = 0
	if err := f.coord.Reconfigure(bad, false); !apperr.IsConfiguration(err) {
		t.Errorf("Reconfigure(invalid) error = %v, want ConfigurationError", err)
	}
}

func TestCoordinator_StopWhileIdle(t *testing.T) {
	f := newFixture(t, fastSettings(), fixedOCR("1"))
	if err := f.coord.Dispatch(&command.StopMonitoring{}); err != nil {
		t.Errorf("StopMonitoring while idle error = %v", err)
	}
}

type unknownCommand struct{}

func (unknownCommand) CommandName() string { return "Unknown" }

func TestCoordinator_DispatchUnknown(t *testing.T) {
	f := newFixture(t, fastSettings(), fixedOCR("1"))
	if err := f.coord.Dispatch(unknownCommand{}); err == nil {
		t.Error("Dispatch(unknown) error = nil")
	}
}
