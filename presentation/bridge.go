// Package presentation provides the UI layer with event bridging to the application layer.
package presentation

import (
	"log/slog"
	"sync"

	"smartbuyer-go/application"
	"smartbuyer-go/core/command"
	"smartbuyer-go/core/event"
	"smartbuyer-go/core/eventbus"
	"smartbuyer-go/core/state"
	"smartbuyer-go/domain/settings"
)

// Dispatcher accepts commands from the UI.
type Dispatcher interface {
	Dispatch(cmd command.Command) error
	IsRunning() bool
	Settings() settings.Settings
}

var _ Dispatcher = (*application.Coordinator)(nil)

// UIEventBridge bridges UI events to the application layer and routes events back to UI.
// It provides a clean separation between UI and business logic.
type UIEventBridge struct {
	coordinator Dispatcher
	eventBus    eventbus.EventBus
	logger      *slog.Logger

	// UI callbacks - set by UI components
	callbacks   *UICallbacks
	callbacksMu sync.RWMutex

	// Subscription management
	subscriptionID string
}

// UICallbacks contains callbacks for UI updates. They run on the event
// bus goroutine; widget updates must go through fyne.Do.
type UICallbacks struct {
	// Run lifecycle
	OnMonitorStarted  func(runID string)
	OnStatusUpdated   func(s state.Snapshot)
	OnMonitorFinished func(s state.Snapshot, reason event.StopReason)

	// Tools
	OnRecognitionTested func(result *event.RecognitionTested)
	OnClickTested       func(result *event.ClickTested)
	OnSettingsApplied   func(path string, saved bool)
	OnOperationFailed   func(operation string, err error)
}

// BridgeConfig holds configuration for UIEventBridge.
type BridgeConfig struct {
	Coordinator Dispatcher
	EventBus    eventbus.EventBus
	Logger      *slog.Logger
}

// NewUIEventBridge creates a new UI event bridge.
func NewUIEventBridge(cfg *BridgeConfig) *UIEventBridge {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &UIEventBridge{
		coordinator: cfg.Coordinator,
		eventBus:    cfg.EventBus,
		logger:      cfg.Logger,
		callbacks:   &UICallbacks{},
	}

	// Subscribe to events
	if b.eventBus != nil {
		b.subscriptionID = b.eventBus.Subscribe(b.handleEvent)
	}

	return b
}

// SetCallbacks sets the UI callbacks.
func (b *UIEventBridge) SetCallbacks(callbacks *UICallbacks) {
	b.callbacksMu.Lock()
	defer b.callbacksMu.Unlock()
	b.callbacks = callbacks
}

// Close unsubscribes from the event bus.
func (b *UIEventBridge) Close() {
	if b.eventBus != nil && b.subscriptionID != "" {
		b.eventBus.Unsubscribe(b.subscriptionID)
	}
}

// Command dispatching methods

// StartMonitoring starts a monitoring run.
func (b *UIEventBridge) StartMonitoring() error {
	return b.coordinator.Dispatch(&command.StartMonitoring{})
}

// StopMonitoring stops the active run.
func (b *UIEventBridge) StopMonitoring() error {
	return b.coordinator.Dispatch(&command.StopMonitoring{})
}

// TestRecognition reads the countdown region once.
func (b *UIEventBridge) TestRecognition(saveDebugImage bool) error {
	return b.coordinator.Dispatch(&command.TestRecognition{SaveDebugImage: saveDebugImage})
}

// TestClick runs the click sequence outside a run.
func (b *UIEventBridge) TestClick(dryRun bool) error {
	return b.coordinator.Dispatch(&command.TestClick{DryRun: dryRun})
}

// ApplySettings replaces the active settings, saving them when save is set.
func (b *UIEventBridge) ApplySettings(s settings.Settings, save bool) error {
	return b.coordinator.Dispatch(command.NewApplySettings(s, save))
}

// Query methods

// IsRunning reports whether a run is active.
func (b *UIEventBridge) IsRunning() bool {
	return b.coordinator.IsRunning()
}

// Settings returns the active settings.
func (b *UIEventBridge) Settings() settings.Settings {
	return b.coordinator.Settings()
}

// Event handling

func (b *UIEventBridge) handleEvent(e event.Event) {
	b.callbacksMu.RLock()
	callbacks := b.callbacks
	b.callbacksMu.RUnlock()

	if callbacks == nil {
		return
	}

	switch evt := e.(type) {
	case *event.MonitorStarted:
		if callbacks.OnMonitorStarted != nil {
			callbacks.OnMonitorStarted(evt.RunID())
		}

	case *event.StatusUpdated:
		if callbacks.OnStatusUpdated != nil {
			callbacks.OnStatusUpdated(evt.Snapshot)
		}

	case *event.MonitorFinished:
		if callbacks.OnMonitorFinished != nil {
			callbacks.OnMonitorFinished(evt.Snapshot, evt.Reason)
		}

	case *event.RecognitionTested:
		if callbacks.OnRecognitionTested != nil {
			callbacks.OnRecognitionTested(evt)
		}

	case *event.ClickTested:
		if callbacks.OnClickTested != nil {
			callbacks.OnClickTested(evt)
		}

	case *event.SettingsApplied:
		if callbacks.OnSettingsApplied != nil {
			callbacks.OnSettingsApplied(evt.Path, evt.Saved)
		}

	case *event.OperationFailed:
		if callbacks.OnOperationFailed != nil {
			callbacks.OnOperationFailed(evt.Operation, evt.Error)
		}
	}
}
