package compile

import (
	"sync"
	"time"
)

// EventType represents the type of compile event.
type EventType string

const (
	// Run lifecycle events
	EventCompileStarted   EventType = "compile_started"
	EventCompileCompleted EventType = "compile_completed"
	EventCompileFailed    EventType = "compile_failed"

	// Stage lifecycle events
	EventStageStarted   EventType = "stage_started"
	EventStageCompleted EventType = "stage_completed"
	EventStageFailed    EventType = "stage_failed"
)

// Event represents an observable compile event with typed data.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// EventEmitter manages event listeners and dispatches events.
type EventEmitter struct {
	mu        sync.RWMutex
	listeners []func(Event)
}

// NewEventEmitter creates a new EventEmitter.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{
		listeners: make([]func(Event), 0),
	}
}

// On registers a listener function to receive events.
// Listeners are called synchronously in registration order.
func (e *EventEmitter) On(listener func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Emit dispatches an event to all registered listeners. A nil emitter
// drops the event.
func (e *EventEmitter) Emit(event Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	listeners := make([]func(Event), len(e.listeners))
	copy(listeners, e.listeners)
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// ListenerCount returns the number of registered listeners.
func (e *EventEmitter) ListenerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners)
}

// CompileStartedEvent creates a compile_started event.
func CompileStartedEvent(name, runID string) Event {
	return Event{
		Type:      EventCompileStarted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name":   name,
			"run_id": runID,
		},
	}
}

// CompileCompletedEvent creates a compile_completed event.
func CompileCompletedEvent(runID string, duration time.Duration, nodes, arrows, skipped int) Event {
	return Event{
		Type:      EventCompileCompleted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":         runID,
			"duration_ms":    duration.Milliseconds(),
			"node_count":     nodes,
			"arrow_count":    arrows,
			"skipped_arrows": skipped,
		},
	}
}

// CompileFailedEvent creates a compile_failed event.
func CompileFailedEvent(runID, err string, diagnostics int) Event {
	return Event{
		Type:      EventCompileFailed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"run_id":      runID,
			"error":       err,
			"diagnostics": diagnostics,
		},
	}
}

// StageStartedEvent creates a stage_started event.
func StageStartedEvent(stage Stage) Event {
	return Event{
		Type:      EventStageStarted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name": string(stage),
		},
	}
}

// StageCompletedEvent creates a stage_completed event.
func StageCompletedEvent(stage Stage, duration time.Duration) Event {
	return Event{
		Type:      EventStageCompleted,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name":        string(stage),
			"duration_ms": duration.Milliseconds(),
		},
	}
}

// StageFailedEvent creates a stage_failed event.
func StageFailedEvent(stage Stage, err string, diagnostics int) Event {
	return Event{
		Type:      EventStageFailed,
		Timestamp: time.Now(),
		Data: map[string]any{
			"name":        string(stage),
			"error":       err,
			"diagnostics": diagnostics,
		},
	}
}
