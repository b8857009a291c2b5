package engine

import (
	"context"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples the engine from any host frontend
// ─────────────────────────────────────────────────────────────

// Event names emitted by the engine and the app layer.
const (
	EventRedraw         = "diagram:redraw"
	EventSaveError      = "diagram:save-error"
	EventRenameRejected = "diagram:rename-rejected"
	EventOpenInEditor   = "diagram:open-in-editor"
	EventRefreshed      = "diagram:refreshed"
)

// EventEmitter is an interface for pushing notifications to the host.
// The app layer implements it for whatever transport the host uses;
// the engine never knows about the frontend, which keeps it testable
// with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times the named event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}
