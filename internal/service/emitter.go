package service

import "context"

// ─────────────────────────────────────────────────────────────
// EventEmitter — frontend notification boundary
// ─────────────────────────────────────────────────────────────

// EventEmitter carries workspace and controller-batch notifications out to
// the rendering layer. The app shell implements it over wailsRuntime
// EventsEmit; services depend only on the interface, so they run headless
// in tests and under the MCP stdio server.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// MockEmitter records every emission so tests can assert on graph-changed
// and workspace lifecycle events.
type MockEmitter struct {
	Events []EmittedEvent
}

// EmittedEvent is one recorded Emit call.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}
