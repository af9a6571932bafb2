package core

import (
	"context"
	"time"
)

// EventType identifies a semantic event emitted during an agent run.
type EventType string

const (
	EventRunStarted     EventType = "run.started"
	EventModelCalled    EventType = "run.model_call"
	EventToolDispatched EventType = "tool.dispatched"
	EventRunStopped     EventType = "run.stopped"
	EventRunError       EventType = "run.error"
)

// Event captures a semantic streaming/logging event.
type Event struct {
	Type      EventType
	RunID     string
	Iteration int
	Timestamp time.Time
	Payload   map[string]any
}

// EventEmitter receives semantic events.
type EventEmitter interface {
	Emit(ctx context.Context, event Event)
}

// NoopEventEmitter is a default no-op implementation.
type NoopEventEmitter struct{}

// Emit implements EventEmitter.
func (NoopEventEmitter) Emit(_ context.Context, _ Event) {}

// NewEvent builds a default event with timestamp.
func NewEvent(eventType EventType, runID string, iteration int, payload map[string]any) Event {
	return Event{
		Type:      eventType,
		RunID:     runID,
		Iteration: iteration,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
