// Package audit persists per-run tool dispatch events for later inspection.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Event records one dispatched tool call within a run.
type Event struct {
	RunID      string
	Iteration  int
	CallID     string
	ToolName   string
	Status     string
	Payload    any
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store persists run audit events.
type Store interface {
	Record(ctx context.Context, event Event) error
	List(ctx context.Context, filter Filter) ([]Event, error)
}

// Filter limits audit event queries.
type Filter struct {
	RunID    string
	ToolName string
	Status   string
	Limit    int
}

// MemoryStore keeps audit events in memory.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryStore returns an in-memory audit store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Record appends an audit event.
func (s *MemoryStore) Record(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// List returns filtered audit events.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, 0, len(s.events))
	for _, ev := range s.events {
		if filter.RunID != "" && ev.RunID != filter.RunID {
			continue
		}
		if filter.ToolName != "" && ev.ToolName != filter.ToolName {
			continue
		}
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		out = append(out, ev)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// encodePayload marshals the payload into JSON.
func encodePayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("null"), nil
	}
	return json.Marshal(payload)
}

// decodePayload parses a JSON payload.
func decodePayload(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeTime ensures timestamps are in UTC.
func normalizeTime(value time.Time) time.Time {
	if value.IsZero() {
		return value
	}
	return value.UTC()
}
