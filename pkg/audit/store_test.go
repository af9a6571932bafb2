package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	event := Event{
		RunID:     "run-1",
		Iteration: 1,
		CallID:    "call-1",
		ToolName:  "add",
		Status:    "ok",
		Payload:   map[string]any{"sum": 3},
		StartedAt: time.Now().UTC(),
	}
	if err := store.Record(context.Background(), event); err != nil {
		t.Fatalf("record: %v", err)
	}
	events, err := store.List(context.Background(), Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ToolName != "add" {
		t.Fatalf("unexpected tool name: %s", events[0].ToolName)
	}
}

func TestMemoryStoreFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for i, status := range []string{"ok", "error", "ok"} {
		event := Event{RunID: "run-1", Iteration: i + 1, ToolName: "add", Status: status}
		if err := store.Record(ctx, event); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	events, err := store.List(ctx, Filter{Status: "ok"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 ok events, got %d", len(events))
	}

	events, err = store.List(ctx, Filter{Status: "ok", Limit: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(events))
	}

	events, err = store.List(ctx, Filter{RunID: "run-other"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events for other run, got %d", len(events))
	}
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", "file:run_audit_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	event := Event{
		RunID:      "run-1",
		Iteration:  1,
		CallID:     "call-1",
		ToolName:   "add",
		Status:     "ok",
		Payload:    map[string]any{"sum": float64(3)},
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	}
	if err := store.Record(context.Background(), event); err != nil {
		t.Fatalf("record: %v", err)
	}
	events, err := store.List(context.Background(), Filter{RunID: "run-1", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].CallID != "call-1" || events[0].Status != "ok" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	payload, ok := events[0].Payload.(map[string]any)
	if !ok || payload["sum"] != float64(3) {
		t.Fatalf("unexpected payload round trip: %+v", events[0].Payload)
	}
}

func TestSQLiteStoreNilDB(t *testing.T) {
	if _, err := NewSQLiteStore(nil); err == nil {
		t.Fatal("expected error for nil db")
	}
}
