package audit

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists audit events in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at path and ensures schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(db)
}

// NewSQLiteStore creates a SQLite-backed audit store and ensures schema.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureAuditSchema(db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record stores a single audit event.
func (s *SQLiteStore) Record(ctx context.Context, event Event) error {
	payload, err := encodePayload(event.Payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_audit_events (
			run_id, iteration, call_id, tool_name, status, payload_json, error_text, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.RunID,
		event.Iteration,
		event.CallID,
		event.ToolName,
		event.Status,
		string(payload),
		event.Error,
		normalizeTime(event.StartedAt),
		normalizeTime(event.FinishedAt),
	)
	return err
}

// List returns audit events matching the filter.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT run_id, iteration, call_id, tool_name, status, payload_json, error_text, started_at, finished_at
		FROM run_audit_events
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if filter.RunID != "" {
		addFilter("run_id = ?", filter.RunID)
	}
	if filter.ToolName != "" {
		addFilter("tool_name = ?", filter.ToolName)
	}
	if filter.Status != "" {
		addFilter("status = ?", filter.Status)
	}
	query += where + " ORDER BY started_at ASC, rowid ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event       Event
			payloadJSON string
			started     sql.NullTime
			finished    sql.NullTime
		)
		if err := rows.Scan(
			&event.RunID,
			&event.Iteration,
			&event.CallID,
			&event.ToolName,
			&event.Status,
			&payloadJSON,
			&event.Error,
			&started,
			&finished,
		); err != nil {
			return nil, err
		}
		if payloadJSON != "" {
			if payload, err := decodePayload([]byte(payloadJSON)); err == nil {
				event.Payload = payload
			}
		}
		if started.Valid {
			event.StartedAt = started.Time
		}
		if finished.Valid {
			event.FinishedAt = finished.Time
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func ensureAuditSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS run_audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			iteration INTEGER NOT NULL,
			call_id TEXT,
			tool_name TEXT NOT NULL,
			status TEXT NOT NULL,
			payload_json TEXT,
			error_text TEXT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_run_audit_run ON run_audit_events(run_id);
		CREATE INDEX IF NOT EXISTS idx_run_audit_tool ON run_audit_events(tool_name);
		CREATE INDEX IF NOT EXISTS idx_run_audit_status ON run_audit_events(status);
	`)
	return err
}
