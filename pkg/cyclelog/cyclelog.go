// Package cyclelog records pipeline cycle outcomes in a local SQLite
// database so operators can inspect scan history after the fact.
package cyclelog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS cycles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	sessions_scanned INTEGER NOT NULL,
	events_seen INTEGER NOT NULL,
	lines_malformed INTEGER NOT NULL,
	activities_found INTEGER NOT NULL,
	store_size INTEGER NOT NULL,
	published INTEGER NOT NULL,
	publish_error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cycles_started ON cycles(started_at);
`

// Entry is one recorded cycle.
type Entry struct {
	ID              int64
	StartedAt       time.Time
	Duration        time.Duration
	SessionsScanned int
	EventsSeen      int
	LinesMalformed  int
	ActivitiesFound int
	StoreSize       int
	Published       bool
	PublishError    string
}

// Log appends and queries cycle history.
type Log struct {
	db *sql.DB
}

// Open opens (or creates) the cycle database at path with WAL journaling
// and applies the schema.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cycle log %s: %w", path, err)
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply cycle log schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the database connection. Safe to call multiple times.
func (l *Log) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Record appends one cycle entry.
func (l *Log) Record(ctx context.Context, e Entry) error {
	published := 0
	if e.Published {
		published = 1
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO cycles (started_at, duration_ms, sessions_scanned, events_seen,
			lines_malformed, activities_found, store_size, published, publish_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.Duration.Milliseconds(),
		e.SessionsScanned, e.EventsSeen, e.LinesMalformed, e.ActivitiesFound,
		e.StoreSize, published, e.PublishError)
	if err != nil {
		return fmt.Errorf("record cycle: %w", err)
	}
	return nil
}

// QueryOpts filters cycle history.
type QueryOpts struct {
	// Since keeps cycles started at or after this time.
	Since *time.Time

	// Limit restricts the number of results (0 means 50).
	Limit int
}

// Recent returns cycles newest-first.
func (l *Log) Recent(ctx context.Context, opts QueryOpts) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, started_at, duration_ms, sessions_scanned, events_seen,
		lines_malformed, activities_found, store_size, published, publish_error
		FROM cycles`
	var args []any
	if opts.Since != nil {
		query += ` WHERE started_at >= ?`
		args = append(args, opts.Since.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			started    string
			durationMS int64
			published  int
		)
		if err := rows.Scan(&e.ID, &started, &durationMS, &e.SessionsScanned,
			&e.EventsSeen, &e.LinesMalformed, &e.ActivitiesFound, &e.StoreSize,
			&published, &e.PublishError); err != nil {
			return nil, fmt.Errorf("scan cycle row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			e.StartedAt = t
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Published = published != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return entries, nil
}
