// Package store provides SQLite-backed persistence for order state, the
// order event log and world snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaV1 defines the initial database schema.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS agent_orders (
	agent_id        TEXT PRIMARY KEY,
	current_json    TEXT NOT NULL DEFAULT '{}',
	last_json       TEXT NOT NULL DEFAULT '{}',
	queue_json      TEXT NOT NULL DEFAULT '[]',
	updated_at      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS auto_orders (
	agent_id    TEXT NOT NULL,
	order_type  TEXT NOT NULL,
	order_index INTEGER NOT NULL DEFAULT -1,
	enabled     INTEGER NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(agent_id, order_type, order_index)
);

CREATE TABLE IF NOT EXISTS order_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id     TEXT NOT NULL,
	seq_no       INTEGER NOT NULL,
	event_type   TEXT NOT NULL,
	payload_json TEXT NOT NULL DEFAULT '{}',
	created_at   INTEGER NOT NULL,
	UNIQUE(agent_id, seq_no)
);
CREATE INDEX IF NOT EXISTS idx_order_events_agent_seq ON order_events(agent_id, seq_no);

CREATE TABLE IF NOT EXISTS world_snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	tick       INTEGER NOT NULL,
	codec      TEXT NOT NULL DEFAULT 'zstd',
	blob       BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_world_snapshots_tick ON world_snapshots(tick);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Limit connections to 1 for SQLite (WAL allows concurrent reads but single writer).
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}
