package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cadre-games/ordercore/internal/domain"
)

// EventRepo handles persistence for OrderEvent records.
type EventRepo struct{}

// Append inserts an order event.
func (r *EventRepo) Append(ctx context.Context, db *sql.DB, event domain.OrderEvent) error {
	const q = `INSERT INTO order_events (agent_id, seq_no, event_type, payload_json, created_at)
VALUES (?, ?, ?, ?, ?)`
	payload := event.PayloadJSON
	if payload == "" {
		payload = "{}"
	}
	_, err := db.ExecContext(ctx, q,
		string(event.AgentID),
		event.SeqNo,
		event.EventType,
		payload,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListByAgent returns events for an agent with sequence numbers greater
// than sinceSeq, ordered by sequence number ascending.
func (r *EventRepo) ListByAgent(ctx context.Context, db *sql.DB, agentID domain.AgentID, sinceSeq int64) ([]domain.OrderEvent, error) {
	const q = `SELECT id, agent_id, seq_no, event_type, payload_json, created_at
FROM order_events
WHERE agent_id = ? AND seq_no > ?
ORDER BY seq_no ASC`

	rows, err := db.QueryContext(ctx, q, string(agentID), sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the newest events across all agents, newest first.
func (r *EventRepo) ListRecent(ctx context.Context, db *sql.DB, limit int) ([]domain.OrderEvent, error) {
	const q = `SELECT id, agent_id, seq_no, event_type, payload_json, created_at
FROM order_events
ORDER BY id DESC
LIMIT ?`

	rows, err := db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]domain.OrderEvent, error) {
	var events []domain.OrderEvent
	for rows.Next() {
		var e domain.OrderEvent
		var agentID string
		if err := rows.Scan(&e.ID, &agentID, &e.SeqNo, &e.EventType, &e.PayloadJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.AgentID = domain.AgentID(agentID)
		events = append(events, e)
	}
	return events, rows.Err()
}
