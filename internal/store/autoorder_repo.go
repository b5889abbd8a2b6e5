package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cadre-games/ordercore/internal/domain"
)

// AutoOrderRepo persists per-agent human auto-order toggle states so they
// survive restarts.
type AutoOrderRepo struct{}

// SetEnabled upserts the toggle state for one of the agent's auto-order
// slots.
func (r *AutoOrderRepo) SetEnabled(ctx context.Context, db *sql.DB, agentID domain.AgentID, slot domain.OrderSlot, enabled bool, now int64) error {
	const q = `INSERT INTO auto_orders (agent_id, order_type, order_index, enabled, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(agent_id, order_type, order_index) DO UPDATE SET
	enabled = excluded.enabled,
	updated_at = excluded.updated_at`
	state := 0
	if enabled {
		state = 1
	}
	_, err := db.ExecContext(ctx, q,
		string(agentID),
		string(slot.Type),
		slot.Index,
		state,
		now,
	)
	if err != nil {
		return fmt.Errorf("save auto-order state: %w", err)
	}
	return nil
}

// States returns the persisted toggle states for an agent, keyed by slot.
// Slots the agent never toggled are absent.
func (r *AutoOrderRepo) States(ctx context.Context, db *sql.DB, agentID domain.AgentID) (map[domain.OrderSlot]bool, error) {
	const q = `SELECT order_type, order_index, enabled
FROM auto_orders
WHERE agent_id = ?`

	rows, err := db.QueryContext(ctx, q, string(agentID))
	if err != nil {
		return nil, fmt.Errorf("list auto-order states: %w", err)
	}
	defer rows.Close()

	states := make(map[domain.OrderSlot]bool)
	for rows.Next() {
		var typ string
		var index, enabled int
		if err := rows.Scan(&typ, &index, &enabled); err != nil {
			return nil, fmt.Errorf("scan auto-order state: %w", err)
		}
		states[domain.OrderSlot{Type: domain.OrderTypeID(typ), Index: index}] = enabled != 0
	}
	return states, rows.Err()
}
