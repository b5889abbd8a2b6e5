package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cadre-games/ordercore/internal/domain"
)

// OrderState is one agent's persisted order state.
type OrderState struct {
	AgentID   domain.AgentID
	Current   domain.OrderDescriptor
	Last      domain.OrderDescriptor
	Queue     []domain.OrderDescriptor
	UpdatedAt int64
}

// OrderStateRepo handles persistence for per-agent order state.
type OrderStateRepo struct{}

// Save upserts the agent's order state.
func (r *OrderStateRepo) Save(ctx context.Context, db *sql.DB, state OrderState) error {
	currentJSON, err := json.Marshal(state.Current)
	if err != nil {
		return fmt.Errorf("marshal current order: %w", err)
	}
	lastJSON, err := json.Marshal(state.Last)
	if err != nil {
		return fmt.Errorf("marshal last order: %w", err)
	}
	queue := state.Queue
	if queue == nil {
		queue = []domain.OrderDescriptor{}
	}
	queueJSON, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("marshal order queue: %w", err)
	}

	const q = `INSERT INTO agent_orders (agent_id, current_json, last_json, queue_json, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(agent_id) DO UPDATE SET
	current_json = excluded.current_json,
	last_json = excluded.last_json,
	queue_json = excluded.queue_json,
	updated_at = excluded.updated_at`
	_, err = db.ExecContext(ctx, q,
		string(state.AgentID),
		string(currentJSON),
		string(lastJSON),
		string(queueJSON),
		state.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save order state: %w", err)
	}
	return nil
}

// Get returns the agent's persisted order state. Returns nil if the agent
// has never been persisted.
func (r *OrderStateRepo) Get(ctx context.Context, db *sql.DB, agentID domain.AgentID) (*OrderState, error) {
	const q = `SELECT current_json, last_json, queue_json, updated_at
FROM agent_orders
WHERE agent_id = ?`

	row := db.QueryRowContext(ctx, q, string(agentID))

	var currentJSON, lastJSON, queueJSON string
	var state OrderState
	err := row.Scan(&currentJSON, &lastJSON, &queueJSON, &state.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order state: %w", err)
	}

	state.AgentID = agentID
	if err := json.Unmarshal([]byte(currentJSON), &state.Current); err != nil {
		return nil, domain.ErrEventLogCorrupt.WithDetail(err.Error())
	}
	if err := json.Unmarshal([]byte(lastJSON), &state.Last); err != nil {
		return nil, domain.ErrEventLogCorrupt.WithDetail(err.Error())
	}
	if err := json.Unmarshal([]byte(queueJSON), &state.Queue); err != nil {
		return nil, domain.ErrEventLogCorrupt.WithDetail(err.Error())
	}
	return &state, nil
}

// ListAgents returns the IDs of every agent with persisted order state.
func (r *OrderStateRepo) ListAgents(ctx context.Context, db *sql.DB) ([]domain.AgentID, error) {
	const q = `SELECT agent_id FROM agent_orders ORDER BY agent_id ASC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var ids []domain.AgentID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan agent id: %w", err)
		}
		ids = append(ids, domain.AgentID(id))
	}
	return ids, rows.Err()
}
