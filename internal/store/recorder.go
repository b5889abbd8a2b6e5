package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
)

// Event types written by the Recorder.
const (
	EventOrderChanged  = "order_changed"
	EventOrderEnqueued = "order_enqueued"
	EventQueueCleared  = "queue_cleared"
	EventQueueChanged  = "queue_changed"
	EventOrderEnded    = "order_ended"
)

// Recorder bridges controller notifications into the event log and the
// persisted order state. Persistence failures are logged, never surfaced
// to the lifecycle.
type Recorder struct {
	db     *sql.DB
	events *EventRepo
	states *OrderStateRepo
	log    *slog.Logger

	// Notify, when set, receives every recorded event after it is
	// persisted. The IPC feed hooks in here.
	Notify func(domain.OrderEvent)

	seq map[domain.AgentID]int64
	now func() int64
}

func NewRecorder(db *sql.DB, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		db:     db,
		events: &EventRepo{},
		states: &OrderStateRepo{},
		log:    log,
		seq:    make(map[domain.AgentID]int64),
		now:    func() int64 { return time.Now().Unix() },
	}
}

// Attach subscribes the recorder to a controller's lifecycle.
func (r *Recorder) Attach(ctrl *order.Controller) {
	id := ctrl.Agent().ID()
	ctrl.Observe(order.Observer{
		OrderChanged: func(current domain.OrderDescriptor) {
			r.record(id, EventOrderChanged, current)
			r.saveState(ctrl)
		},
		OrderEnqueued: func(d domain.OrderDescriptor) {
			r.record(id, EventOrderEnqueued, d)
		},
		QueueCleared: func() {
			r.record(id, EventQueueCleared, nil)
		},
		QueueChanged: func(queue []domain.OrderDescriptor) {
			r.record(id, EventQueueChanged, queue)
			r.saveState(ctrl)
		},
		OrderEnded: func(d domain.OrderDescriptor, result domain.OrderResult) {
			r.record(id, EventOrderEnded, endedPayload{Order: d, Result: result.String()})
		},
	})
}

type endedPayload struct {
	Order  domain.OrderDescriptor `json:"order"`
	Result string                 `json:"result"`
}

func (r *Recorder) record(id domain.AgentID, eventType string, payload any) {
	payloadJSON := "{}"
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			r.log.Error("marshal event payload", "agent", id, "event", eventType, "error", err)
		} else {
			payloadJSON = string(raw)
		}
	}

	r.seq[id]++
	event := domain.OrderEvent{
		AgentID:     id,
		SeqNo:       r.seq[id],
		EventType:   eventType,
		PayloadJSON: payloadJSON,
		CreatedAt:   r.now(),
	}
	if err := r.events.Append(context.Background(), r.db, event); err != nil {
		r.log.Error("append order event", "agent", id, "event", eventType, "error", err)
		return
	}
	if r.Notify != nil {
		r.Notify(event)
	}
}

func (r *Recorder) saveState(ctrl *order.Controller) {
	state := OrderState{
		AgentID:   ctrl.Agent().ID(),
		Current:   ctrl.CurrentOrder(),
		Last:      ctrl.LastOrder(),
		Queue:     ctrl.Queue(),
		UpdatedAt: r.now(),
	}
	if err := r.states.Save(context.Background(), r.db, state); err != nil {
		r.log.Error("save order state", "agent", state.AgentID, "error", err)
	}
}
