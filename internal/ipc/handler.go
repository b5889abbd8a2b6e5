// Package ipc provides the HTTP API for the order engine.
package ipc

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/acquire"
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/sim"
	"github.com/cadre-games/ordercore/internal/store"
)

// Handler holds all dependencies for the HTTP handlers. Mu serializes API
// access with the simulation tick loop; every handler that touches the
// world holds it.
type Handler struct {
	Mu    *sync.Mutex
	World *sim.World

	DB         *sql.DB
	EventRepo  *store.EventRepo
	AutoOrders *store.AutoOrderRepo
	Snapshots  *store.SnapshotRepo

	Feed *Feed
	Log  *slog.Logger

	upgrader websocket.Upgrader
}

func NewHandler(world *sim.World, mu *sync.Mutex, db *sql.DB, snapshots *store.SnapshotRepo, feed *Feed, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Mu:         mu,
		World:      world,
		DB:         db,
		EventRepo:  &store.EventRepo{},
		AutoOrders: &store.AutoOrderRepo{},
		Snapshots:  snapshots,
		Feed:       feed,
		Log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// APIError is a structured error response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// OrderRequest is the body for POST /api/v1/agents/{agentID}/orders.
type OrderRequest struct {
	// Mode is issue, enqueue, after or before. Empty means issue.
	Mode        string             `json:"mode,omitempty"`
	Type        domain.OrderTypeID `json:"type"`
	Target      domain.AgentID     `json:"target,omitempty"`
	Location    [2]float64         `json:"location,omitempty"`
	UseLocation bool               `json:"use_location,omitempty"`
	Index       *int               `json:"index,omitempty"`
}

// OrdersResponse is the response for GET /api/v1/agents/{agentID}/orders.
type OrdersResponse struct {
	Current domain.OrderDescriptor   `json:"current"`
	Last    domain.OrderDescriptor   `json:"last"`
	Queue   []domain.OrderDescriptor `json:"queue"`
	Idle    bool                     `json:"idle"`
}

// AutoOrderRequest is the body for POST /api/v1/agents/{agentID}/auto-orders.
type AutoOrderRequest struct {
	Type    domain.OrderTypeID `json:"type"`
	Index   *int               `json:"index,omitempty"`
	Enabled bool               `json:"enabled"`
}

// AutoOrderState is one entry of the auto-orders listing.
type AutoOrderState struct {
	Slot    domain.OrderSlot `json:"slot"`
	Enabled bool             `json:"enabled"`
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.Mu.Lock()
	tick := h.World.Tick()
	h.Mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": tick})
}

// ListAgents handles GET /api/v1/agents.
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	h.Mu.Lock()
	states := h.World.Dump()
	h.Mu.Unlock()
	writeJSON(w, http.StatusOK, states)
}

// GetAgent handles GET /api/v1/agents/{agentID}.
func (h *Handler) GetAgent(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))

	h.Mu.Lock()
	defer h.Mu.Unlock()
	agent := h.World.Agent(id)
	if agent == nil {
		writeError(w, domain.ErrAgentNotFound.WithDetail(string(id)))
		return
	}
	ctrl := h.World.Controller(id)
	writeJSON(w, http.StatusOK, sim.AgentState{
		ID:       agent.ID(),
		Faction:  agent.Faction(),
		Location: agent.Location(),
		Health:   agent.Health(),
		Alive:    agent.Alive(),
		Current:  ctrl.CurrentOrder(),
		Last:     ctrl.LastOrder(),
		Queue:    ctrl.Queue(),
	})
}

// GetOrders handles GET /api/v1/agents/{agentID}/orders.
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))

	h.Mu.Lock()
	defer h.Mu.Unlock()
	ctrl := h.World.Controller(id)
	if ctrl == nil {
		writeError(w, domain.ErrAgentNotFound.WithDetail(string(id)))
		return
	}
	queue := ctrl.Queue()
	if queue == nil {
		queue = []domain.OrderDescriptor{}
	}
	writeJSON(w, http.StatusOK, OrdersResponse{
		Current: ctrl.CurrentOrder(),
		Last:    ctrl.LastOrder(),
		Queue:   queue,
		Idle:    ctrl.IsIdle(),
	})
}

// PostOrder handles POST /api/v1/agents/{agentID}/orders.
func (h *Handler) PostOrder(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))

	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "type is required"})
		return
	}

	d := domain.NewOrder(req.Type)
	d.Target = req.Target
	if req.UseLocation {
		d.Location = orb.Point{req.Location[0], req.Location[1]}
		d.UseLocation = true
	}
	if req.Index != nil {
		d.Index = *req.Index
	}

	h.Mu.Lock()
	defer h.Mu.Unlock()
	ctrl := h.World.Controller(id)
	if ctrl == nil {
		writeError(w, domain.ErrAgentNotFound.WithDetail(string(id)))
		return
	}

	var err error
	switch req.Mode {
	case "", "issue":
		err = ctrl.IssueOrder(d)
	case "enqueue":
		err = ctrl.EnqueueOrder(d)
	case "after":
		err = ctrl.InsertOrderAfterCurrentOrder(d)
	case "before":
		err = ctrl.InsertOrderBeforeCurrentOrder(d)
	default:
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "unknown mode " + req.Mode})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DispatchRequest is the body for POST /api/v1/orders.
type DispatchRequest struct {
	Selection   []domain.AgentID   `json:"selection"`
	Mode        string             `json:"mode,omitempty"`
	Type        domain.OrderTypeID `json:"type"`
	Target      domain.AgentID     `json:"target,omitempty"`
	Location    [2]float64         `json:"location,omitempty"`
	UseLocation bool               `json:"use_location,omitempty"`
	Index       *int               `json:"index,omitempty"`
}

// DispatchOrder handles POST /api/v1/orders: a player command fanned out
// over a multi-agent selection per the order's group execution type.
func (h *Handler) DispatchOrder(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "type is required"})
		return
	}

	mode := acquire.ModeIssue
	switch req.Mode {
	case "", "issue":
	case "enqueue":
		mode = acquire.ModeEnqueue
	default:
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "unknown mode " + req.Mode})
		return
	}

	d := domain.NewOrder(req.Type)
	d.Target = req.Target
	if req.UseLocation {
		d.Location = orb.Point{req.Location[0], req.Location[1]}
		d.UseLocation = true
	}
	if req.Index != nil {
		d.Index = *req.Index
	}

	h.Mu.Lock()
	err := h.World.Dispatch(req.Selection, d, mode)
	h.Mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearQueue handles DELETE /api/v1/agents/{agentID}/orders/queue.
func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))

	h.Mu.Lock()
	defer h.Mu.Unlock()
	ctrl := h.World.Controller(id)
	if ctrl == nil {
		writeError(w, domain.ErrAgentNotFound.WithDetail(string(id)))
		return
	}
	if err := ctrl.ClearOrderQueue(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAutoOrders handles GET /api/v1/agents/{agentID}/auto-orders.
func (h *Handler) ListAutoOrders(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))

	h.Mu.Lock()
	defer h.Mu.Unlock()
	coord := h.World.Coordinator(id)
	if coord == nil {
		writeError(w, domain.ErrAgentNotFound.WithDetail(string(id)))
		return
	}

	states := []AutoOrderState{}
	for _, slot := range coord.Slots() {
		enabled, err := coord.Enabled(slot)
		if err != nil {
			writeError(w, err)
			return
		}
		states = append(states, AutoOrderState{Slot: slot, Enabled: enabled})
	}
	writeJSON(w, http.StatusOK, states)
}

// PostAutoOrder handles POST /api/v1/agents/{agentID}/auto-orders.
func (h *Handler) PostAutoOrder(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))

	var req AutoOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "invalid request body"})
		return
	}
	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, APIError{Code: 400, Message: "type is required"})
		return
	}
	slot := domain.NewOrderSlot(req.Type)
	if req.Index != nil {
		slot.Index = *req.Index
	}

	h.Mu.Lock()
	coord := h.World.Coordinator(id)
	if coord == nil {
		h.Mu.Unlock()
		writeError(w, domain.ErrAgentNotFound.WithDetail(string(id)))
		return
	}
	err := coord.SetEnabled(slot, req.Enabled)
	h.Mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}

	if saveErr := h.AutoOrders.SetEnabled(r.Context(), h.DB, id, slot, req.Enabled, time.Now().Unix()); saveErr != nil {
		h.Log.Error("persist auto-order state", "agent", id, "error", saveErr)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAgentEvents handles GET /api/v1/agents/{agentID}/events?since_seq=N.
func (h *Handler) ListAgentEvents(w http.ResponseWriter, r *http.Request) {
	id := domain.AgentID(r.PathValue("agentID"))
	sinceSeq := int64(0)
	if s := r.URL.Query().Get("since_seq"); s != "" {
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			sinceSeq = parsed
		}
	}

	events, err := h.EventRepo.ListByAgent(r.Context(), h.DB, id, sinceSeq)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.OrderEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ListEvents handles GET /api/v1/events?limit=N.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.EventRepo.ListRecent(r.Context(), h.DB, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []domain.OrderEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetSnapshot handles GET /api/v1/snapshot: the latest world snapshot,
// decompressed.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Snapshots.GetLatest(r.Context(), h.DB)
	if err != nil {
		writeError(w, err)
		return
	}
	if snap == nil {
		writeError(w, domain.ErrStateUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Snapshot-Tick", strconv.FormatInt(snap.Tick, 10))
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Blob)
}

// StreamEvents handles GET /api/v1/events/feed: a websocket push of order
// events as they are recorded.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	if h.Feed == nil {
		writeError(w, domain.ErrFeedUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Feed.Subscribe()
	defer cancel()

	// Reader goroutine only notices the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var engErr *domain.EngineError
	if errors.As(err, &engErr) {
		status := http.StatusInternalServerError
		switch engErr.Code {
		case domain.ErrAgentNotFound.Code, domain.ErrStateUnavailable.Code:
			status = http.StatusNotFound
		case domain.ErrNotAuthoritative.Code:
			status = http.StatusForbidden
		case domain.ErrDuplicateAgent.Code:
			status = http.StatusConflict
		case domain.ErrOrderRejected.Code, domain.ErrOrderTypeUnresolved.Code,
			domain.ErrUnknownAutoOrder.Code, domain.ErrNoSuitableAgent.Code:
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, APIError{Code: engErr.Code, Message: engErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, APIError{Code: -1, Message: err.Error()})
}
