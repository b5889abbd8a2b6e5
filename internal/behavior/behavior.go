// Package behavior implements execution strategies: the tick-driven
// runtime that carries out orders (moving, attacking, channeling) and
// reports exactly one result per execution back to the lifecycle
// controller.
package behavior

import (
	"log/slog"
	"sort"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
)

// TickFunc advances one execution by dt seconds. It returns done=true with
// the final result when the execution is finished.
type TickFunc func(dt float64) (result domain.OrderResult, done bool)

type execution struct {
	tick TickFunc
	cb   order.Callback
}

// System tracks at most one active execution per agent. Starting a new
// execution for an agent silently drops the previous one; its callback is
// never invoked, the controller has already moved on.
type System struct {
	active map[domain.AgentID]*execution
	log    *slog.Logger
}

func NewSystem(log *slog.Logger) *System {
	if log == nil {
		log = slog.Default()
	}
	return &System{
		active: make(map[domain.AgentID]*execution),
		log:    log,
	}
}

// Run installs the execution for the agent, replacing any previous one.
func (s *System) Run(id domain.AgentID, tick TickFunc, cb order.Callback) {
	s.active[id] = &execution{tick: tick, cb: cb}
}

// Drop removes the agent's active execution without a result.
func (s *System) Drop(id domain.AgentID) {
	delete(s.active, id)
}

// Active reports whether the agent has a running execution.
func (s *System) Active(id domain.AgentID) bool {
	_, ok := s.active[id]
	return ok
}

// Tick advances every active execution by dt seconds in agent-ID order.
// Finished executions are removed before their callback fires, so a
// callback that starts a new order for the same agent is safe.
func (s *System) Tick(dt float64) {
	ids := make([]domain.AgentID, 0, len(s.active))
	for id := range s.active {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e, ok := s.active[id]
		if !ok {
			// Removed by an earlier callback this tick.
			continue
		}
		result, done := e.tick(dt)
		if !done {
			continue
		}
		// Only deliver if this execution is still the installed one.
		if s.active[id] != e {
			continue
		}
		delete(s.active, id)
		if e.cb != nil {
			e.cb(result)
		}
	}
}
