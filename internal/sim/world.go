// Package sim hosts the authoritative simulation: concrete agents, the
// faction/visibility model, and the tick loop that drives executions and
// auto-order evaluation.
package sim

import (
	"log/slog"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/acquire"
	"github.com/cadre-games/ordercore/internal/auto"
	"github.com/cadre-games/ordercore/internal/behavior"
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
	"github.com/cadre-games/ordercore/internal/tags"
)

// Config tunes the world.
type Config struct {
	// StopOrder is the idle order every spawned agent falls back to.
	StopOrder domain.OrderTypeID

	// AutoOrderInterval is how many ticks pass between auto-order
	// evaluations. Zero means every tick.
	AutoOrderInterval int64
}

// World owns the live agents and their order machinery. It implements the
// space, agent-resolver and relationship interfaces the order packages
// consume. All methods must be called from the tick goroutine.
type World struct {
	registry *order.Registry
	system   *behavior.System
	finder   *acquire.Finder
	log      *slog.Logger
	cfg      Config

	agents       map[domain.AgentID]*Agent
	ids          []domain.AgentID
	controllers  map[domain.AgentID]*order.Controller
	coordinators map[domain.AgentID]*auto.Coordinator

	tick int64
}

func NewWorld(registry *order.Registry, system *behavior.System, cfg Config, log *slog.Logger) *World {
	if log == nil {
		log = slog.Default()
	}
	w := &World{
		registry:     registry,
		system:       system,
		log:          log,
		cfg:          cfg,
		agents:       make(map[domain.AgentID]*Agent),
		controllers:  make(map[domain.AgentID]*order.Controller),
		coordinators: make(map[domain.AgentID]*auto.Coordinator),
	}
	w.finder = acquire.NewFinder(registry, w, w, log)
	return w
}

// Registry exposes the order registry the world was built with.
func (w *World) Registry() *order.Registry { return w.registry }

// Finder exposes the target finder bound to this world.
func (w *World) Finder() *acquire.Finder { return w.finder }

// Tick reports the current tick number.
func (w *World) Tick() int64 { return w.tick }

// Spawn adds a unit, wires its lifecycle controller and auto-order
// coordinator, and starts it on its stop order.
func (w *World) Spawn(cfg AgentConfig) (*Agent, error) {
	if cfg.ID == "" {
		return nil, domain.ErrAgentNotFound.WithDetail("spawn needs an agent id")
	}
	if _, ok := w.agents[cfg.ID]; ok {
		return nil, domain.ErrDuplicateAgent.WithDetail(string(cfg.ID))
	}
	if w.registry.Resolve(w.cfg.StopOrder) == nil {
		return nil, domain.ErrNoStopOrder.WithDetail(string(w.cfg.StopOrder))
	}

	agent := newAgent(cfg)
	ctrl := order.NewController(agent, w.registry, w, w, domain.NewOrder(w.cfg.StopOrder), true, w.log)
	coord := auto.NewCoordinator(ctrl, w.registry, w.finder, agent.AutoOrderProviders(), cfg.HumanControlled, w.log)

	w.agents[cfg.ID] = agent
	w.ids = append(w.ids, cfg.ID)
	w.controllers[cfg.ID] = ctrl
	w.coordinators[cfg.ID] = coord

	ctrl.Start()
	return agent, nil
}

// Remove drops the agent and its execution from the world.
func (w *World) Remove(id domain.AgentID) {
	if _, ok := w.agents[id]; !ok {
		return
	}
	w.system.Drop(id)
	delete(w.agents, id)
	delete(w.controllers, id)
	delete(w.coordinators, id)
	for i, existing := range w.ids {
		if existing == id {
			w.ids = append(w.ids[:i], w.ids[i+1:]...)
			break
		}
	}
}

// Agent returns the live agent or nil.
func (w *World) Agent(id domain.AgentID) *Agent { return w.agents[id] }

// Controller returns the agent's lifecycle controller or nil.
func (w *World) Controller(id domain.AgentID) *order.Controller {
	return w.controllers[id]
}

// Coordinator returns the agent's auto-order coordinator or nil.
func (w *World) Coordinator(id domain.AgentID) *auto.Coordinator {
	return w.coordinators[id]
}

// Agents returns the live agents in spawn order.
func (w *World) Agents() []*Agent {
	out := make([]*Agent, 0, len(w.ids))
	for _, id := range w.ids {
		out = append(out, w.agents[id])
	}
	return out
}

// Controllers returns the lifecycle controllers in spawn order.
func (w *World) Controllers() []*order.Controller {
	out := make([]*order.Controller, 0, len(w.ids))
	for _, id := range w.ids {
		out = append(out, w.controllers[id])
	}
	return out
}

// AgentByID implements order.AgentResolver. Dead agents still resolve;
// order requirements decide whether they are usable.
func (w *World) AgentByID(id domain.AgentID) order.Agent {
	a, ok := w.agents[id]
	if !ok {
		return nil
	}
	return a
}

// AgentsInRadius implements acquire.Space with stable spawn ordering so
// target acquisition ties break deterministically.
func (w *World) AgentsInRadius(center orb.Point, radius float64) []order.Agent {
	var out []order.Agent
	for _, id := range w.ids {
		a := w.agents[id]
		if planar.Distance(center, a.loc) <= radius {
			out = append(out, a)
		}
	}
	return out
}

// RelationshipTags implements order.RelationshipResolver: same faction is
// friendly, a blank faction is neutral to everyone, anything else hostile.
func (w *World) RelationshipTags(source, target order.Agent) tags.Set {
	sf, tf := factionOf(source), factionOf(target)
	switch {
	case sf == "" || tf == "":
		return tags.NewSet(tags.RelationshipNeutral)
	case sf == tf:
		return tags.NewSet(tags.RelationshipFriendly)
	default:
		return tags.NewSet(tags.RelationshipHostile)
	}
}

// Visible implements order.RelationshipResolver. Stealthed units are
// hidden from non-friendly factions unless the observer is a detector.
func (w *World) Visible(source, target order.Agent) bool {
	if !target.Tags().Has(tags.StatusChangingStealthed) {
		return true
	}
	if factionOf(source) != "" && factionOf(source) == factionOf(target) {
		return true
	}
	return source.Tags().Has(tags.StatusChangingDetector)
}

func factionOf(a order.Agent) string {
	if f, ok := a.(interface{ Faction() string }); ok {
		return f.Faction()
	}
	return ""
}

// Step advances the world one tick of dt seconds: executions first, then
// auto-order evaluation on the configured cadence, idle and dirty agents
// first in spawn order.
func (w *World) Step(dt float64) {
	w.tick++
	w.system.Tick(dt)

	if w.cfg.AutoOrderInterval > 1 && w.tick%w.cfg.AutoOrderInterval != 0 {
		return
	}
	for _, id := range w.ids {
		a := w.agents[id]
		if !a.Alive() {
			continue
		}
		w.coordinators[id].Evaluate()
	}
}

// Dispatch fans a player command out over a selection of the world's
// agents per the order's group execution type. Unknown IDs are skipped;
// an empty effective selection is rejected.
func (w *World) Dispatch(selection []domain.AgentID, d domain.OrderDescriptor, mode acquire.Mode) error {
	var ctrls []*order.Controller
	for _, id := range selection {
		if c, ok := w.controllers[id]; ok {
			ctrls = append(ctrls, c)
		}
	}
	return acquire.Dispatch(w.registry, w, w, ctrls, d, mode, w.log)
}

// AgentState is one agent's order state in a world dump.
type AgentState struct {
	ID       domain.AgentID           `json:"id"`
	Faction  string                   `json:"faction,omitempty"`
	Location orb.Point                `json:"location"`
	Health   float64                  `json:"health"`
	Alive    bool                     `json:"alive"`
	Current  domain.OrderDescriptor   `json:"current"`
	Last     domain.OrderDescriptor   `json:"last"`
	Queue    []domain.OrderDescriptor `json:"queue,omitempty"`
}

// Dump captures every agent's order state, sorted by agent ID so dumps of
// the same tick compare equal.
func (w *World) Dump() []AgentState {
	out := make([]AgentState, 0, len(w.ids))
	for _, id := range w.ids {
		a := w.agents[id]
		ctrl := w.controllers[id]
		out = append(out, AgentState{
			ID:       a.id,
			Faction:  a.faction,
			Location: a.loc,
			Health:   a.health,
			Alive:    a.Alive(),
			Current:  ctrl.CurrentOrder(),
			Last:     ctrl.LastOrder(),
			Queue:    ctrl.Queue(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
