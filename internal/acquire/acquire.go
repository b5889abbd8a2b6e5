// Package acquire implements target acquisition: scanning the world for
// the best-scored valid target of an order, range and chase checks, and
// the selection of the most suitable agent for a group command.
package acquire

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
	"github.com/cadre-games/ordercore/internal/tags"
)

// Space answers spatial queries over live agents. Implementations must
// return candidates in a deterministic order so tie-breaking is stable.
type Space interface {
	AgentsInRadius(center orb.Point, radius float64) []order.Agent
}

// Finder scans a Space for order targets.
type Finder struct {
	registry *order.Registry
	space    Space
	rel      order.RelationshipResolver
	log      *slog.Logger
}

func NewFinder(registry *order.Registry, space Space, rel order.RelationshipResolver, log *slog.Logger) *Finder {
	if log == nil {
		log = slog.Default()
	}
	return &Finder{registry: registry, space: space, rel: rel, log: log}
}

// FindBestScoredTarget returns the highest-scored valid target for the
// order within its acquisition radius. Ties keep the first candidate seen.
func (f *Finder) FindBestScoredTarget(agent order.Agent, id domain.OrderTypeID, index int) (order.TargetData, error) {
	radius := f.registry.AcquisitionRadiusOf(id, agent, index)
	return f.FindTargetInRadius(agent, id, index, radius)
}

// FindTargetInRadius is FindBestScoredTarget with an explicit radius.
func (f *Finder) FindTargetInRadius(agent order.Agent, id domain.OrderTypeID, index int, radius float64) (order.TargetData, error) {
	best, found := f.bestTarget(agent, id, index, radius, func(order.TargetData) bool { return true })
	if !found {
		return order.TargetData{}, domain.ErrNoTargetFound.WithDetail(string(id))
	}
	return best, nil
}

// FindTargetInChaseDistance restricts acquisition to targets the agent can
// engage without straying more than chase from its home location.
func (f *Finder) FindTargetInChaseDistance(agent order.Agent, id domain.OrderTypeID, index int, home orb.Point, chase float64) (order.TargetData, error) {
	radius := f.registry.AcquisitionRadiusOf(id, agent, index)
	best, found := f.bestTarget(agent, id, index, radius, func(td order.TargetData) bool {
		return planar.Distance(home, td.Location) <= chase
	})
	if !found {
		return order.TargetData{}, domain.ErrNoTargetFound.WithDetail(string(id))
	}
	return best, nil
}

func (f *Finder) bestTarget(agent order.Agent, id domain.OrderTypeID, index int, radius float64, keep func(order.TargetData) bool) (order.TargetData, bool) {
	var (
		best      order.TargetData
		bestScore float64
		found     bool
	)
	// The agent itself stays in the candidate set; its relationship tags
	// (self, friendly) decide whether the order accepts it.
	for _, candidate := range f.space.AgentsInRadius(agent.Location(), radius) {
		td := order.BuildTargetData(f.rel, agent, candidate, candidate.Location())
		if !f.registry.IsValidTarget(id, agent, td, index, nil) {
			continue
		}
		if !keep(td) {
			continue
		}
		score := f.registry.TargetScoreOf(id, agent, td, index)
		if !found || score > bestScore {
			best, bestScore, found = td, score, true
		}
	}
	return best, found
}

// IsHostilePresent reports whether any living, visible hostile is within
// the radius of the agent.
func (f *Finder) IsHostilePresent(agent order.Agent, radius float64) bool {
	for _, candidate := range f.space.AgentsInRadius(agent.Location(), radius) {
		if candidate.ID() == agent.ID() {
			continue
		}
		if !candidate.Tags().Has(tags.StatusChangingAlive) {
			continue
		}
		td := order.BuildTargetData(f.rel, agent, candidate, candidate.Location())
		if td.Tags.Has(tags.RelationshipHostile) && td.Tags.Has(tags.RelationshipVisible) {
			return true
		}
	}
	return false
}

// SelectMostSuitableAgent picks the agent best suited to obey the order:
// among the agents that can obey it with a valid target, the one with the
// highest target score. Ties keep the earliest agent.
func SelectMostSuitableAgent(registry *order.Registry, rel order.RelationshipResolver, agents []order.Agent, resolver order.AgentResolver, d domain.OrderDescriptor) (order.Agent, error) {
	var target order.Agent
	if d.Target != "" && resolver != nil {
		target = resolver.AgentByID(d.Target)
	}

	var (
		best      order.Agent
		bestScore float64
	)
	for _, agent := range agents {
		if !registry.CanObeyOrder(d.Type, agent, d.Index, nil) {
			continue
		}
		td := order.BuildTargetData(rel, agent, target, d.Location)
		if !registry.IsValidTarget(d.Type, agent, td, d.Index, nil) {
			continue
		}
		score := registry.TargetScoreOf(d.Type, agent, td, d.Index)
		if best == nil || score > bestScore {
			best, bestScore = agent, score
		}
	}
	if best == nil {
		return nil, domain.ErrNoSuitableAgent.WithDetail(string(d.Type))
	}
	return best, nil
}
