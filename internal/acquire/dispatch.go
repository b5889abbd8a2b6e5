package acquire

import (
	"log/slog"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
)

// Mode selects how a dispatched order reaches each controller.
type Mode int

const (
	// ModeIssue replaces the agents' current orders.
	ModeIssue Mode = iota
	// ModeEnqueue appends to the agents' queues.
	ModeEnqueue
)

// Dispatch fans a player command out over the selected controllers
// according to the order's group execution type. Shared location targets
// are spread into individual per-agent locations.
func Dispatch(registry *order.Registry, rel order.RelationshipResolver, resolver order.AgentResolver, selection []*order.Controller, d domain.OrderDescriptor, mode Mode, log *slog.Logger) error {
	if len(selection) == 0 {
		return domain.ErrNoSuitableAgent.WithDetail("empty selection")
	}
	if log == nil {
		log = slog.Default()
	}

	first := selection[0].Agent()
	switch registry.GroupExecutionTypeOf(d.Type, first, d.Index) {
	case domain.GroupSelectedUnit:
		return apply(selection[0], d, mode)

	case domain.GroupMostSuitableUnit:
		agents := make([]order.Agent, len(selection))
		for i, c := range selection {
			agents[i] = c.Agent()
		}
		best, err := SelectMostSuitableAgent(registry, rel, agents, resolver, d)
		if err != nil {
			return err
		}
		for _, c := range selection {
			if c.Agent().ID() == best.ID() {
				return apply(c, d, mode)
			}
		}
		return domain.ErrNoSuitableAgent.WithDetail(string(d.Type))

	default:
		// All selected agents, with per-agent formation locations for
		// shared location targets.
		if d.UseLocation && len(selection) > 1 &&
			registry.TargetTypeOf(d.Type, first, d.Index) == domain.TargetLocation {
			agents := make([]order.Agent, len(selection))
			for i, c := range selection {
				agents[i] = c.Agent()
			}
			locations := registry.CreateIndividualTargetLocations(d.Type, agents, order.TargetData{Location: d.Location})

			var firstErr error
			for i, c := range selection {
				di := d
				di.Location = locations[i]
				if err := apply(c, di, mode); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		}

		var firstErr error
		for _, c := range selection {
			if err := apply(c, d, mode); err != nil {
				log.Warn("order rejected for agent", "agent", c.Agent().ID(), "order", d.Type, "error", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	}
}

func apply(c *order.Controller, d domain.OrderDescriptor, mode Mode) error {
	if mode == ModeEnqueue {
		return c.EnqueueOrder(d)
	}
	return c.IssueOrder(d)
}
