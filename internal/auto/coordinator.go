// Package auto implements the auto-order coordinator: per-agent evaluation
// of auto-issuable orders (attack-on-sight and similar) whenever the agent
// is idle or its current order tolerates interruptions.
package auto

import (
	"fmt"
	"log/slog"

	"github.com/cadre-games/ordercore/internal/acquire"
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
)

// Coordinator watches one agent's controller and issues auto-orders for
// it. Candidate slots are filtered at construction by the owning player
// kind; human-toggleable slots keep a per-slot enabled flag.
type Coordinator struct {
	ctrl     *order.Controller
	registry *order.Registry
	finder   *acquire.Finder
	human    bool
	log      *slog.Logger

	slots   []domain.OrderSlot
	enabled []bool

	// Set when the current order changed since the last evaluation, so
	// reactive agents re-scan as soon as the simulation ticks them.
	dirty bool
}

// NewCoordinator builds a coordinator for the controller's agent. The
// candidates are every order slot the game exposes; only those flagged as
// auto-orders for the given player kind are kept.
func NewCoordinator(ctrl *order.Controller, registry *order.Registry, finder *acquire.Finder, candidates []domain.OrderSlot, human bool, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	c := &Coordinator{
		ctrl:     ctrl,
		registry: registry,
		finder:   finder,
		human:    human,
		log:      log.With("agent", ctrl.Agent().ID()),
		dirty:    true,
	}

	agent := ctrl.Agent()
	for _, slot := range candidates {
		if human {
			if !registry.IsHumanPlayerAutoOrder(slot.Type, agent, slot.Index) {
				continue
			}
			c.slots = append(c.slots, slot)
			c.enabled = append(c.enabled, registry.HumanPlayerAutoOrderInitialState(slot.Type, agent, slot.Index))
		} else {
			if !registry.IsAIPlayerAutoOrder(slot.Type, agent, slot.Index) {
				continue
			}
			c.slots = append(c.slots, slot)
			c.enabled = append(c.enabled, true)
		}
	}

	ctrl.Observe(order.Observer{
		OrderChanged: func(domain.OrderDescriptor) { c.dirty = true },
	})
	return c
}

// Slots returns the coordinator's auto-order slots in evaluation order.
func (c *Coordinator) Slots() []domain.OrderSlot {
	out := make([]domain.OrderSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

func (c *Coordinator) slotIndex(slot domain.OrderSlot) int {
	for i, s := range c.slots {
		if s == slot {
			return i
		}
	}
	return -1
}

// SetEnabled toggles a human auto-order slot.
func (c *Coordinator) SetEnabled(slot domain.OrderSlot, enabled bool) error {
	i := c.slotIndex(slot)
	if i < 0 {
		return domain.ErrUnknownAutoOrder.WithDetail(fmt.Sprintf("%s[%d]", slot.Type, slot.Index))
	}
	c.enabled[i] = enabled
	if enabled {
		c.dirty = true
	}
	return nil
}

// Enabled reports whether a slot is active.
func (c *Coordinator) Enabled(slot domain.OrderSlot) (bool, error) {
	i := c.slotIndex(slot)
	if i < 0 {
		return false, domain.ErrUnknownAutoOrder.WithDetail(fmt.Sprintf("%s[%d]", slot.Type, slot.Index))
	}
	return c.enabled[i], nil
}

// Dirty reports whether the current order changed since the last
// evaluation.
func (c *Coordinator) Dirty() bool { return c.dirty }

// Evaluate scans the enabled slots in order and issues the first one that
// finds a valid target, suspending the current order so it resumes when
// the auto-order finishes. Returns true when an order was issued.
func (c *Coordinator) Evaluate() bool {
	c.dirty = false

	cur := c.ctrl.CurrentOrder()
	if !c.ctrl.IsIdle() && !c.registry.AutoOrdersAllowedDuring(cur.Type) {
		return false
	}

	agent := c.ctrl.Agent()
	for i, slot := range c.slots {
		if !c.enabled[i] {
			continue
		}
		if cur.Type == slot.Type && cur.Index == slot.Index {
			continue
		}
		if !c.registry.CanObeyOrder(slot.Type, agent, slot.Index, nil) {
			continue
		}

		switch c.registry.TargetTypeOf(slot.Type, agent, slot.Index) {
		case domain.TargetActor, domain.TargetLocation, domain.TargetDirection:
			radius := c.registry.AcquisitionRadiusOf(slot.Type, agent, slot.Index)
			chase := c.registry.ChaseDistanceOf(slot.Type, agent, slot.Index)
			if chase <= 0 {
				chase = radius
			}
			td, err := c.finder.FindTargetInChaseDistance(agent, slot.Type, slot.Index, agent.Location(), chase)
			if err != nil {
				continue
			}
			d := domain.NewTargetedLocationOrder(slot.Type, td.Actor.ID(), td.Actor.Location())
			d.Index = slot.Index
			if err := c.ctrl.InsertOrderBeforeCurrentOrder(d); err != nil {
				c.log.Warn("auto-order rejected", "order", slot.Type, "error", err)
				continue
			}
			return true

		case domain.TargetNone:
			// Target-less auto orders resolve to self; only worth issuing
			// with an enemy close enough to matter.
			radius := c.registry.AcquisitionRadiusOf(slot.Type, agent, slot.Index)
			if !c.finder.IsHostilePresent(agent, radius) {
				continue
			}
			d := domain.NewSlotOrder(slot)
			if err := c.ctrl.InsertOrderBeforeCurrentOrder(d); err != nil {
				c.log.Warn("auto-order rejected", "order", slot.Type, "error", err)
				continue
			}
			return true
		}
	}
	return false
}
