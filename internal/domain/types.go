// Package domain defines the core types for the ordercore engine.
package domain

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// AgentID identifies a unit or building in the simulation. The zero value
// means "no agent".
type AgentID string

// OrderTypeID is a lazy reference to a registered order strategy. It is
// resolved through the order registry at the point of use. The zero value
// means "no order".
type OrderTypeID string

// OrderResult is the outcome an execution strategy reports for an order.
type OrderResult uint8

const (
	// OrderSucceeded means the order was fulfilled.
	OrderSucceeded OrderResult = iota

	// OrderCanceled means the order was canceled before completion.
	OrderCanceled

	// OrderFailed means the order could not be carried out.
	OrderFailed
)

func (r OrderResult) String() string {
	switch r {
	case OrderSucceeded:
		return "succeeded"
	case OrderCanceled:
		return "canceled"
	case OrderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TargetType declares what shape of target an order needs.
type TargetType uint8

const (
	// TargetNone needs no specific target (AOE, aura, or applied to self).
	TargetNone TargetType = iota

	// TargetActor needs an agent as target.
	TargetActor

	// TargetLocation needs a point as target.
	TargetLocation

	// TargetDirection needs a point that together with the agent location
	// forms a direction.
	TargetDirection

	// TargetPassive can never be activated.
	TargetPassive
)

func (t TargetType) String() string {
	switch t {
	case TargetNone:
		return "none"
	case TargetActor:
		return "actor"
	case TargetLocation:
		return "location"
	case TargetDirection:
		return "direction"
	case TargetPassive:
		return "passive"
	default:
		return "unknown"
	}
}

// ProcessPolicy describes how an order is executed and how it interacts
// with newly issued orders.
type ProcessPolicy uint8

const (
	// ProcessCanBeCanceled marks an order with a duration that is actively
	// canceled when another order is issued.
	ProcessCanBeCanceled ProcessPolicy = iota

	// ProcessCanNotBeCanceled marks an order with a duration that is not
	// actively canceled when another order is issued; the new order is
	// queued instead. It still ends when its tag requirements stop holding.
	ProcessCanNotBeCanceled

	// ProcessInstant marks an order that resolves directly without ever
	// becoming the current order (production, rally points, some abilities).
	ProcessInstant
)

func (p ProcessPolicy) String() string {
	switch p {
	case ProcessCanBeCanceled:
		return "can_be_canceled"
	case ProcessCanNotBeCanceled:
		return "can_not_be_canceled"
	case ProcessInstant:
		return "instant"
	default:
		return "unknown"
	}
}

// GroupExecutionType determines to how many of the selected agents an
// externally issued order fans out.
type GroupExecutionType uint8

const (
	// GroupAll issues the order to every selected agent.
	GroupAll GroupExecutionType = iota

	// GroupSelectedSubgroup issues the order to the selected subgroup.
	GroupSelectedSubgroup

	// GroupSelectedUnit issues the order to the primary selected agent only.
	GroupSelectedUnit

	// GroupMostSuitableUnit issues the order to the single agent best able
	// to obey it, resolved by the highest target score.
	GroupMostSuitableUnit
)

func (g GroupExecutionType) String() string {
	switch g {
	case GroupAll:
		return "all"
	case GroupSelectedSubgroup:
		return "selected_subgroup"
	case GroupSelectedUnit:
		return "selected_unit"
	case GroupMostSuitableUnit:
		return "most_suitable_unit"
	default:
		return "unknown"
	}
}

// OrderSlot identifies one member of an order family: an order type plus
// the sub-index that disambiguates it (e.g. which ability slot).
type OrderSlot struct {
	Type  OrderTypeID `json:"type"`
	Index int         `json:"index"`
}

// NewOrderSlot creates an OrderSlot with the default index.
func NewOrderSlot(typ OrderTypeID) OrderSlot {
	return OrderSlot{Type: typ, Index: -1}
}

// OrderDescriptor is the concrete instantiation of an order issued to one
// agent: type plus target, location and sub-index.
type OrderDescriptor struct {
	Type        OrderTypeID `json:"type"`
	Target      AgentID     `json:"target,omitempty"`
	Location    orb.Point   `json:"location,omitempty"`
	UseLocation bool        `json:"use_location,omitempty"`
	Index       int         `json:"index"`
}

// NewOrder creates a descriptor with no target and the default index.
func NewOrder(typ OrderTypeID) OrderDescriptor {
	return OrderDescriptor{Type: typ, Index: -1}
}

// NewTargetedOrder creates a descriptor aimed at an agent.
func NewTargetedOrder(typ OrderTypeID, target AgentID) OrderDescriptor {
	return OrderDescriptor{Type: typ, Target: target, Index: -1}
}

// NewTargetedLocationOrder creates a descriptor aimed at an agent with its
// position recorded at issue time.
func NewTargetedLocationOrder(typ OrderTypeID, target AgentID, location orb.Point) OrderDescriptor {
	return OrderDescriptor{Type: typ, Target: target, Location: location, UseLocation: true, Index: -1}
}

// NewLocationOrder creates a descriptor aimed at a point.
func NewLocationOrder(typ OrderTypeID, location orb.Point) OrderDescriptor {
	return OrderDescriptor{Type: typ, Location: location, UseLocation: true, Index: -1}
}

// NewSlotOrder creates a descriptor for a specific order-family slot.
func NewSlotOrder(slot OrderSlot) OrderDescriptor {
	return OrderDescriptor{Type: slot.Type, Index: slot.Index}
}

// Equal reports structural equality. The location only participates when
// UseLocation is set.
func (d OrderDescriptor) Equal(other OrderDescriptor) bool {
	if d.Type != other.Type || d.UseLocation != other.UseLocation ||
		d.Target != other.Target || d.Index != other.Index {
		return false
	}
	if d.UseLocation {
		return d.Location == other.Location
	}
	return true
}

// IsZero reports whether the descriptor references no order at all.
func (d OrderDescriptor) IsZero() bool {
	return d.Type == ""
}

func (d OrderDescriptor) String() string {
	if d.Type == "" {
		return "unknown order"
	}

	var parts []string
	if d.Index >= 0 {
		parts = append(parts, fmt.Sprintf("index: %d", d.Index))
	}
	if d.Target != "" {
		parts = append(parts, fmt.Sprintf("target: %s", d.Target))
	}
	if d.UseLocation {
		parts = append(parts, fmt.Sprintf("location: (%.1f, %.1f)", d.Location.X(), d.Location.Y()))
	}

	if len(parts) == 0 {
		return string(d.Type)
	}
	return fmt.Sprintf("%s (%s)", d.Type, strings.Join(parts, ", "))
}

// OrderEvent is one entry in the per-agent order event log. Events are
// written on every order-changed and queue transition and back the
// observer feed.
type OrderEvent struct {
	ID          int64   `json:"id"`
	AgentID     AgentID `json:"agent_id"`
	SeqNo       int64   `json:"seq_no"`
	EventType   string  `json:"event_type"`
	PayloadJSON string  `json:"payload,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

// WorldSnapshot is a compressed dump of agent order state at one tick.
type WorldSnapshot struct {
	ID        int64
	Tick      int64
	Codec     string
	Blob      []byte
	CreatedAt int64
}
