// Package order implements the order contract, the order type registry and
// the per-agent order lifecycle controller.
package order

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// DefaultAcquisitionRadius is the fallback radius for target scoring when
// neither the order nor the agent declares one.
const DefaultAcquisitionRadius = 100000.0

// Agent is the narrow view of a unit or building the order system needs.
// The simulation owns the concrete type.
type Agent interface {
	ID() domain.AgentID
	Location() orb.Point
	Tags() *tags.Counter
}

// Callback receives the result of an order execution. An execution
// strategy must invoke it exactly once, except for instant orders where
// the controller passes nil.
type Callback func(domain.OrderResult)

// RunFunc starts the execution strategy for an order on an agent. The home
// location anchors chase-distance checks and is restored when a deferred
// order resumes.
type RunFunc func(agent Agent, target TargetData, index int, cb Callback, home orb.Point)

// Order is the pluggable per-order-type strategy: validation predicates,
// tag requirements, target typing, scoring, cancellation policy and
// auto-order metadata. Implementations hold no per-invocation state; all
// per-agent state lives in the Controller.
type Order interface {
	// CanObeyOrder checks agent-intrinsic eligibility, independent of any
	// target. Tag requirements are checked separately by the caller.
	CanObeyOrder(agent Agent, index int, errs *tags.ErrorTags) bool

	// IsValidTarget checks target-specific validity beyond tag
	// satisfaction, which the caller verifies first.
	IsValidTarget(agent Agent, target TargetData, index int, errs *tags.ErrorTags) bool

	// TargetType declares what shape of target the order needs.
	TargetType(agent Agent, index int) domain.TargetType

	// TagRequirements are the gates checked at issue time and continuously
	// while the order is active.
	TagRequirements(agent Agent, index int) tags.Requirements

	// SuccessTagRequirements classify a canceled outcome as succeeded when
	// satisfied (e.g. the attack target died mid-swing).
	SuccessTagRequirements(agent Agent, index int) tags.Requirements

	// TargetScore rates a potential target; higher is better.
	TargetScore(agent Agent, target TargetData, index int) float64

	// ProcessPolicy governs how a newly issued order interacts with this
	// one while it is active.
	ProcessPolicy(agent Agent, index int) domain.ProcessPolicy

	// GroupExecutionType determines the fan-out of a multi-agent command.
	GroupExecutionType(agent Agent, index int) domain.GroupExecutionType

	// CreateIndividualTargetLocations returns one target location per
	// agent for a shared command, e.g. a formation layout.
	CreateIndividualTargetLocations(agents []Agent, target TargetData) []orb.Point

	// RequiredRange is the distance within which the order can act on its
	// target (e.g. weapon range). Zero means touch.
	RequiredRange(agent Agent, index int) float64

	// AcquisitionRadiusOverride returns the order's own acquisition radius
	// if it declares one.
	AcquisitionRadiusOverride(agent Agent, index int) (float64, bool)

	// ChaseDistance bounds how far from its home location an agent may
	// stray while obeying the order. Zero means unbounded.
	ChaseDistance(agent Agent, index int) float64

	// FallbackOrder names an order to show or run when this one is not
	// available. Zero means none.
	FallbackOrder() domain.OrderTypeID

	// IsHumanPlayerAutoOrder reports whether a human player can toggle
	// this order as an auto-order.
	IsHumanPlayerAutoOrder(agent Agent, index int) bool

	// IsAIPlayerAutoOrder reports whether AI-controlled agents auto-issue
	// this order.
	IsAIPlayerAutoOrder(agent Agent, index int) bool

	// HumanPlayerAutoOrderInitialState seeds the toggle for human players.
	HumanPlayerAutoOrderInitialState(agent Agent, index int) bool

	// AutoOrdersAllowedDuringOrder reports whether auto-order evaluation
	// may run while this order is the current one.
	AutoOrdersAllowedDuringOrder() bool

	// Issue starts execution through the bound execution strategy. For
	// instant orders cb is nil and completion is implicit.
	Issue(agent Agent, target TargetData, index int, cb Callback, home orb.Point)

	// Canceled notifies the order that the controller actively canceled it
	// before replacement.
	Canceled(agent Agent, target TargetData, index int)
}

// Policy is the base implementation of Order: immutable configuration plus
// the documented defaults. Concrete order types embed it and override what
// they need.
type Policy struct {
	Target              domain.TargetType
	Process             domain.ProcessPolicy
	Group               domain.GroupExecutionType
	Requirements        tags.Requirements
	SuccessRequirements tags.Requirements
	AcquisitionRadius   float64 // 0 = no override
	Range               float64
	Chase               float64 // 0 = unbounded
	Fallback            domain.OrderTypeID
	HumanAuto           bool
	AIAuto              bool
	HumanAutoInitial    bool
	AllowAutoOrders     bool
	Run                 RunFunc
}

func (p *Policy) CanObeyOrder(Agent, int, *tags.ErrorTags) bool { return true }

func (p *Policy) IsValidTarget(Agent, TargetData, int, *tags.ErrorTags) bool { return true }

func (p *Policy) TargetType(Agent, int) domain.TargetType { return p.Target }

func (p *Policy) TagRequirements(Agent, int) tags.Requirements { return p.Requirements }

func (p *Policy) SuccessTagRequirements(Agent, int) tags.Requirements {
	return p.SuccessRequirements
}

// TargetScore rewards closer targets: 1 at zero distance, 0 at the
// acquisition radius boundary, negative beyond.
func (p *Policy) TargetScore(agent Agent, target TargetData, index int) float64 {
	if agent == nil {
		return 0
	}

	var dist float64
	if target.Actor != nil {
		dist = planar.Distance(agent.Location(), target.Actor.Location())
	} else {
		dist = planar.Distance(agent.Location(), target.Location)
	}

	radius, ok := p.AcquisitionRadiusOverride(agent, index)
	if !ok {
		radius = DefaultAcquisitionRadius
	}

	return 1.0 - dist/radius
}

func (p *Policy) ProcessPolicy(Agent, int) domain.ProcessPolicy { return p.Process }

func (p *Policy) GroupExecutionType(Agent, int) domain.GroupExecutionType { return p.Group }

// CreateIndividualTargetLocations sends every agent to the shared target
// location.
func (p *Policy) CreateIndividualTargetLocations(agents []Agent, target TargetData) []orb.Point {
	out := make([]orb.Point, len(agents))
	for i := range agents {
		out[i] = target.Location
	}
	return out
}

func (p *Policy) RequiredRange(Agent, int) float64 { return p.Range }

func (p *Policy) AcquisitionRadiusOverride(Agent, int) (float64, bool) {
	if p.AcquisitionRadius > 0 {
		return p.AcquisitionRadius, true
	}
	return 0, false
}

func (p *Policy) ChaseDistance(Agent, int) float64 { return p.Chase }

func (p *Policy) FallbackOrder() domain.OrderTypeID { return p.Fallback }

func (p *Policy) IsHumanPlayerAutoOrder(Agent, int) bool { return p.HumanAuto }

func (p *Policy) IsAIPlayerAutoOrder(Agent, int) bool { return p.AIAuto }

func (p *Policy) HumanPlayerAutoOrderInitialState(Agent, int) bool { return p.HumanAutoInitial }

func (p *Policy) AutoOrdersAllowedDuringOrder() bool { return p.AllowAutoOrders }

// Issue runs the bound execution strategy. An order without one holds:
// it stays current and does nothing until it is replaced or aborted,
// which is exactly what an idle order needs.
func (p *Policy) Issue(agent Agent, target TargetData, index int, cb Callback, home orb.Point) {
	if p.Run == nil {
		return
	}
	p.Run(agent, target, index, cb, home)
}

func (p *Policy) Canceled(Agent, TargetData, int) {}
