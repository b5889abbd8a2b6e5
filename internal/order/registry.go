package order

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// Registry maps order type IDs to their strategies. All query helpers are
// safe to call with IDs that do not resolve and fall back to documented
// defaults, so callers never branch on a missing order type.
type Registry struct {
	mu     sync.RWMutex
	orders map[domain.OrderTypeID]Order
	log    *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		orders: make(map[domain.OrderTypeID]Order),
		log:    log,
	}
}

// Register binds an order strategy to a type ID.
func (r *Registry) Register(id domain.OrderTypeID, o Order) error {
	if id == "" {
		return domain.ErrOrderTypeUnresolved.WithDetail("order type id is empty")
	}
	if o == nil {
		return domain.ErrOrderTypeUnresolved.WithDetail(fmt.Sprintf("order %q has nil strategy", id))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; ok {
		return domain.ErrOrderTypeUnresolved.WithDetail(fmt.Sprintf("order %q already registered", id))
	}
	r.orders[id] = o
	return nil
}

// Resolve returns the strategy for an order type, or nil when unknown.
func (r *Registry) Resolve(id domain.OrderTypeID) Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.orders[id]
}

// Types returns the registered order type IDs in sorted order.
func (r *Registry) Types() []domain.OrderTypeID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.OrderTypeID, 0, len(r.orders))
	for id := range r.orders {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// CanObeyOrder checks source tag requirements against the agent's owned
// tags, then the order's own eligibility predicate. A nil errs skips the
// detailed explanation.
func (r *Registry) CanObeyOrder(id domain.OrderTypeID, agent Agent, index int, errs *tags.ErrorTags) bool {
	o := r.Resolve(id)
	if o == nil || agent == nil {
		return false
	}

	req := o.TagRequirements(agent, index)
	owned := agent.Tags().Owned()

	ok := true
	if errs != nil {
		ok = tags.SatisfiesExplain(owned, req.SourceRequired, req.SourceBlocked, errs)
		if !o.CanObeyOrder(agent, index, errs) {
			ok = false
		}
		return ok
	}

	if !tags.Satisfies(owned, req.SourceRequired, req.SourceBlocked) {
		return false
	}
	return o.CanObeyOrder(agent, index, nil)
}

// IsValidTarget checks that the target matches the order's target type,
// satisfies the target-side tag requirements and passes the order's own
// target predicate.
func (r *Registry) IsValidTarget(id domain.OrderTypeID, agent Agent, target TargetData, index int, errs *tags.ErrorTags) bool {
	o := r.Resolve(id)
	if o == nil {
		return false
	}

	if o.TargetType(agent, index) == domain.TargetActor && target.Actor == nil {
		if errs != nil {
			errs.AddError(tags.ErrorNoTarget)
		}
		return false
	}

	req := o.TagRequirements(agent, index)
	if errs != nil {
		ok := tags.SatisfiesExplain(target.Tags, req.TargetRequired, req.TargetBlocked, errs)
		if !o.IsValidTarget(agent, target, index, errs) {
			ok = false
		}
		return ok
	}

	if !tags.Satisfies(target.Tags, req.TargetRequired, req.TargetBlocked) {
		return false
	}
	return o.IsValidTarget(agent, target, index, nil)
}

// CanBeConsideredSucceeded reports whether a canceled order's outcome
// satisfies its success tag requirements. Orders with no success
// requirements never reclassify.
func (r *Registry) CanBeConsideredSucceeded(id domain.OrderTypeID, agent Agent, target TargetData, index int) bool {
	o := r.Resolve(id)
	if o == nil || agent == nil {
		return false
	}

	req := o.SuccessTagRequirements(agent, index)
	if req.IsEmpty() {
		return false
	}
	if !tags.Satisfies(agent.Tags().Owned(), req.SourceRequired, req.SourceBlocked) {
		return false
	}
	return tags.Satisfies(target.Tags, req.TargetRequired, req.TargetBlocked)
}

// ProcessPolicyOf defaults to CanBeCanceled for unknown order types.
func (r *Registry) ProcessPolicyOf(id domain.OrderTypeID, agent Agent, index int) domain.ProcessPolicy {
	o := r.Resolve(id)
	if o == nil {
		return domain.ProcessCanBeCanceled
	}
	return o.ProcessPolicy(agent, index)
}

// TargetTypeOf defaults to TargetNone for unknown order types.
func (r *Registry) TargetTypeOf(id domain.OrderTypeID, agent Agent, index int) domain.TargetType {
	o := r.Resolve(id)
	if o == nil {
		return domain.TargetNone
	}
	return o.TargetType(agent, index)
}

// TagRequirementsOf returns empty requirements for unknown order types.
func (r *Registry) TagRequirementsOf(id domain.OrderTypeID, agent Agent, index int) tags.Requirements {
	o := r.Resolve(id)
	if o == nil {
		return tags.Requirements{}
	}
	return o.TagRequirements(agent, index)
}

// GroupExecutionTypeOf defaults to all selected agents.
func (r *Registry) GroupExecutionTypeOf(id domain.OrderTypeID, agent Agent, index int) domain.GroupExecutionType {
	o := r.Resolve(id)
	if o == nil {
		return domain.GroupAll
	}
	return o.GroupExecutionType(agent, index)
}

// TargetScoreOf returns the lowest possible score for unknown order types
// so they never win a comparison.
func (r *Registry) TargetScoreOf(id domain.OrderTypeID, agent Agent, target TargetData, index int) float64 {
	o := r.Resolve(id)
	if o == nil {
		return -1
	}
	return o.TargetScore(agent, target, index)
}

// AcquisitionRadiusOf resolves the effective acquisition radius: the
// order's override first, then the agent's own radius, then the default.
func (r *Registry) AcquisitionRadiusOf(id domain.OrderTypeID, agent Agent, index int) float64 {
	if o := r.Resolve(id); o != nil {
		if radius, ok := o.AcquisitionRadiusOverride(agent, index); ok {
			return radius
		}
	}
	if ranged, ok := agent.(interface{ AcquisitionRadius() float64 }); ok {
		if radius := ranged.AcquisitionRadius(); radius > 0 {
			return radius
		}
	}
	return DefaultAcquisitionRadius
}

// ChaseDistanceOf returns zero for unknown order types, meaning the
// order does not bound how far the agent may stray.
func (r *Registry) ChaseDistanceOf(id domain.OrderTypeID, agent Agent, index int) float64 {
	o := r.Resolve(id)
	if o == nil {
		return 0
	}
	return o.ChaseDistance(agent, index)
}

// RequiredRangeOf returns zero for unknown order types.
func (r *Registry) RequiredRangeOf(id domain.OrderTypeID, agent Agent, index int) float64 {
	o := r.Resolve(id)
	if o == nil {
		return 0
	}
	return o.RequiredRange(agent, index)
}

// AutoOrdersAllowedDuring defaults to false for unknown order types.
func (r *Registry) AutoOrdersAllowedDuring(id domain.OrderTypeID) bool {
	o := r.Resolve(id)
	if o == nil {
		return false
	}
	return o.AutoOrdersAllowedDuringOrder()
}

// IsHumanPlayerAutoOrder defaults to false for unknown order types.
func (r *Registry) IsHumanPlayerAutoOrder(id domain.OrderTypeID, agent Agent, index int) bool {
	o := r.Resolve(id)
	if o == nil {
		return false
	}
	return o.IsHumanPlayerAutoOrder(agent, index)
}

// IsAIPlayerAutoOrder defaults to false for unknown order types.
func (r *Registry) IsAIPlayerAutoOrder(id domain.OrderTypeID, agent Agent, index int) bool {
	o := r.Resolve(id)
	if o == nil {
		return false
	}
	return o.IsAIPlayerAutoOrder(agent, index)
}

// HumanPlayerAutoOrderInitialState defaults to false.
func (r *Registry) HumanPlayerAutoOrderInitialState(id domain.OrderTypeID, agent Agent, index int) bool {
	o := r.Resolve(id)
	if o == nil {
		return false
	}
	return o.HumanPlayerAutoOrderInitialState(agent, index)
}

// CreateIndividualTargetLocations spreads a shared location target over a
// group of agents. When the order returns the wrong number of locations
// the shared location is used for everyone.
func (r *Registry) CreateIndividualTargetLocations(id domain.OrderTypeID, agents []Agent, target TargetData) []orb.Point {
	o := r.Resolve(id)
	if o != nil {
		locations := o.CreateIndividualTargetLocations(agents, target)
		if len(locations) == len(agents) {
			return locations
		}
		r.log.Warn("individual target location count mismatch",
			"order", id,
			"agents", len(agents),
			"locations", len(locations))
	}

	out := make([]orb.Point, len(agents))
	for i := range agents {
		out[i] = target.Location
	}
	return out
}
