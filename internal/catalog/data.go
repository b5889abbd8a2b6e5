package catalog

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
	"github.com/cadre-games/ordercore/internal/tags"
)

// Env is the expression environment for catalog predicates. Expressions
// reference Agent, Target and Index, e.g.
//
//	Agent.Has("status.changing.detector") && Target.Distance < 500.0
type Env struct {
	Agent  Actor
	Target Target
	Index  int
}

// Actor is the expression view of an agent.
type Actor struct {
	ID string
	X  float64
	Y  float64

	tagSet tags.Set
}

// Has reports whether the actor owns the tag.
func (a Actor) Has(tag string) bool {
	return a.tagSet.Has(tags.Tag(tag))
}

// Target is the expression view of an order target.
type Target struct {
	Actor

	// HasActor is false for pure location targets.
	HasActor bool

	// Distance from the evaluating agent.
	Distance float64
}

func envFor(agent order.Agent, target order.TargetData, index int) Env {
	e := Env{Index: index}
	if agent != nil {
		loc := agent.Location()
		e.Agent = Actor{ID: string(agent.ID()), X: loc.X(), Y: loc.Y(), tagSet: agent.Tags().Owned()}
		e.Target.Distance = planar.Distance(loc, target.Location)
	}
	e.Target.tagSet = target.Tags
	e.Target.X = target.Location.X()
	e.Target.Y = target.Location.Y()
	if target.Actor != nil {
		e.Target.HasActor = true
		e.Target.ID = string(target.Actor.ID())
	}
	return e
}

// DataOrder is a catalog-defined order strategy: static configuration from
// the definition plus optional compiled predicates.
type DataOrder struct {
	order.Policy

	name         string
	canObey      *vm.Program
	validTarget  *vm.Program
	score        *vm.Program
	scoreFactors map[tags.Tag]float64
}

// Name returns the catalog id of the order.
func (d *DataOrder) Name() string { return d.name }

func (d *DataOrder) CanObeyOrder(agent order.Agent, index int, errs *tags.ErrorTags) bool {
	if d.canObey == nil {
		return true
	}
	out, err := expr.Run(d.canObey, envFor(agent, order.TargetData{}, index))
	if err != nil {
		return false
	}
	return out.(bool)
}

func (d *DataOrder) IsValidTarget(agent order.Agent, target order.TargetData, index int, errs *tags.ErrorTags) bool {
	if d.validTarget == nil {
		return true
	}
	out, err := expr.Run(d.validTarget, envFor(agent, target, index))
	if err != nil {
		return false
	}
	return out.(bool)
}

func (d *DataOrder) TargetScore(agent order.Agent, target order.TargetData, index int) float64 {
	score := d.Policy.TargetScore(agent, target, index)
	if d.score != nil {
		out, err := expr.Run(d.score, envFor(agent, target, index))
		if err != nil {
			return -1
		}
		score = out.(float64)
	}
	for tag, factor := range d.scoreFactors {
		if target.Tags.Has(tag) {
			score *= factor
		}
	}
	return score
}

func compile(def Definition, run order.RunFunc) (*DataOrder, error) {
	do := &DataOrder{
		name: def.ID,
		Policy: order.Policy{
			Target:              targetTypes[def.TargetType],
			Process:             processPolicies[def.ProcessPolicy],
			Group:               groupTypes[def.GroupExecution],
			Requirements:        def.Requirements.toTags(),
			SuccessRequirements: def.SuccessRequirements.toTags(),
			AcquisitionRadius:   def.AcquisitionRadius,
			Range:               def.RequiredRange,
			Chase:               def.ChaseDistance,
			Fallback:            domain.OrderTypeID(def.Fallback),
			HumanAuto:           def.HumanAuto,
			AIAuto:              def.AIAuto,
			HumanAutoInitial:    def.HumanAutoInitial,
			AllowAutoOrders:     def.AllowAutoOrders,
			Run:                 run,
		},
	}
	if len(def.ScoreFactors) > 0 {
		do.scoreFactors = make(map[tags.Tag]float64, len(def.ScoreFactors))
		for tag, factor := range def.ScoreFactors {
			do.scoreFactors[tags.Tag(tag)] = factor
		}
	}

	var err error
	if def.CanObey != "" {
		if do.canObey, err = expr.Compile(def.CanObey, expr.Env(Env{}), expr.AsBool()); err != nil {
			return nil, domain.ErrCatalogInvalid.WithDetail(def.ID + ": " + err.Error())
		}
	}
	if def.ValidTarget != "" {
		if do.validTarget, err = expr.Compile(def.ValidTarget, expr.Env(Env{}), expr.AsBool()); err != nil {
			return nil, domain.ErrCatalogInvalid.WithDetail(def.ID + ": " + err.Error())
		}
	}
	if def.Score != "" {
		if do.score, err = expr.Compile(def.Score, expr.Env(Env{}), expr.AsFloat64()); err != nil {
			return nil, domain.ErrCatalogInvalid.WithDetail(def.ID + ": " + err.Error())
		}
	}
	return do, nil
}
