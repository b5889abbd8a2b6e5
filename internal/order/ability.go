package order

import (
	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// AbilitySlot is one ability behind a shared ability order type, selected
// by the descriptor index.
type AbilitySlot struct {
	Name   string
	Policy Policy
}

// AbilityOrder exposes a family of abilities through a single order type.
// The descriptor index picks the slot; an out-of-range index fails
// validation instead of panicking.
type AbilityOrder struct {
	Policy
	Slots []AbilitySlot
}

func NewAbilityOrder(slots ...AbilitySlot) *AbilityOrder {
	return &AbilityOrder{
		Policy: Policy{Target: domain.TargetNone, Process: domain.ProcessCanBeCanceled, Group: domain.GroupSelectedUnit},
		Slots:  slots,
	}
}

func (a *AbilityOrder) slot(index int) *AbilitySlot {
	if index < 0 || index >= len(a.Slots) {
		return nil
	}
	return &a.Slots[index]
}

func (a *AbilityOrder) CanObeyOrder(agent Agent, index int, errs *tags.ErrorTags) bool {
	s := a.slot(index)
	if s == nil {
		if errs != nil {
			errs.AddError(tags.ErrorUnknownOrder)
		}
		return false
	}
	owned := agent.Tags().Owned()
	if errs != nil {
		return tags.SatisfiesExplain(owned, s.Policy.Requirements.SourceRequired, s.Policy.Requirements.SourceBlocked, errs)
	}
	return tags.Satisfies(owned, s.Policy.Requirements.SourceRequired, s.Policy.Requirements.SourceBlocked)
}

func (a *AbilityOrder) IsValidTarget(agent Agent, target TargetData, index int, errs *tags.ErrorTags) bool {
	s := a.slot(index)
	if s == nil {
		if errs != nil {
			errs.AddError(tags.ErrorUnknownOrder)
		}
		return false
	}
	if errs != nil {
		return tags.SatisfiesExplain(target.Tags, s.Policy.Requirements.TargetRequired, s.Policy.Requirements.TargetBlocked, errs)
	}
	return tags.Satisfies(target.Tags, s.Policy.Requirements.TargetRequired, s.Policy.Requirements.TargetBlocked)
}

func (a *AbilityOrder) TargetType(agent Agent, index int) domain.TargetType {
	if s := a.slot(index); s != nil {
		return s.Policy.Target
	}
	return domain.TargetNone
}

// TagRequirements of the slot itself. The per-slot requirement checks in
// CanObeyOrder and IsValidTarget run on the same sets, so the controller's
// tag listeners and the validation agree.
func (a *AbilityOrder) TagRequirements(agent Agent, index int) tags.Requirements {
	if s := a.slot(index); s != nil {
		return s.Policy.Requirements
	}
	return tags.Requirements{}
}

func (a *AbilityOrder) SuccessTagRequirements(agent Agent, index int) tags.Requirements {
	if s := a.slot(index); s != nil {
		return s.Policy.SuccessRequirements
	}
	return tags.Requirements{}
}

func (a *AbilityOrder) TargetScore(agent Agent, target TargetData, index int) float64 {
	if s := a.slot(index); s != nil {
		return s.Policy.TargetScore(agent, target, index)
	}
	return -1
}

func (a *AbilityOrder) ProcessPolicy(agent Agent, index int) domain.ProcessPolicy {
	if s := a.slot(index); s != nil {
		return s.Policy.Process
	}
	return domain.ProcessCanBeCanceled
}

func (a *AbilityOrder) RequiredRange(agent Agent, index int) float64 {
	if s := a.slot(index); s != nil {
		return s.Policy.Range
	}
	return 0
}

func (a *AbilityOrder) AcquisitionRadiusOverride(agent Agent, index int) (float64, bool) {
	if s := a.slot(index); s != nil {
		return s.Policy.AcquisitionRadiusOverride(agent, index)
	}
	return 0, false
}

func (a *AbilityOrder) ChaseDistance(agent Agent, index int) float64 {
	if s := a.slot(index); s != nil {
		return s.Policy.Chase
	}
	return 0
}

func (a *AbilityOrder) IsHumanPlayerAutoOrder(agent Agent, index int) bool {
	if s := a.slot(index); s != nil {
		return s.Policy.HumanAuto
	}
	return false
}

func (a *AbilityOrder) IsAIPlayerAutoOrder(agent Agent, index int) bool {
	if s := a.slot(index); s != nil {
		return s.Policy.AIAuto
	}
	return false
}

func (a *AbilityOrder) HumanPlayerAutoOrderInitialState(agent Agent, index int) bool {
	if s := a.slot(index); s != nil {
		return s.Policy.HumanAutoInitial
	}
	return false
}

func (a *AbilityOrder) Issue(agent Agent, target TargetData, index int, cb Callback, home orb.Point) {
	if s := a.slot(index); s != nil {
		s.Policy.Issue(agent, target, index, cb, home)
		return
	}
	if cb != nil {
		cb(domain.OrderFailed)
	}
}
