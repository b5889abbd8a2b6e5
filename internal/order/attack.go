package order

import (
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// AttackOrder engages a hostile actor target. It doubles as the default
// AI auto-order: idle armed agents pick it up against the best-scored
// visible enemy in acquisition range.
type AttackOrder struct {
	Policy
}

func NewAttackOrder(run RunFunc) *AttackOrder {
	return &AttackOrder{Policy: Policy{
		Target:           domain.TargetActor,
		Process:          domain.ProcessCanBeCanceled,
		Group:            domain.GroupAll,
		AIAuto:           true,
		HumanAuto:        true,
		HumanAutoInitial: true,
		AllowAutoOrders:  false,
		Requirements: tags.Requirements{
			SourceRequired: tags.NewSet(tags.StatusPermanentCanAttack),
			SourceBlocked:  tags.NewSet(tags.StatusChangingUnarmed, tags.StatusChangingConstructing),
			TargetRequired: tags.NewSet(tags.StatusChangingAlive, tags.RelationshipVisible),
			TargetBlocked:  tags.NewSet(tags.StatusChangingInvulnerable, tags.RelationshipFriendly, tags.RelationshipSelf),
		},
		SuccessRequirements: tags.Requirements{
			TargetBlocked: tags.NewSet(tags.StatusChangingAlive),
		},
		Run: run,
	}}
}

// TargetScore biases the distance score away from workers and buildings so
// combat units are engaged first.
func (a *AttackOrder) TargetScore(agent Agent, target TargetData, index int) float64 {
	score := a.Policy.TargetScore(agent, target, index)
	switch {
	case target.Tags.Has(tags.StatusPermanentBuilding):
		score *= 0.5
	case target.Tags.Has(tags.StatusPermanentCanGather):
		score *= 0.7
	}
	return score
}

// RequiredRange is the agent's weapon range when it declares one.
func (a *AttackOrder) RequiredRange(agent Agent, index int) float64 {
	if ranged, ok := agent.(interface{ AttackRange() float64 }); ok {
		return ranged.AttackRange()
	}
	return a.Policy.RequiredRange(agent, index)
}

// ChaseDistance is the agent's own leash when it declares one.
func (a *AttackOrder) ChaseDistance(agent Agent, index int) float64 {
	if chaser, ok := agent.(interface{ ChaseDistance() float64 }); ok && chaser.ChaseDistance() > 0 {
		return chaser.ChaseDistance()
	}
	return a.Policy.ChaseDistance(agent, index)
}
