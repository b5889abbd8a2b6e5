package order

import (
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// StopOrder is the idle fallback: target-free, obeyable by anything that
// is not mid-construction, and the order every controller returns to when
// nothing else can run.
type StopOrder struct {
	Policy
}

// NewStopOrder builds the stop strategy with the given idle execution.
func NewStopOrder(run RunFunc) *StopOrder {
	return &StopOrder{Policy: Policy{
		Target:          domain.TargetNone,
		Process:         domain.ProcessCanBeCanceled,
		Group:           domain.GroupAll,
		AllowAutoOrders: true,
		Requirements: tags.Requirements{
			SourceBlocked: tags.NewSet(tags.StatusChangingConstructing),
		},
		Run: run,
	}}
}
