package order

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// formationSpacing is the distance between neighboring formation slots.
const formationSpacing = 300.0

// MoveOrder sends agents to a location. Group commands spread the agents
// into a grid formation around the shared target instead of stacking them
// on one point.
type MoveOrder struct {
	Policy
}

func NewMoveOrder(run RunFunc) *MoveOrder {
	return &MoveOrder{Policy: Policy{
		Target:  domain.TargetLocation,
		Process: domain.ProcessCanBeCanceled,
		Group:   domain.GroupAll,
		Requirements: tags.Requirements{
			SourceRequired: tags.NewSet(tags.StatusPermanentMovable),
			SourceBlocked:  tags.NewSet(tags.StatusChangingImmobilized, tags.StatusChangingConstructing),
		},
		Run: run,
	}}
}

// CreateIndividualTargetLocations lays out a square grid of slots around
// the target, oriented to face the group's approach direction, and
// assigns each agent the free slot closest to its current position.
func (m *MoveOrder) CreateIndividualTargetLocations(agents []Agent, target TargetData) []orb.Point {
	n := len(agents)
	if n == 0 {
		return nil
	}
	if n == 1 {
		return []orb.Point{target.Location}
	}

	var center orb.Point
	for _, a := range agents {
		center[0] += a.Location()[0]
		center[1] += a.Location()[1]
	}
	center[0] /= float64(n)
	center[1] /= float64(n)

	// Rotate the grid so its front row faces the direction of travel.
	angle := math.Atan2(target.Location[1]-center[1], target.Location[0]-center[0]) + math.Pi/2

	slots := formationSlots(n, target.Location, angle)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := formationRank(agents[order[i]]), formationRank(agents[order[j]])
		if ri != rj {
			return ri < rj
		}
		return agents[order[i]].ID() < agents[order[j]].ID()
	})

	// Higher-ranked agents pick first; each takes the nearest free slot.
	out := make([]orb.Point, n)
	taken := make([]bool, n)
	for _, idx := range order {
		loc := agents[idx].Location()
		best, bestDist := -1, math.MaxFloat64
		for s, slot := range slots {
			if taken[s] {
				continue
			}
			if d := planar.DistanceSquared(loc, slot); d < bestDist {
				best, bestDist = s, d
			}
		}
		taken[best] = true
		out[idx] = slots[best]
	}
	return out
}

// formationSlots builds n grid positions centered on target, rotated by
// angle. The grid is as square as possible with the last row centered.
func formationSlots(n int, target orb.Point, angle float64) []orb.Point {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols

	sin, cos := math.Sincos(angle)

	slots := make([]orb.Point, 0, n)
	for row := 0; row < rows; row++ {
		inRow := cols
		if row == rows-1 {
			inRow = n - row*cols
		}
		for col := 0; col < inRow; col++ {
			x := (float64(col) - float64(inRow-1)/2) * formationSpacing
			y := (float64(row) - float64(rows-1)/2) * formationSpacing
			slots = append(slots, orb.Point{
				target[0] + x*cos - y*sin,
				target[1] + x*sin + y*cos,
			})
		}
	}
	return slots
}

// formationRank orders agents within a formation; lower ranks pick their
// slot first. Agents that do not declare a rank share rank zero.
func formationRank(a Agent) int {
	if r, ok := a.(interface{ FormationRank() int }); ok {
		return r.FormationRank()
	}
	return 0
}
