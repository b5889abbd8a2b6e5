package behavior

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
)

// arriveRadius is how close a mover has to get to its destination before
// the move counts as completed.
const arriveRadius = 10.0

// Mobile is an agent that can be displaced by an execution.
type Mobile interface {
	order.Agent
	SetLocation(orb.Point)
	MoveSpeed() float64
}

// Damageable is an agent that can take damage from an attack execution.
type Damageable interface {
	ApplyDamage(amount float64)
}

// stepTowards moves m towards dest by at most speed*dt and reports whether
// it arrived.
func stepTowards(m Mobile, dest orb.Point, dt float64) bool {
	loc := m.Location()
	dist := planar.Distance(loc, dest)
	if dist <= arriveRadius {
		return true
	}

	step := m.MoveSpeed() * dt
	if step >= dist {
		m.SetLocation(dest)
		return true
	}
	m.SetLocation(orb.Point{
		loc[0] + (dest[0]-loc[0])/dist*step,
		loc[1] + (dest[1]-loc[1])/dist*step,
	})
	return false
}

// NewIdleRun returns the stop order execution: it holds the agent in place
// and never completes on its own.
func NewIdleRun(sys *System) order.RunFunc {
	return func(agent order.Agent, _ order.TargetData, _ int, cb order.Callback, _ orb.Point) {
		sys.Run(agent.ID(), func(float64) (domain.OrderResult, bool) {
			return 0, false
		}, cb)
	}
}

// NewMoveRun returns a move execution that walks the agent to the target
// location. Agents that cannot move fail immediately.
func NewMoveRun(sys *System) order.RunFunc {
	return func(agent order.Agent, target order.TargetData, _ int, cb order.Callback, _ orb.Point) {
		m, ok := agent.(Mobile)
		if !ok {
			sys.Run(agent.ID(), func(float64) (domain.OrderResult, bool) {
				return domain.OrderFailed, true
			}, cb)
			return
		}
		dest := target.Location
		sys.Run(agent.ID(), func(dt float64) (domain.OrderResult, bool) {
			if stepTowards(m, dest, dt) {
				return domain.OrderSucceeded, true
			}
			return 0, false
		}, cb)
	}
}

// AttackConfig tunes the attack execution.
type AttackConfig struct {
	// Damage dealt per completed swing.
	Damage float64
	// Cooldown between swings in seconds.
	Cooldown float64
	// ChaseDistance is the fallback leash for agents that do not declare
	// their own: how far from the order's home location the agent will
	// pursue before giving up. Zero disables the leash.
	ChaseDistance float64
}

// NewAttackRun returns an attack execution: chase the target until in
// weapon range, then swing on cooldown until the target dies. Straying
// beyond the chase distance from home fails the attack so the controller
// can fall back.
func NewAttackRun(sys *System, cfg AttackConfig) order.RunFunc {
	return func(agent order.Agent, target order.TargetData, index int, cb order.Callback, home orb.Point) {
		victim := target.Actor
		if victim == nil {
			sys.Run(agent.ID(), func(float64) (domain.OrderResult, bool) {
				return domain.OrderFailed, true
			}, cb)
			return
		}

		rng := arriveRadius
		if ranged, ok := agent.(interface{ AttackRange() float64 }); ok && ranged.AttackRange() > 0 {
			rng = ranged.AttackRange()
		}

		leash := cfg.ChaseDistance
		if chaser, ok := agent.(interface{ ChaseDistance() float64 }); ok && chaser.ChaseDistance() > 0 {
			leash = chaser.ChaseDistance()
		}

		cooldown := 0.0
		sys.Run(agent.ID(), func(dt float64) (domain.OrderResult, bool) {
			if leash > 0 && planar.Distance(home, agent.Location()) > leash {
				return domain.OrderFailed, true
			}

			dist := planar.Distance(agent.Location(), victim.Location())
			if dist > rng {
				m, ok := agent.(Mobile)
				if !ok {
					return domain.OrderFailed, true
				}
				stepTowards(m, victim.Location(), dt)
				return 0, false
			}

			cooldown -= dt
			if cooldown > 0 {
				return 0, false
			}
			cooldown = cfg.Cooldown
			if d, ok := victim.(Damageable); ok {
				d.ApplyDamage(cfg.Damage)
			}
			return 0, false
		}, cb)
	}
}

// NewChannelRun returns an execution that succeeds after a fixed duration,
// for cast-time abilities.
func NewChannelRun(sys *System, duration float64) order.RunFunc {
	return func(agent order.Agent, _ order.TargetData, _ int, cb order.Callback, _ orb.Point) {
		remaining := duration
		sys.Run(agent.ID(), func(dt float64) (domain.OrderResult, bool) {
			remaining -= dt
			if remaining <= 0 {
				return domain.OrderSucceeded, true
			}
			return 0, false
		}, cb)
	}
}

// NewInstantRun wraps a side effect as an instant execution. It runs
// inline; instant orders get no callback.
func NewInstantRun(fn func(agent order.Agent, target order.TargetData, index int)) order.RunFunc {
	return func(agent order.Agent, target order.TargetData, index int, cb order.Callback, _ orb.Point) {
		fn(agent, target, index)
		if cb != nil {
			cb(domain.OrderSucceeded)
		}
	}
}
