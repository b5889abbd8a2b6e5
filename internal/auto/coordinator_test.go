package auto

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cadre-games/ordercore/internal/acquire"
	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
	"github.com/cadre-games/ordercore/internal/tags"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testAgent struct {
	id      domain.AgentID
	faction string
	loc     orb.Point
	tagc    *tags.Counter
}

func newTestAgent(id domain.AgentID, faction string, loc orb.Point, ts ...tags.Tag) *testAgent {
	return &testAgent{id: id, faction: faction, loc: loc, tagc: tags.NewCounter(ts...)}
}

func (a *testAgent) ID() domain.AgentID  { return a.id }
func (a *testAgent) Location() orb.Point { return a.loc }
func (a *testAgent) Tags() *tags.Counter { return a.tagc }

type testSpace []*testAgent

func (s testSpace) AgentsInRadius(center orb.Point, radius float64) []order.Agent {
	var out []order.Agent
	for _, a := range s {
		if planar.Distance(center, a.loc) <= radius {
			out = append(out, a)
		}
	}
	return out
}

func (s testSpace) AgentByID(id domain.AgentID) order.Agent {
	for _, a := range s {
		if a.id == id {
			return a
		}
	}
	return nil
}

type factionRel struct{}

func (factionRel) RelationshipTags(source, target order.Agent) tags.Set {
	if source.(*testAgent).faction == target.(*testAgent).faction {
		return tags.NewSet(tags.RelationshipFriendly)
	}
	return tags.NewSet(tags.RelationshipHostile)
}

func (factionRel) Visible(order.Agent, order.Agent) bool { return true }

type callbackRun struct {
	cbs []order.Callback
}

func (c *callbackRun) run(_ order.Agent, _ order.TargetData, _ int, cb order.Callback, _ orb.Point) {
	c.cbs = append(c.cbs, cb)
}

type autoRig struct {
	reg    *order.Registry
	space  testSpace
	me     *testAgent
	ctrl   *order.Controller
	finder *acquire.Finder
	atkRun *callbackRun
}

func newAutoRig(t *testing.T) *autoRig {
	t.Helper()
	log := testLogger()

	r := &autoRig{
		reg:    order.NewRegistry(log),
		atkRun: &callbackRun{},
	}
	if err := r.reg.Register("stop", order.NewStopOrder(nil)); err != nil {
		t.Fatal(err)
	}
	if err := r.reg.Register("attack", order.NewAttackOrder(r.atkRun.run)); err != nil {
		t.Fatal(err)
	}

	r.me = newTestAgent("me", "red", orb.Point{0, 0},
		tags.StatusPermanentCanAttack, tags.StatusChangingAlive)
	r.space = testSpace{r.me}
	return r
}

func (r *autoRig) build(t *testing.T, human bool) *Coordinator {
	t.Helper()
	r.ctrl = order.NewController(r.me, r.reg, r.space, factionRel{}, domain.NewOrder("stop"), true, testLogger())
	r.finder = acquire.NewFinder(r.reg, r.space, factionRel{}, testLogger())
	candidates := []domain.OrderSlot{
		domain.NewOrderSlot("stop"),
		domain.NewOrderSlot("attack"),
	}
	return NewCoordinator(r.ctrl, r.reg, r.finder, candidates, human, testLogger())
}

func TestCoordinatorFiltersCandidatesByPlayerKind(t *testing.T) {
	r := newAutoRig(t)
	c := r.build(t, false)

	slots := c.Slots()
	if len(slots) != 1 || slots[0].Type != "attack" {
		t.Errorf("slots = %v, want only the attack order", slots)
	}
}

func TestEvaluateIssuesAttackOnSight(t *testing.T) {
	r := newAutoRig(t)
	enemy := newTestAgent("enemy", "blue", orb.Point{200, 0}, tags.StatusChangingAlive)
	r.space = append(r.space, enemy)
	c := r.build(t, false)

	if !c.Evaluate() {
		t.Fatal("idle agent with an enemy in range issued nothing")
	}

	cur := r.ctrl.CurrentOrder()
	if cur.Type != "attack" || cur.Target != "enemy" {
		t.Fatalf("current = %v, want attack on enemy", cur)
	}
	if !cur.UseLocation || cur.Location != enemy.Location() {
		t.Errorf("location = %v (use=%v), want the target position at acquisition time", cur.Location, cur.UseLocation)
	}

	// The attack order does not tolerate interruptions, so evaluation
	// stays quiet while it runs.
	if c.Evaluate() {
		t.Error("evaluation issued during a non-interruptible order")
	}
}

func TestEvaluateResumesAfterAutoOrderEnds(t *testing.T) {
	r := newAutoRig(t)
	enemy := newTestAgent("enemy", "blue", orb.Point{200, 0}, tags.StatusChangingAlive)
	r.space = append(r.space, enemy)
	c := r.build(t, false)

	if !c.Evaluate() {
		t.Fatal("no auto attack issued")
	}
	if !c.Dirty() {
		t.Error("order change did not mark the coordinator dirty")
	}

	// The enemy dies mid-swing; cancellation reclassifies to success and
	// the agent goes idle again.
	enemy.Tags().Remove(tags.StatusChangingAlive)
	if !r.ctrl.IsIdle() {
		t.Fatalf("current = %v, want stop after the target died", r.ctrl.CurrentOrder())
	}

	// No living enemy left, nothing to issue.
	if c.Evaluate() {
		t.Error("issued an attack with no valid target")
	}
}

func TestEvaluateQuietWithoutTargets(t *testing.T) {
	r := newAutoRig(t)
	r.space = append(r.space, newTestAgent("friend", "red", orb.Point{100, 0}, tags.StatusChangingAlive))
	c := r.build(t, false)

	if c.Evaluate() {
		t.Error("issued an order with only friendlies around")
	}
	if !r.ctrl.IsIdle() {
		t.Errorf("current = %v, want stop", r.ctrl.CurrentOrder())
	}
}

func TestHumanToggleDisablesSlot(t *testing.T) {
	r := newAutoRig(t)
	enemy := newTestAgent("enemy", "blue", orb.Point{200, 0}, tags.StatusChangingAlive)
	r.space = append(r.space, enemy)
	c := r.build(t, true)

	slot := domain.NewOrderSlot("attack")
	on, err := c.Enabled(slot)
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Fatal("attack should start enabled for human players")
	}

	if err := c.SetEnabled(slot, false); err != nil {
		t.Fatal(err)
	}
	if c.Evaluate() {
		t.Error("disabled slot still issued")
	}

	if err := c.SetEnabled(slot, true); err != nil {
		t.Fatal(err)
	}
	if !c.Evaluate() {
		t.Error("re-enabled slot did not issue")
	}
}

func TestSetEnabledUnknownSlot(t *testing.T) {
	r := newAutoRig(t)
	c := r.build(t, false)

	err := c.SetEnabled(domain.NewOrderSlot("bogus"), true)
	if !errors.Is(err, domain.ErrUnknownAutoOrder) {
		t.Errorf("err = %v, want %v", err, domain.ErrUnknownAutoOrder)
	}
	if _, err := c.Enabled(domain.NewOrderSlot("bogus")); !errors.Is(err, domain.ErrUnknownAutoOrder) {
		t.Errorf("err = %v, want %v", err, domain.ErrUnknownAutoOrder)
	}
}

func TestEvaluateTargetNoneNeedsHostileNearby(t *testing.T) {
	newRig := func(t *testing.T, space testSpace) (*Coordinator, *order.Controller, *int) {
		t.Helper()
		log := testLogger()
		reg := order.NewRegistry(log)
		if err := reg.Register("stop", order.NewStopOrder(nil)); err != nil {
			t.Fatal(err)
		}
		howls := 0
		howl := &order.Policy{AIAuto: true, AcquisitionRadius: 500,
			Run: func(order.Agent, order.TargetData, int, order.Callback, orb.Point) { howls++ }}
		if err := reg.Register("howl", howl); err != nil {
			t.Fatal(err)
		}
		ctrl := order.NewController(space[0], reg, space, factionRel{}, domain.NewOrder("stop"), true, log)
		finder := acquire.NewFinder(reg, space, factionRel{}, log)
		c := NewCoordinator(ctrl, reg, finder, []domain.OrderSlot{domain.NewOrderSlot("howl")}, false, log)
		return c, ctrl, &howls
	}

	me := newTestAgent("me", "red", orb.Point{0, 0}, tags.StatusChangingAlive)

	c, ctrl, howls := newRig(t, testSpace{me})
	if c.Evaluate() {
		t.Error("issued a target-less auto order with nobody around")
	}
	if *howls != 0 || !ctrl.IsIdle() {
		t.Errorf("howls = %d, current = %v, want the agent left idle", *howls, ctrl.CurrentOrder())
	}

	far := newTestAgent("far", "blue", orb.Point{900, 0}, tags.StatusChangingAlive)
	c, ctrl, howls = newRig(t, testSpace{me, far})
	if c.Evaluate() {
		t.Error("issued with the only hostile outside the acquisition radius")
	}

	near := newTestAgent("near", "blue", orb.Point{300, 0}, tags.StatusChangingAlive)
	c, ctrl, howls = newRig(t, testSpace{me, near})
	if !c.Evaluate() {
		t.Fatal("hostile in acquisition radius but nothing issued")
	}
	if *howls != 1 {
		t.Errorf("howls = %d, want 1", *howls)
	}
}

func TestEvaluateIssuesLocationTargetedOrders(t *testing.T) {
	r := newAutoRig(t)
	var struck []orb.Point
	bombard := &order.Policy{Target: domain.TargetLocation, AIAuto: true,
		Requirements: tags.Requirements{
			TargetRequired: tags.NewSet(tags.StatusChangingAlive, tags.RelationshipHostile),
		},
		Run: func(_ order.Agent, td order.TargetData, _ int, _ order.Callback, _ orb.Point) {
			struck = append(struck, td.Location)
		}}
	if err := r.reg.Register("bombard", bombard); err != nil {
		t.Fatal(err)
	}
	enemy := newTestAgent("enemy", "blue", orb.Point{100, 0}, tags.StatusChangingAlive)
	r.space = append(r.space, enemy)

	r.ctrl = order.NewController(r.me, r.reg, r.space, factionRel{}, domain.NewOrder("stop"), true, testLogger())
	r.finder = acquire.NewFinder(r.reg, r.space, factionRel{}, testLogger())
	c := NewCoordinator(r.ctrl, r.reg, r.finder, []domain.OrderSlot{
		domain.NewOrderSlot("bombard"),
	}, false, testLogger())

	if !c.Evaluate() {
		t.Fatal("location-targeted auto order never issued")
	}
	cur := r.ctrl.CurrentOrder()
	if cur.Type != "bombard" || !cur.UseLocation || cur.Location != enemy.Location() {
		t.Fatalf("current = %v, want bombard at the hostile's position", cur)
	}
	if len(struck) != 1 || struck[0] != enemy.Location() {
		t.Errorf("struck = %v, want one strike at %v", struck, enemy.Location())
	}
}

func TestEvaluateRespectsOrderChaseDistance(t *testing.T) {
	newRig := func(t *testing.T, enemyLoc orb.Point) (*Coordinator, *order.Controller) {
		t.Helper()
		log := testLogger()
		reg := order.NewRegistry(log)
		if err := reg.Register("stop", order.NewStopOrder(nil)); err != nil {
			t.Fatal(err)
		}
		raid := &order.Policy{Target: domain.TargetActor, AIAuto: true, Chase: 50,
			Requirements: tags.Requirements{
				TargetRequired: tags.NewSet(tags.StatusChangingAlive, tags.RelationshipHostile),
			},
			Run: func(order.Agent, order.TargetData, int, order.Callback, orb.Point) {}}
		if err := reg.Register("raid", raid); err != nil {
			t.Fatal(err)
		}
		me := newTestAgent("me", "red", orb.Point{0, 0}, tags.StatusChangingAlive)
		space := testSpace{me, newTestAgent("enemy", "blue", enemyLoc, tags.StatusChangingAlive)}
		ctrl := order.NewController(me, reg, space, factionRel{}, domain.NewOrder("stop"), true, log)
		finder := acquire.NewFinder(reg, space, factionRel{}, log)
		return NewCoordinator(ctrl, reg, finder, []domain.OrderSlot{domain.NewOrderSlot("raid")}, false, log), ctrl
	}

	c, ctrl := newRig(t, orb.Point{100, 0})
	if c.Evaluate() {
		t.Errorf("issued against a hostile beyond the order's chase distance, current = %v", ctrl.CurrentOrder())
	}

	c, ctrl = newRig(t, orb.Point{40, 0})
	if !c.Evaluate() {
		t.Fatal("hostile within chase distance but nothing issued")
	}
	if ctrl.CurrentOrder().Type != "raid" {
		t.Errorf("current = %v, want raid", ctrl.CurrentOrder())
	}
}

func TestEvaluateFirstMatchWins(t *testing.T) {
	r := newAutoRig(t)
	healed := 0
	heal := &order.Policy{AIAuto: true, AllowAutoOrders: true,
		Run: func(order.Agent, order.TargetData, int, order.Callback, orb.Point) { healed++ }}
	if err := r.reg.Register("heal", heal); err != nil {
		t.Fatal(err)
	}
	enemy := newTestAgent("enemy", "blue", orb.Point{200, 0}, tags.StatusChangingAlive)
	r.space = append(r.space, enemy)

	r.ctrl = order.NewController(r.me, r.reg, r.space, factionRel{}, domain.NewOrder("stop"), true, testLogger())
	r.finder = acquire.NewFinder(r.reg, r.space, factionRel{}, testLogger())
	c := NewCoordinator(r.ctrl, r.reg, r.finder, []domain.OrderSlot{
		domain.NewOrderSlot("heal"),
		domain.NewOrderSlot("attack"),
	}, false, testLogger())

	if !c.Evaluate() {
		t.Fatal("nothing issued")
	}
	if got := r.ctrl.CurrentOrder().Type; got != "heal" {
		t.Errorf("current = %v, want the first candidate slot", got)
	}
	if healed != 1 {
		t.Errorf("heal runs = %d, want 1", healed)
	}
}
