package order

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testAgent struct {
	id   domain.AgentID
	loc  orb.Point
	tagc *tags.Counter
}

func newTestAgent(id domain.AgentID, loc orb.Point, ts ...tags.Tag) *testAgent {
	return &testAgent{id: id, loc: loc, tagc: tags.NewCounter(ts...)}
}

func (a *testAgent) ID() domain.AgentID  { return a.id }
func (a *testAgent) Location() orb.Point { return a.loc }
func (a *testAgent) Tags() *tags.Counter { return a.tagc }

type testWorld map[domain.AgentID]*testAgent

func (w testWorld) AgentByID(id domain.AgentID) Agent {
	if a, ok := w[id]; ok {
		return a
	}
	return nil
}

type runRecord struct {
	target TargetData
	index  int
	cb     Callback
	home   orb.Point
}

// scriptedRun records every execution start so tests can complete orders
// by invoking the captured callback.
type scriptedRun struct {
	runs []runRecord
}

func (s *scriptedRun) run(_ Agent, target TargetData, index int, cb Callback, home orb.Point) {
	s.runs = append(s.runs, runRecord{target: target, index: index, cb: cb, home: home})
}

func (s *scriptedRun) last(t *testing.T) runRecord {
	t.Helper()
	if len(s.runs) == 0 {
		t.Fatal("execution was never started")
	}
	return s.runs[len(s.runs)-1]
}

type endedRecord struct {
	order  domain.OrderDescriptor
	result domain.OrderResult
}

type rig struct {
	reg     *Registry
	world   testWorld
	agent   *testAgent
	ctrl    *Controller
	stopRun *scriptedRun

	ended        []endedRecord
	queueCleared int
}

func newRig(t *testing.T) *rig {
	t.Helper()
	log := testLogger()

	r := &rig{
		reg:     NewRegistry(log),
		stopRun: &scriptedRun{},
	}
	if err := r.reg.Register("stop", NewStopOrder(r.stopRun.run)); err != nil {
		t.Fatal(err)
	}

	r.agent = newTestAgent("a1", orb.Point{0, 0},
		tags.StatusChangingAlive, tags.StatusPermanentMovable, tags.StatusPermanentCanAttack)
	r.world = testWorld{"a1": r.agent}

	r.ctrl = NewController(r.agent, r.reg, r.world, NeutralRelationships{}, domain.NewOrder("stop"), true, log)
	r.ctrl.Observe(Observer{
		OrderEnded: func(d domain.OrderDescriptor, res domain.OrderResult) {
			r.ended = append(r.ended, endedRecord{d, res})
		},
		QueueCleared: func() { r.queueCleared++ },
	})
	return r
}

func (r *rig) register(t *testing.T, id domain.OrderTypeID, o Order) {
	t.Helper()
	if err := r.reg.Register(id, o); err != nil {
		t.Fatal(err)
	}
}

func TestIssueOrderReplacesCancelableOrder(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	d1 := domain.NewLocationOrder("move", orb.Point{100, 0})
	if err := r.ctrl.IssueOrder(d1); err != nil {
		t.Fatal(err)
	}
	if !r.ctrl.CurrentOrder().Equal(d1) {
		t.Fatalf("current = %v, want %v", r.ctrl.CurrentOrder(), d1)
	}
	if len(moveRun.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(moveRun.runs))
	}

	d2 := domain.NewLocationOrder("move", orb.Point{200, 0})
	if err := r.ctrl.IssueOrder(d2); err != nil {
		t.Fatal(err)
	}
	if !r.ctrl.CurrentOrder().Equal(d2) {
		t.Fatalf("current = %v, want %v", r.ctrl.CurrentOrder(), d2)
	}
	if len(moveRun.runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(moveRun.runs))
	}
	if len(r.ended) != 1 || r.ended[0].result != domain.OrderCanceled || !r.ended[0].order.Equal(d1) {
		t.Errorf("ended = %v, want canceled %v", r.ended, d1)
	}

	// The replaced execution's callback is stale and must be ignored.
	moveRun.runs[0].cb(domain.OrderSucceeded)
	if !r.ctrl.CurrentOrder().Equal(d2) {
		t.Error("stale callback changed the current order")
	}
	if len(r.ended) != 1 {
		t.Errorf("stale callback produced a result, ended = %v", r.ended)
	}
}

func TestIssueOrderIdempotentButClearsQueue(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	d1 := domain.NewLocationOrder("move", orb.Point{100, 0})
	if err := r.ctrl.IssueOrder(d1); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.EnqueueOrder(domain.NewLocationOrder("move", orb.Point{200, 0})); err != nil {
		t.Fatal(err)
	}
	if len(r.ctrl.Queue()) != 1 {
		t.Fatalf("queue = %v, want one entry", r.ctrl.Queue())
	}

	cleared := r.queueCleared
	if err := r.ctrl.IssueOrder(d1); err != nil {
		t.Fatal(err)
	}
	if len(r.ctrl.Queue()) != 0 {
		t.Error("reissue did not clear the queue")
	}
	if r.queueCleared != cleared+1 {
		t.Error("queue cleared notification missing")
	}
	if len(moveRun.runs) != 1 {
		t.Errorf("runs = %d, reissue of the identical order must not restart it", len(moveRun.runs))
	}
	if len(r.ended) != 0 {
		t.Errorf("ended = %v, want none", r.ended)
	}
}

func TestIssueOrderQueuesBehindUncancelableOrder(t *testing.T) {
	r := newRig(t)
	chanRun := &scriptedRun{}
	moveRun := &scriptedRun{}
	r.register(t, "channel", &struct{ Policy }{Policy{Process: domain.ProcessCanNotBeCanceled, Run: chanRun.run}})
	r.register(t, "move", NewMoveOrder(moveRun.run))

	dc := domain.NewOrder("channel")
	if err := r.ctrl.IssueOrder(dc); err != nil {
		t.Fatal(err)
	}

	dm := domain.NewLocationOrder("move", orb.Point{100, 0})
	if err := r.ctrl.IssueOrder(dm); err != nil {
		t.Fatal(err)
	}
	if !r.ctrl.CurrentOrder().Equal(dc) {
		t.Fatal("uncancelable order was replaced")
	}
	if q := r.ctrl.Queue(); len(q) != 1 || !q[0].Equal(dm) {
		t.Fatalf("queue = %v, want [%v]", q, dm)
	}

	chanRun.last(t).cb(domain.OrderSucceeded)
	if !r.ctrl.CurrentOrder().Equal(dm) {
		t.Errorf("current = %v, want %v after channel finished", r.ctrl.CurrentOrder(), dm)
	}
	if len(moveRun.runs) != 1 {
		t.Errorf("move runs = %d, want 1", len(moveRun.runs))
	}
}

func TestInstantOrderBypassesLifecycle(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	instRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))
	r.register(t, "rally", &struct{ Policy }{Policy{Process: domain.ProcessInstant, Run: instRun.run}})

	dm := domain.NewLocationOrder("move", orb.Point{100, 0})
	if err := r.ctrl.IssueOrder(dm); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.IssueOrder(domain.NewOrder("rally")); err != nil {
		t.Fatal(err)
	}

	if len(instRun.runs) != 1 {
		t.Fatalf("instant runs = %d, want 1", len(instRun.runs))
	}
	if instRun.last(t).cb != nil {
		t.Error("instant order received a result callback")
	}
	if !r.ctrl.CurrentOrder().Equal(dm) {
		t.Errorf("current = %v, instant order must not replace it", r.ctrl.CurrentOrder())
	}
	if len(r.ended) != 0 {
		t.Errorf("ended = %v, want none", r.ended)
	}
}

func TestTagAbortOnBlockedSourceTag(t *testing.T) {
	r := newRig(t)
	run := &scriptedRun{}
	r.register(t, "patrol", &struct{ Policy }{Policy{
		Requirements: tags.Requirements{
			SourceBlocked: tags.NewSet(tags.StatusChangingImmobilized),
		},
		Run: run.run,
	}})

	d := domain.NewOrder("patrol")
	if err := r.ctrl.IssueOrder(d); err != nil {
		t.Fatal(err)
	}

	r.agent.Tags().Add(tags.StatusChangingImmobilized)

	if len(r.ended) != 1 || r.ended[0].result != domain.OrderCanceled {
		t.Fatalf("ended = %v, want canceled patrol", r.ended)
	}
	if !r.ctrl.IsIdle() {
		t.Errorf("current = %v, want stop order", r.ctrl.CurrentOrder())
	}
	if got := r.agent.Tags().ListenerCount(); got != 0 {
		t.Errorf("leaked %d tag listeners", got)
	}
	if len(r.stopRun.runs) != 1 {
		t.Errorf("stop runs = %d, want 1", len(r.stopRun.runs))
	}
}

func TestTagAbortOnLostRequiredSourceTag(t *testing.T) {
	r := newRig(t)
	run := &scriptedRun{}
	r.register(t, "scan", &struct{ Policy }{Policy{
		Requirements: tags.Requirements{
			SourceRequired: tags.NewSet(tags.StatusChangingDetector),
		},
		Run: run.run,
	}})

	r.agent.Tags().Add(tags.StatusChangingDetector)
	if err := r.ctrl.IssueOrder(domain.NewOrder("scan")); err != nil {
		t.Fatal(err)
	}

	r.agent.Tags().Remove(tags.StatusChangingDetector)

	if len(r.ended) != 1 || r.ended[0].result != domain.OrderCanceled {
		t.Fatalf("ended = %v, want canceled scan", r.ended)
	}
	if !r.ctrl.IsIdle() {
		t.Error("controller did not fall back to stop")
	}
}

func TestCanceledOrderReclassifiedAsSuccess(t *testing.T) {
	r := newRig(t)
	atkRun := &scriptedRun{}
	moveRun := &scriptedRun{}
	r.register(t, "attack", &struct{ Policy }{Policy{
		Target: domain.TargetActor,
		Requirements: tags.Requirements{
			TargetRequired: tags.NewSet(tags.StatusChangingAlive),
		},
		SuccessRequirements: tags.Requirements{
			TargetBlocked: tags.NewSet(tags.StatusChangingAlive),
		},
		Run: atkRun.run,
	}})
	r.register(t, "move", NewMoveOrder(moveRun.run))

	target := newTestAgent("t1", orb.Point{50, 0}, tags.StatusChangingAlive)
	r.world["t1"] = target

	da := domain.NewTargetedOrder("attack", "t1")
	if err := r.ctrl.IssueOrder(da); err != nil {
		t.Fatal(err)
	}
	dm := domain.NewLocationOrder("move", orb.Point{100, 0})
	if err := r.ctrl.EnqueueOrder(dm); err != nil {
		t.Fatal(err)
	}

	// The target dies: the required tag vanishing cancels the order, and
	// the success requirements promote the cancellation to a success.
	target.Tags().Remove(tags.StatusChangingAlive)

	if len(r.ended) != 1 || r.ended[0].result != domain.OrderSucceeded || !r.ended[0].order.Equal(da) {
		t.Fatalf("ended = %v, want succeeded attack", r.ended)
	}
	if !r.ctrl.CurrentOrder().Equal(dm) {
		t.Errorf("current = %v, want the queued move to resume", r.ctrl.CurrentOrder())
	}
	if target.Tags().ListenerCount() != 0 {
		t.Error("leaked target tag listeners")
	}
}

func TestQueuePopRevalidatesOrders(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	scanRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))
	r.register(t, "scan", &struct{ Policy }{Policy{
		Requirements: tags.Requirements{
			SourceRequired: tags.NewSet(tags.StatusChangingDetector),
		},
		Run: scanRun.run,
	}})

	r.agent.Tags().Add(tags.StatusChangingDetector)

	dm1 := domain.NewLocationOrder("move", orb.Point{100, 0})
	ds := domain.NewOrder("scan")
	dm2 := domain.NewLocationOrder("move", orb.Point{200, 0})
	if err := r.ctrl.IssueOrder(dm1); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.EnqueueOrder(ds); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.EnqueueOrder(dm2); err != nil {
		t.Fatal(err)
	}

	// The queued scan becomes invalid before its turn.
	r.agent.Tags().Remove(tags.StatusChangingDetector)

	moveRun.last(t).cb(domain.OrderSucceeded)

	// An invalid head takes the rest of the queue down with it.
	if !r.ctrl.CurrentOrder().Equal(domain.NewOrder("stop")) {
		t.Errorf("current = %v, want stop after stale queue head", r.ctrl.CurrentOrder())
	}
	if len(scanRun.runs) != 0 {
		t.Error("stale queued order was executed")
	}
	if len(r.ctrl.Queue()) != 0 {
		t.Errorf("queue = %v, want empty", r.ctrl.Queue())
	}
}

func TestQueueValidHeadObeyedAfterSuccess(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	dm1 := domain.NewLocationOrder("move", orb.Point{100, 0})
	dm2 := domain.NewLocationOrder("move", orb.Point{200, 0})
	if err := r.ctrl.IssueOrder(dm1); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.EnqueueOrder(dm2); err != nil {
		t.Fatal(err)
	}

	moveRun.last(t).cb(domain.OrderSucceeded)

	if !r.ctrl.CurrentOrder().Equal(dm2) {
		t.Errorf("current = %v, want %v", r.ctrl.CurrentOrder(), dm2)
	}
	if len(moveRun.runs) != 2 {
		t.Errorf("move runs = %d, want 2", len(moveRun.runs))
	}
	if len(r.ctrl.Queue()) != 0 {
		t.Errorf("queue = %v, want empty", r.ctrl.Queue())
	}
}

// releaseOrder counts the strategy cancel notifications it receives.
type releaseOrder struct {
	Policy
	canceled int
}

func (o *releaseOrder) Canceled(Agent, TargetData, int) { o.canceled++ }

func TestFailedOrderGetsStrategyCancelCall(t *testing.T) {
	r := newRig(t)
	run := &scriptedRun{}
	o := &releaseOrder{Policy: Policy{Run: run.run}}
	r.register(t, "escort", o)

	if err := r.ctrl.IssueOrder(domain.NewOrder("escort")); err != nil {
		t.Fatal(err)
	}
	run.last(t).cb(domain.OrderFailed)

	if o.canceled != 1 {
		t.Errorf("canceled calls = %d, want 1", o.canceled)
	}
	if !r.ctrl.IsIdle() {
		t.Errorf("current = %v, want stop after the failure", r.ctrl.CurrentOrder())
	}
	if len(r.ended) != 1 || r.ended[0].result != domain.OrderFailed {
		t.Errorf("ended = %v, want one failure", r.ended)
	}
}

func TestInsertOrderBeforeCurrentPinsHomeLocation(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	atkRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))
	r.register(t, "attack", &struct{ Policy }{Policy{Target: domain.TargetActor, Run: atkRun.run}})

	target := newTestAgent("t1", orb.Point{600, 0}, tags.StatusChangingAlive)
	r.world["t1"] = target

	dm := domain.NewLocationOrder("move", orb.Point{1000, 0})
	if err := r.ctrl.IssueOrder(dm); err != nil {
		t.Fatal(err)
	}
	if moveRun.last(t).home != (orb.Point{0, 0}) {
		t.Fatalf("move home = %v, want origin", moveRun.last(t).home)
	}

	// The agent has walked some distance when the interruption arrives.
	r.agent.loc = orb.Point{500, 0}

	da := domain.NewTargetedOrder("attack", "t1")
	if err := r.ctrl.InsertOrderBeforeCurrentOrder(da); err != nil {
		t.Fatal(err)
	}
	if !r.ctrl.CurrentOrder().Equal(da) {
		t.Fatalf("current = %v, want %v", r.ctrl.CurrentOrder(), da)
	}
	if atkRun.last(t).home != (orb.Point{500, 0}) {
		t.Errorf("attack home = %v, want the interruption point", atkRun.last(t).home)
	}
	if q := r.ctrl.Queue(); len(q) != 1 || !q[0].Equal(dm) {
		t.Fatalf("queue = %v, want the suspended move", q)
	}

	atkRun.last(t).cb(domain.OrderSucceeded)

	if !r.ctrl.CurrentOrder().Equal(dm) {
		t.Fatalf("current = %v, want the move resumed", r.ctrl.CurrentOrder())
	}
	if got := moveRun.last(t).home; got != (orb.Point{0, 0}) {
		t.Errorf("resumed move home = %v, want the original home", got)
	}
}

func TestEnqueueOrderWhenIdleObeysImmediately(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	dm := domain.NewLocationOrder("move", orb.Point{100, 0})
	if err := r.ctrl.EnqueueOrder(dm); err != nil {
		t.Fatal(err)
	}
	if !r.ctrl.CurrentOrder().Equal(dm) {
		t.Errorf("current = %v, want %v", r.ctrl.CurrentOrder(), dm)
	}
	if len(r.ctrl.Queue()) != 0 {
		t.Error("idle enqueue should not queue")
	}
}

func TestEnqueueOrderDropsDuplicateTail(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	if err := r.ctrl.IssueOrder(domain.NewLocationOrder("move", orb.Point{100, 0})); err != nil {
		t.Fatal(err)
	}
	dup := domain.NewLocationOrder("move", orb.Point{200, 0})
	if err := r.ctrl.EnqueueOrder(dup); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.EnqueueOrder(dup); err != nil {
		t.Fatal(err)
	}
	if len(r.ctrl.Queue()) != 1 {
		t.Errorf("queue = %v, want the duplicate dropped", r.ctrl.Queue())
	}
}

func TestEnqueueOrderRejectsInvalidOrder(t *testing.T) {
	r := newRig(t)

	err := r.ctrl.EnqueueOrder(domain.NewOrder("bogus"))
	if !errors.Is(err, domain.ErrOrderRejected) {
		t.Errorf("err = %v, want %v", err, domain.ErrOrderRejected)
	}
}

func TestFailedOrderFallsBackToStopAndDropsQueue(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	if err := r.ctrl.IssueOrder(domain.NewLocationOrder("move", orb.Point{100, 0})); err != nil {
		t.Fatal(err)
	}
	if err := r.ctrl.EnqueueOrder(domain.NewLocationOrder("move", orb.Point{200, 0})); err != nil {
		t.Fatal(err)
	}

	moveRun.last(t).cb(domain.OrderFailed)

	if !r.ctrl.IsIdle() {
		t.Errorf("current = %v, want stop", r.ctrl.CurrentOrder())
	}
	if len(r.ctrl.Queue()) != 0 {
		t.Error("failure should drop the queue")
	}
	if len(r.ended) != 1 || r.ended[0].result != domain.OrderFailed {
		t.Errorf("ended = %v, want a single failure", r.ended)
	}
}

func TestControllerWithoutAuthorityRejectsMutations(t *testing.T) {
	r := newRig(t)
	replica := NewController(r.agent, r.reg, r.world, NeutralRelationships{}, domain.NewOrder("stop"), false, testLogger())

	if err := replica.IssueOrder(domain.NewOrder("stop")); !errors.Is(err, domain.ErrNotAuthoritative) {
		t.Errorf("IssueOrder err = %v, want %v", err, domain.ErrNotAuthoritative)
	}
	if err := replica.ClearOrderQueue(); !errors.Is(err, domain.ErrNotAuthoritative) {
		t.Errorf("ClearOrderQueue err = %v, want %v", err, domain.ErrNotAuthoritative)
	}
}

func TestApplyReplicatedState(t *testing.T) {
	r := newRig(t)
	moveRun := &scriptedRun{}
	r.register(t, "move", NewMoveOrder(moveRun.run))

	replica := NewController(r.agent, r.reg, r.world, NeutralRelationships{}, domain.NewOrder("stop"), false, testLogger())

	var changed []domain.OrderDescriptor
	replica.Observe(Observer{
		OrderChanged: func(d domain.OrderDescriptor) { changed = append(changed, d) },
	})

	cur := domain.NewLocationOrder("move", orb.Point{100, 0})
	queued := domain.NewLocationOrder("move", orb.Point{200, 0})
	if err := replica.ApplyReplicatedState(cur, domain.NewOrder("stop"), []domain.OrderDescriptor{queued}); err != nil {
		t.Fatal(err)
	}

	if !replica.CurrentOrder().Equal(cur) {
		t.Errorf("current = %v, want %v", replica.CurrentOrder(), cur)
	}
	if q := replica.Queue(); len(q) != 1 || !q[0].Equal(queued) {
		t.Errorf("queue = %v, want [%v]", q, queued)
	}
	if len(changed) != 1 {
		t.Errorf("order changed notifications = %d, want 1", len(changed))
	}
	if len(moveRun.runs) != 0 {
		t.Error("replica must not execute orders")
	}

	if err := r.ctrl.ApplyReplicatedState(cur, cur, nil); !errors.Is(err, domain.ErrNotAuthoritative) {
		t.Errorf("authoritative apply err = %v, want %v", err, domain.ErrNotAuthoritative)
	}
}

func TestListenerHygieneAcrossReplacements(t *testing.T) {
	r := newRig(t)
	run := &scriptedRun{}
	r.register(t, "attack", &struct{ Policy }{Policy{
		Target: domain.TargetActor,
		Requirements: tags.Requirements{
			SourceBlocked:  tags.NewSet(tags.StatusChangingImmobilized),
			TargetRequired: tags.NewSet(tags.StatusChangingAlive),
		},
		Run: run.run,
	}})

	t1 := newTestAgent("t1", orb.Point{10, 0}, tags.StatusChangingAlive)
	t2 := newTestAgent("t2", orb.Point{20, 0}, tags.StatusChangingAlive)
	r.world["t1"], r.world["t2"] = t1, t2

	if err := r.ctrl.IssueOrder(domain.NewTargetedOrder("attack", "t1")); err != nil {
		t.Fatal(err)
	}
	if t1.Tags().ListenerCount() == 0 {
		t.Fatal("expected listeners on the first target")
	}

	if err := r.ctrl.IssueOrder(domain.NewTargetedOrder("attack", "t2")); err != nil {
		t.Fatal(err)
	}
	if t1.Tags().ListenerCount() != 0 {
		t.Error("listeners leaked on the replaced target")
	}
	if t2.Tags().ListenerCount() == 0 {
		t.Error("expected listeners on the new target")
	}

	run.last(t).cb(domain.OrderSucceeded)
	if t2.Tags().ListenerCount() != 0 {
		t.Error("listeners leaked after the order ended")
	}
	if r.agent.Tags().ListenerCount() != 0 {
		t.Error("listeners leaked on the agent")
	}
}

func TestCheckOrderReportsMissingTargetActor(t *testing.T) {
	r := newRig(t)
	r.register(t, "attack", &struct{ Policy }{Policy{Target: domain.TargetActor}})

	if r.ctrl.CheckOrder(domain.NewOrder("attack")) {
		t.Error("actor-targeted order without a target passed validation")
	}
	if r.ctrl.CheckOrder(domain.NewTargetedOrder("attack", "ghost")) {
		t.Error("actor-targeted order with an unknown target passed validation")
	}
}
