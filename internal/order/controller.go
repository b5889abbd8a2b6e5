package order

import (
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/tags"
)

// Observer receives lifecycle notifications from a Controller. All fields
// are optional. Callbacks run synchronously on the issuing goroutine.
type Observer struct {
	// OrderChanged fires whenever the current order is replaced,
	// including the replica path.
	OrderChanged func(current domain.OrderDescriptor)

	// OrderEnqueued fires when an order is appended or inserted into the
	// queue.
	OrderEnqueued func(order domain.OrderDescriptor)

	// QueueCleared fires when the queue is emptied wholesale.
	QueueCleared func()

	// QueueChanged fires on any queue content change with a copy of the
	// new queue, newest last.
	QueueChanged func(queue []domain.OrderDescriptor)

	// OrderEnded fires when the active order finishes, after the
	// cancel-to-success reclassification.
	OrderEnded func(order domain.OrderDescriptor, result domain.OrderResult)
}

// Controller runs the order lifecycle for a single agent: the current
// order, the pending queue, tag-driven aborts and the follow-up decisions
// when an order ends. It is not safe for concurrent use; the simulation
// drives every controller from its tick goroutine.
type Controller struct {
	agent     Agent
	registry  *Registry
	agents    AgentResolver
	rel       RelationshipResolver
	stop      domain.OrderDescriptor
	authority bool
	log       *slog.Logger

	current domain.OrderDescriptor
	last    domain.OrderDescriptor
	queue   []domain.OrderDescriptor

	// Home of the order being deferred, restored for the resumed order.
	homePinned  bool
	pinnedHome  orb.Point
	currentHome orb.Point

	ownerHandles  map[tags.Tag]tags.Handle
	targetHandles map[tags.Tag]tags.Handle
	targetCounter *tags.Counter

	// Invalidates result callbacks from executions this controller has
	// already moved past.
	obeyGen int

	observers []Observer
}

// NewController builds a controller for one agent. The stop descriptor is
// the fallback order obeyed whenever nothing else can run; it becomes the
// initial current order without being executed. Call Start to engage the
// idle execution strategy.
func NewController(agent Agent, registry *Registry, agents AgentResolver, rel RelationshipResolver, stop domain.OrderDescriptor, authority bool, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		agent:         agent,
		registry:      registry,
		agents:        agents,
		rel:           rel,
		stop:          stop,
		authority:     authority,
		log:           log.With("agent", agent.ID()),
		current:       stop,
		last:          stop,
		ownerHandles:  make(map[tags.Tag]tags.Handle),
		targetHandles: make(map[tags.Tag]tags.Handle),
	}
}

// Start engages the idle execution strategy for the initial stop order.
func (c *Controller) Start() {
	c.obeyStopOrder()
}

// Observe registers a lifecycle observer.
func (c *Controller) Observe(o Observer) {
	c.observers = append(c.observers, o)
}

func (c *Controller) Agent() Agent { return c.agent }

func (c *Controller) CurrentOrder() domain.OrderDescriptor { return c.current }

func (c *Controller) LastOrder() domain.OrderDescriptor { return c.last }

func (c *Controller) StopOrder() domain.OrderDescriptor { return c.stop }

// IsIdle reports whether the current order is the stop order.
func (c *Controller) IsIdle() bool { return c.current.Type == c.stop.Type }

// Queue returns a copy of the pending order queue, next-up first.
func (c *Controller) Queue() []domain.OrderDescriptor {
	out := make([]domain.OrderDescriptor, len(c.queue))
	copy(out, c.queue)
	return out
}

// HasAuthority reports whether this controller runs the authoritative
// lifecycle. Replicas only accept ApplyReplicatedState.
func (c *Controller) HasAuthority() bool { return c.authority }

// IssueOrder replaces the agent's orders with the given one. The queue is
// always cleared, even when the order turns out to be the current one
// already. How the active order yields depends on its process policy.
func (c *Controller) IssueOrder(d domain.OrderDescriptor) error {
	if !c.authority {
		c.log.Error("issue order without authority", "order", d.Type)
		return domain.ErrNotAuthoritative.WithDetail(string(d.Type))
	}

	c.queue = nil
	c.notifyQueueCleared()
	c.notifyQueueChanged()

	if c.current.Equal(d) {
		return nil
	}

	c.homePinned = false

	if c.current.Type != c.stop.Type && c.registry.ProcessPolicyOf(d.Type, c.agent, d.Index) != domain.ProcessInstant {
		switch c.registry.ProcessPolicyOf(c.current.Type, c.agent, c.current.Index) {
		case domain.ProcessCanBeCanceled:
			c.orderCanceled()
			if c.CheckOrder(d) {
				c.obey(d)
			} else {
				c.obeyStopOrder()
			}
		case domain.ProcessCanNotBeCanceled:
			c.queue = append(c.queue, d)
			c.notifyOrderEnqueued(d)
			c.notifyQueueChanged()
		case domain.ProcessInstant:
			// Instant orders never become the current order.
			c.log.Error("instant order is current", "order", c.current.Type)
		}
		return nil
	}

	if c.CheckOrder(d) {
		c.obey(d)
	} else {
		c.obeyStopOrder()
	}
	return nil
}

// EnqueueOrder appends an order to the queue, or obeys it immediately when
// the agent is idle with an empty queue. Orders that fail validation are
// dropped.
func (c *Controller) EnqueueOrder(d domain.OrderDescriptor) error {
	if !c.authority {
		c.log.Error("enqueue order without authority", "order", d.Type)
		return domain.ErrNotAuthoritative.WithDetail(string(d.Type))
	}

	if !c.CheckOrder(d) {
		return domain.ErrOrderRejected.WithDetail(string(d.Type))
	}

	if len(c.queue) == 0 && c.IsIdle() {
		c.obey(d)
		return nil
	}

	if n := len(c.queue); n > 0 && c.queue[n-1].Equal(d) {
		return nil
	}

	c.queue = append(c.queue, d)
	c.notifyOrderEnqueued(d)
	c.notifyQueueChanged()
	return nil
}

// InsertOrderAfterCurrentOrder puts an order at the head of the queue so it
// runs once the current order finishes. When the agent is idle it is
// obeyed immediately instead.
func (c *Controller) InsertOrderAfterCurrentOrder(d domain.OrderDescriptor) error {
	if !c.authority {
		c.log.Error("insert order without authority", "order", d.Type)
		return domain.ErrNotAuthoritative.WithDetail(string(d.Type))
	}

	if !c.CheckOrder(d) {
		return domain.ErrOrderRejected.WithDetail(string(d.Type))
	}

	if len(c.queue) == 0 && c.IsIdle() {
		c.obey(d)
		return nil
	}

	c.homePinned = false
	c.queue = append([]domain.OrderDescriptor{d}, c.queue...)
	c.notifyOrderEnqueued(d)
	c.notifyQueueChanged()
	return nil
}

// InsertOrderBeforeCurrentOrder suspends the current order, runs the given
// one now and resumes the suspended order afterwards with its original
// home location.
func (c *Controller) InsertOrderBeforeCurrentOrder(d domain.OrderDescriptor) error {
	if !c.authority {
		c.log.Error("insert order without authority", "order", d.Type)
		return domain.ErrNotAuthoritative.WithDetail(string(d.Type))
	}

	if !c.CheckOrder(d) {
		return domain.ErrOrderRejected.WithDetail(string(d.Type))
	}

	if c.current.Type != c.stop.Type {
		c.queue = append([]domain.OrderDescriptor{c.current}, c.queue...)
		c.notifyQueueChanged()
	}

	resumeHome := c.currentHome
	c.obey(d)
	c.pinnedHome = resumeHome
	c.homePinned = true
	return nil
}

// ClearOrderQueue drops every pending order. The current order is not
// affected.
func (c *Controller) ClearOrderQueue() error {
	if !c.authority {
		c.log.Error("clear queue without authority")
		return domain.ErrNotAuthoritative.WithDetail("clear queue")
	}

	c.queue = nil
	c.notifyQueueCleared()
	c.notifyQueueChanged()
	return nil
}

// CheckOrder verifies that the order resolves, the agent can obey it and
// its target is valid. Failures are logged with the tag explanation.
func (c *Controller) CheckOrder(d domain.OrderDescriptor) bool {
	if d.IsZero() {
		return false
	}
	if c.registry.Resolve(d.Type) == nil {
		c.log.Error("unknown order type", "order", d.Type)
		return false
	}

	var errs tags.ErrorTags
	if !c.registry.CanObeyOrder(d.Type, c.agent, d.Index, &errs) {
		c.log.Warn("agent cannot obey order", "order", d.Type, "reason", errs.String())
		return false
	}

	td := c.buildTargetData(d)
	errs = tags.ErrorTags{}
	if !c.registry.IsValidTarget(d.Type, c.agent, td, d.Index, &errs) {
		c.log.Warn("invalid order target", "order", d.Type, "reason", errs.String())
		return false
	}
	return true
}

// OrderEnded is the single entry point for finishing the current order,
// whether the execution strategy reported a result or a tag listener
// aborted it.
func (c *Controller) OrderEnded(result domain.OrderResult) {
	switch result {
	case domain.OrderFailed:
		c.notifyOrderEnded(c.current, result)
		c.endAndStop()

	case domain.OrderCanceled:
		td := c.buildTargetData(c.current)
		if c.registry.CanBeConsideredSucceeded(c.current.Type, c.agent, td, c.current.Index) {
			c.notifyOrderEnded(c.current, domain.OrderSucceeded)
			c.obeyNextOrder()
			return
		}
		c.notifyOrderEnded(c.current, result)
		c.endAndStop()

	case domain.OrderSucceeded:
		c.notifyOrderEnded(c.current, result)
		c.obeyNextOrder()
	}
}

// endAndStop drops the queue after a failed or canceled order and falls
// back to the stop order. The outgoing order's strategy still gets its
// Canceled call so it can release whatever it holds.
func (c *Controller) endAndStop() {
	c.queue = nil
	c.notifyQueueCleared()
	c.notifyQueueChanged()
	if c.current.Type != c.stop.Type {
		if o := c.registry.Resolve(c.current.Type); o != nil {
			o.Canceled(c.agent, c.buildTargetData(c.current), c.current.Index)
		}
	}
	c.obeyStopOrder()
}

// obeyNextOrder re-validates the queue head and obeys it. A head that no
// longer passes validation invalidates the whole queue; everything is
// dropped and the agent falls back to the stop order.
func (c *Controller) obeyNextOrder() {
	if len(c.queue) > 0 {
		next := c.queue[0]
		if c.CheckOrder(next) {
			c.queue = c.queue[1:]
			c.notifyQueueChanged()
			c.obey(next)
			return
		}
		c.log.Warn("queued order no longer valid, clearing queue", "order", next.Type)
		c.queue = nil
		c.notifyQueueCleared()
		c.notifyQueueChanged()
	}
	c.obeyStopOrder()
}

func (c *Controller) obeyStopOrder() {
	c.obey(c.stop)
}

// obey makes d the current order and starts its execution strategy.
// Instant orders fire without touching the current order or the tag
// listeners.
func (c *Controller) obey(d domain.OrderDescriptor) {
	td := c.buildTargetData(d)

	home := c.agent.Location()
	if c.homePinned {
		home = c.pinnedHome
		c.homePinned = false
	}

	o := c.registry.Resolve(d.Type)
	if o == nil {
		c.log.Error("obey unresolved order type", "order", d.Type)
		if d.Type != c.stop.Type {
			c.obeyStopOrder()
		}
		return
	}

	if o.ProcessPolicy(c.agent, d.Index) == domain.ProcessInstant {
		o.Issue(c.agent, td, d.Index, nil, home)
		return
	}

	c.unregisterTagListeners()
	c.setCurrent(d)
	c.currentHome = home

	if d.Type != c.stop.Type {
		c.registerTagListeners(d, td)
	}

	c.obeyGen++
	gen := c.obeyGen
	o.Issue(c.agent, td, d.Index, func(result domain.OrderResult) {
		if gen != c.obeyGen {
			return
		}
		c.OrderEnded(result)
	}, home)
}

func (c *Controller) setCurrent(d domain.OrderDescriptor) {
	c.last = c.current
	c.current = d
	for _, o := range c.observers {
		if o.OrderChanged != nil {
			o.OrderChanged(d)
		}
	}
}

// orderCanceled tells the active order it is being replaced before the new
// order takes over.
func (c *Controller) orderCanceled() {
	o := c.registry.Resolve(c.current.Type)
	if o == nil {
		return
	}
	td := c.buildTargetData(c.current)
	o.Canceled(c.agent, td, c.current.Index)
	c.notifyOrderEnded(c.current, domain.OrderCanceled)
}

func (c *Controller) buildTargetData(d domain.OrderDescriptor) TargetData {
	var target Agent
	if d.Target != "" && c.agents != nil {
		target = c.agents.AgentByID(d.Target)
	}
	return BuildTargetData(c.rel, c.agent, target, d.Location)
}

// registerTagListeners watches every changeable tag the current order's
// requirements mention, on the agent and on the target, so the order can
// abort the moment a gate flips. Permanent tags are skipped.
func (c *Controller) registerTagListeners(d domain.OrderDescriptor, td TargetData) {
	req := c.registry.TagRequirementsOf(d.Type, c.agent, d.Index)
	visibilityGated := req.TargetRequired.Has(tags.RelationshipVisible)

	listenOwner := func(t tags.Tag) {
		if t.IsPermanent() {
			return
		}
		if _, ok := c.ownerHandles[t]; ok {
			return
		}
		c.ownerHandles[t] = c.agent.Tags().Listen(t, c.onOwnerTagChanged)
	}
	for t := range req.SourceRequired {
		listenOwner(t)
	}
	for t := range req.SourceBlocked {
		listenOwner(t)
	}
	if visibilityGated {
		// Losing detection can hide the target again.
		listenOwner(tags.StatusChangingDetector)
	}

	if td.Actor == nil {
		return
	}
	c.targetCounter = td.Actor.Tags()

	listenTarget := func(t tags.Tag) {
		if t.IsPermanent() || t == tags.RelationshipVisible {
			return
		}
		if _, ok := c.targetHandles[t]; ok {
			return
		}
		c.targetHandles[t] = c.targetCounter.Listen(t, c.onTargetTagChanged)
	}
	for t := range req.TargetRequired {
		listenTarget(t)
	}
	for t := range req.TargetBlocked {
		listenTarget(t)
	}
	if visibilityGated {
		listenTarget(tags.StatusChangingStealthed)
	}
}

func (c *Controller) unregisterTagListeners() {
	for _, h := range c.ownerHandles {
		c.agent.Tags().Unlisten(h)
	}
	clear(c.ownerHandles)

	if c.targetCounter != nil {
		for _, h := range c.targetHandles {
			c.targetCounter.Unlisten(h)
		}
		c.targetCounter = nil
	}
	clear(c.targetHandles)
}

func (c *Controller) onOwnerTagChanged(t tags.Tag, count int) {
	req := c.registry.TagRequirementsOf(c.current.Type, c.agent, c.current.Index)

	if count > 0 && req.SourceBlocked.Has(t) {
		c.OrderEnded(domain.OrderCanceled)
		return
	}
	if count == 0 && req.SourceRequired.Has(t) {
		c.OrderEnded(domain.OrderCanceled)
		return
	}
	if count == 0 && t == tags.StatusChangingDetector && req.TargetRequired.Has(tags.RelationshipVisible) {
		c.abortIfTargetHidden()
	}
}

func (c *Controller) onTargetTagChanged(t tags.Tag, count int) {
	req := c.registry.TagRequirementsOf(c.current.Type, c.agent, c.current.Index)

	if count > 0 && req.TargetBlocked.Has(t) {
		c.OrderEnded(domain.OrderCanceled)
		return
	}
	if count == 0 && req.TargetRequired.Has(t) {
		c.OrderEnded(domain.OrderCanceled)
		return
	}
	if count > 0 && t == tags.StatusChangingStealthed && req.TargetRequired.Has(tags.RelationshipVisible) {
		c.abortIfTargetHidden()
	}
}

// abortIfTargetHidden re-resolves visibility of the current target and
// cancels the order when the agent no longer sees it.
func (c *Controller) abortIfTargetHidden() {
	if c.current.Target == "" || c.agents == nil || c.rel == nil {
		return
	}
	target := c.agents.AgentByID(c.current.Target)
	if target == nil {
		c.OrderEnded(domain.OrderCanceled)
		return
	}
	if !c.rel.Visible(c.agent, target) {
		c.OrderEnded(domain.OrderCanceled)
	}
}

// ApplyReplicatedState overwrites the lifecycle state on a non-authority
// controller and replays the presentation notifications. Authoritative
// controllers reject it.
func (c *Controller) ApplyReplicatedState(current, last domain.OrderDescriptor, queue []domain.OrderDescriptor) error {
	if c.authority {
		c.log.Error("replicated state on authoritative controller")
		return domain.ErrNotAuthoritative.WithDetail("replicated state rejected")
	}

	changed := !c.current.Equal(current)
	c.last = last
	c.current = current
	c.queue = make([]domain.OrderDescriptor, len(queue))
	copy(c.queue, queue)

	if changed {
		for _, o := range c.observers {
			if o.OrderChanged != nil {
				o.OrderChanged(current)
			}
		}
	}
	c.notifyQueueChanged()
	return nil
}

func (c *Controller) notifyOrderEnded(d domain.OrderDescriptor, result domain.OrderResult) {
	for _, o := range c.observers {
		if o.OrderEnded != nil {
			o.OrderEnded(d, result)
		}
	}
}

func (c *Controller) notifyOrderEnqueued(d domain.OrderDescriptor) {
	for _, o := range c.observers {
		if o.OrderEnqueued != nil {
			o.OrderEnqueued(d)
		}
	}
}

func (c *Controller) notifyQueueCleared() {
	for _, o := range c.observers {
		if o.QueueCleared != nil {
			o.QueueCleared()
		}
	}
}

func (c *Controller) notifyQueueChanged() {
	var snapshot []domain.OrderDescriptor
	for _, o := range c.observers {
		if o.QueueChanged != nil {
			if snapshot == nil {
				snapshot = c.Queue()
			}
			o.QueueChanged(snapshot)
		}
	}
}
