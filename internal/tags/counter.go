package tags

// ListenerFunc is invoked when a tag's count transitions between zero and
// non-zero. newCount is the count after the change.
type ListenerFunc func(tag Tag, newCount int)

// Handle identifies one registered listener so it can be removed again.
// The zero value is not a valid handle.
type Handle struct {
	tag Tag
	id  int
}

// Tag returns the tag the handle listens on.
func (h Handle) Tag() Tag {
	return h.tag
}

// Counter is a counted tag container: the capability-tag holder of one
// agent. Tags are reference counted so several effects can grant the same
// tag; a tag is "owned" while its count is positive. Listeners fire
// synchronously on the zero/non-zero edge, within the mutation call.
//
// Counter is not safe for concurrent use; the simulation is
// single-threaded per authority instance.
type Counter struct {
	counts    map[Tag]int
	listeners map[Tag]map[int]ListenerFunc
	nextID    int
}

// NewCounter creates a Counter seeded with the given tags at count 1.
func NewCounter(initial ...Tag) *Counter {
	c := &Counter{
		counts:    make(map[Tag]int),
		listeners: make(map[Tag]map[int]ListenerFunc),
	}
	for _, t := range initial {
		c.counts[t]++
	}
	return c
}

// Has reports whether the tag count is positive.
func (c *Counter) Has(t Tag) bool {
	return c.counts[t] > 0
}

// Count returns the current count of the tag.
func (c *Counter) Count(t Tag) int {
	return c.counts[t]
}

// Owned returns a snapshot set of all tags with a positive count.
func (c *Counter) Owned() Set {
	out := make(Set, len(c.counts))
	for t, n := range c.counts {
		if n > 0 {
			out.Add(t)
		}
	}
	return out
}

// Add increments the tag count, firing listeners when it becomes non-zero.
func (c *Counter) Add(t Tag) {
	c.counts[t]++
	if c.counts[t] == 1 {
		c.notify(t, 1)
	}
}

// Remove decrements the tag count, firing listeners when it reaches zero.
// Removing an absent tag is a no-op.
func (c *Counter) Remove(t Tag) {
	if c.counts[t] == 0 {
		return
	}
	c.counts[t]--
	if c.counts[t] == 0 {
		delete(c.counts, t)
		c.notify(t, 0)
	}
}

// SetPresent forces the tag to be present or absent regardless of its
// current count.
func (c *Counter) SetPresent(t Tag, present bool) {
	if present && !c.Has(t) {
		c.Add(t)
	}
	if !present && c.Has(t) {
		c.counts[t] = 1
		c.Remove(t)
	}
}

// Listen registers fn for zero/non-zero transitions of the tag and returns
// a handle for removal. Every registration must be matched by exactly one
// Unlisten on every exit path; leaked handles fire stale callbacks.
func (c *Counter) Listen(t Tag, fn ListenerFunc) Handle {
	c.nextID++
	id := c.nextID
	if c.listeners[t] == nil {
		c.listeners[t] = make(map[int]ListenerFunc)
	}
	c.listeners[t][id] = fn
	return Handle{tag: t, id: id}
}

// Unlisten removes a previously registered listener. Unknown handles are
// ignored.
func (c *Counter) Unlisten(h Handle) {
	if m, ok := c.listeners[h.tag]; ok {
		delete(m, h.id)
		if len(m) == 0 {
			delete(c.listeners, h.tag)
		}
	}
}

// ListenerCount returns the number of registered listeners across all tags.
func (c *Counter) ListenerCount() int {
	n := 0
	for _, m := range c.listeners {
		n += len(m)
	}
	return n
}

func (c *Counter) notify(t Tag, newCount int) {
	m := c.listeners[t]
	if len(m) == 0 {
		return
	}
	// Listeners may register or unregister during the callback (an order
	// abort swaps the current order's listeners); iterate over a copy.
	fns := make([]ListenerFunc, 0, len(m))
	for _, fn := range m {
		fns = append(fns, fn)
	}
	for _, fn := range fns {
		fn(t, newCount)
	}
}
