package ipc

import (
	"sync"

	"github.com/cadre-games/ordercore/internal/domain"
)

const feedBuffer = 256

// Feed fans recorded order events out to websocket subscribers. Slow
// subscribers lose events rather than stalling the publisher.
type Feed struct {
	mu   sync.Mutex
	subs map[chan domain.OrderEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan domain.OrderEvent]struct{})}
}

// Publish delivers the event to every subscriber without blocking.
func (f *Feed) Publish(e domain.OrderEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (f *Feed) Subscribe() (<-chan domain.OrderEvent, func()) {
	ch := make(chan domain.OrderEvent, feedBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports the current subscriber count.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
