package wizard

import (
	"context"
	"sync"
)

type EventKind string

const (
	EventSitePlanOwnersUpdated EventKind = "siteplan-owners-updated"
	EventLicenseUpdated        EventKind = "license-updated"
	EventContractUpdated       EventKind = "contract-updated"
	EventAwardingUpdated       EventKind = "awarding-updated"
)

// Event announces that a step saved one of a project's sub-resources.
type Event struct {
	Kind      EventKind `json:"kind"`
	ProjectID int64     `json:"project_id"`
}

type Handler func(ctx context.Context, e Event)

// Bus delivers events synchronously to every subscriber in the publishing
// goroutine. Subscribers only learn that something changed and re-read the
// state they own.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]subscription
}

type subscription struct {
	kinds   map[EventKind]struct{}
	handler Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registers h for the given kinds, or for every kind when none are
// listed. The returned function removes the subscription.
func (b *Bus) Subscribe(h Handler, kinds ...EventKind) func() {
	sub := subscription{handler: h}
	if len(kinds) > 0 {
		sub.kinds = make(map[EventKind]struct{}, len(kinds))
		for _, k := range kinds {
			sub.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.kinds != nil {
			if _, ok := sub.kinds[e.Kind]; !ok {
				continue
			}
		}
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, e)
	}
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
