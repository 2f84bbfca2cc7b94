// Package event is the in-process notification channel between API surfaces:
// after a mutation lands, an event tells other subscribers to refetch. Purely
// in-memory, reset on process start, no delivery guarantees beyond "handlers
// registered at publish time run once".
package event

import "sync"

// Name identifies an event stream.
type Name string

const (
	TaskAdded   Name = "taskAdded"
	TaskUpdated Name = "taskUpdated"
	TaskDeleted Name = "taskDeleted"
)

// Payload carries the task that changed and every calendar day it touched
// (two for a move between dates).
type Payload struct {
	TaskID string
	Dates  []string
}

// Handler receives a published payload.
type Handler func(Payload)

// Bus is an observer registry owned by the composition root and handed to
// components that need it.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Name]map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Name]map[int]Handler)}
}

// Subscribe registers h for name and returns the function that removes it.
// Subscribers must unsubscribe before going away, or stale handlers keep
// firing.
func (b *Bus) Subscribe(name Name, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[name] == nil {
		b.subs[name] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[name][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[name], id)
	}
}

// Publish invokes every handler registered for name, synchronously, outside
// the registry lock so handlers may subscribe or unsubscribe.
func (b *Bus) Publish(name Name, p Payload) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[name]))
	for _, h := range b.subs[name] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(p)
	}
}
