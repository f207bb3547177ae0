// Package events is the in-process signal path between the progress recorder
// and any live availability views. Subscribers are notified after the write
// that produced the event has been acknowledged, so a recompute that re-reads
// the store always observes the completion it was told about.
package events

import "sync"

type ItemKind string

const (
	KindTest   ItemKind = "test"
	KindCourse ItemKind = "course"
)

// Completion announces that a student finished one playlist item.
type Completion struct {
	PlaylistID string
	StudentID  string
	ItemID     string
	Kind       ItemKind
}

type Handler func(Completion)

// Bus is a minimal typed publish/subscribe registry. Delivery is synchronous;
// handlers must not block.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]Handler
}

func NewBus() *Bus {
	return &Bus{subs: map[int]Handler{}}
}

// Subscribe registers h and returns an unsubscribe func.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(c Completion) {
	b.mu.RLock()
	hs := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		hs = append(hs, h)
	}
	b.mu.RUnlock()
	for _, h := range hs {
		h(c)
	}
}
