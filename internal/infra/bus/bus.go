// Package bus is the in-process change notification channel. The session
// controller publishes an event immediately after every profile cache
// write; in-process consumers and the SSE endpoint (which relays events
// to other open dashboard tabs) both subscribe here, so same-view and
// cross-view consumers see the same stream.
package bus

import (
	"sync"
	"time"
)

// Event kinds.
const (
	KindProfileUpdated     = "profile_updated"
	KindSessionEnded       = "session_ended"
	KindPreferencesUpdated = "preferences_updated"
)

// Event describes a change to cached session state. It carries only the
// change kind and the owning user; consumers re-read the cache and
// recompute their derived state. In-flight form state is never touched.
type Event struct {
	Kind   string    `json:"kind"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber that cannot keep up loses events rather than stalling the
// writer, which is acceptable because consumers re-read state anyway.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a consumer and returns its channel plus a release
// function. The release function must be called when the consumer goes
// away (on unmount/disconnect) or the subscription leaks.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	release := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
	return ch, release
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// subscriber is lagging; drop rather than block the writer
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
