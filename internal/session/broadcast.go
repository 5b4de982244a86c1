package session

import (
	"sync"

	"campusmantri/internal/model"
)

// EventType classifies an identity-change notification.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is pushed to subscribers whenever the authenticated identity
// changes. Identity is nil for sign-out.
type Event struct {
	Type     EventType
	Identity *model.Identity
}

// Broadcaster fans identity-change events out to subscribers. Publishing
// never blocks: a subscriber that cannot keep up misses events, which is
// acceptable because every consumer re-reads authoritative state on receipt
// anyway.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a new subscriber and returns its channel plus a cancel
// function. Cancel is safe to call more than once; cleanup happens exactly
// once and closes the channel.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber whose buffer has room.
func (b *Broadcaster) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default: // subscriber is behind; it will catch up on its next refresh
		}
	}
}
