package nav

import (
	"sync"
	"time"
)

type EventType string

const (
	EventUpdated EventType = "nav_updated"
	EventCleared EventType = "nav_cleared"
)

type Event struct {
	Type       EventType `json:"type"`
	Session    string    `json:"session"`
	Generation uint64    `json:"generation"`
	State      string    `json:"state"`
	At         time.Time `json:"at"`
}

// EventBroker fans session events out to subscribers. A subscriber that falls
// behind misses events instead of blocking publishers.
type EventBroker struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
	size int
}

func NewEventBroker(size int) *EventBroker {
	if size <= 0 {
		size = 8
	}
	return &EventBroker{subs: make(map[string]map[chan Event]struct{}), size: size}
}

// Subscribe registers a channel for session's events. The returned func
// unregisters and closes it.
func (b *EventBroker) Subscribe(session string) (<-chan Event, func()) {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	set, ok := b.subs[session]
	if !ok {
		set = make(map[chan Event]struct{})
		b.subs[session] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subs[session]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(b.subs, session)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *EventBroker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[ev.Session] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many channels listen to session.
func (b *EventBroker) Subscribers(session string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[session])
}
