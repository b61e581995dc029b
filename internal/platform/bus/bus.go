// Package bus provides the in-process change-notification channel shared by
// the record stores. Writers publish an advisory event on a topic after every
// persisted change; subscribers treat the event as "invalidate and reload",
// never as a delta.
package bus

import (
	"sync"
	"time"
)

// Event is the advisory payload carried on a topic. Recipients must not trust
// it beyond "something changed": they always reload full state.
type Event struct {
	Type    string    `json:"type"`
	Topic   string    `json:"topic"`
	Version int       `json:"version"`
	At      time.Time `json:"at"`

	// Source identifies the publisher so it can recognize its own events on
	// a topic it also subscribes to. Process-local, never serialized.
	Source any `json:"-"`
}

// Handler receives events for a subscribed topic.
type Handler func(Event)

type subscription struct {
	topic   string
	handler Handler
}

// Bus is a topic-keyed publish/subscribe hub. All operations are safe for
// concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe registers handler for topic and returns an unsubscribe function.
// The returned function is idempotent: calling it more than once is a no-op
// after the first call.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	sub := &subscription{topic: topic, handler: handler}

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*subscription]struct{})
	}
	b.subs[topic][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subs[topic]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(b.subs, topic)
				}
			}
			b.mu.Unlock()
		})
	}
}

// Publish delivers event to every handler subscribed to its topic. Handlers
// run synchronously on the caller's goroutine, in unspecified order.
func (b *Bus) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	set := b.subs[event.Topic]
	handlers := make([]Handler, 0, len(set))
	for sub := range set {
		handlers = append(handlers, sub.handler)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns the number of handlers subscribed to topic.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
