package eventbus

import "sync"

// Topic names a notification, e.g. "add window" or "before remove monitor".
type Topic string

// Handler receives the payload published on a topic.
type Handler func(payload any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers notifications synchronously, in subscription order, on the
// publishing goroutine. Handlers may publish or subscribe re-entrantly.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[Topic][]subscription
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers handler for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[topic]
		for i, s := range subs {
			if s.id == id {
				b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every handler subscribed to topic before returning.
func (b *Bus) Publish(topic Topic, payload any) {
	b.mu.Lock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(payload)
	}
}

// On subscribes a typed handler. Payloads of any other type are skipped.
func On[T any](b *Bus, topic Topic, fn func(T)) (unsubscribe func()) {
	return b.Subscribe(topic, func(payload any) {
		if v, ok := payload.(T); ok {
			fn(v)
		}
	})
}
