// Package registry provides an insertion-ordered keyed container that
// announces its mutations on an event bus.
package registry

import (
	"fmt"

	"github.com/1broseidon/nwm/internal/eventbus"
)

// Registry maps keys to items, keeping insertion order for traversal.
//
// Every mutation is published on the bus under "<verb> <name>" topics:
// "add <name>" and "update <name>" carry the item, "before remove <name>"
// and "remove <name>" carry the key.
type Registry[K comparable, T any] struct {
	name  string
	bus   *eventbus.Bus
	keyOf func(T) K
	keys  []K
	items map[K]T

	// Factory, when set, constructs items for keys that are not present.
	Factory func(key K) T
}

// New creates a registry named name. keyOf extracts an item's key.
func New[K comparable, T any](bus *eventbus.Bus, name string, keyOf func(T) K) *Registry[K, T] {
	return &Registry[K, T]{
		name:  name,
		bus:   bus,
		keyOf: keyOf,
		items: make(map[K]T),
	}
}

// Name returns the collection name used in topics.
func (r *Registry[K, T]) Name() string { return r.name }

// TopicAdded returns the topic published after an item is added.
func (r *Registry[K, T]) TopicAdded() eventbus.Topic { return Topic("add", r.name) }

// TopicUpdated returns the topic published after an item is updated.
func (r *Registry[K, T]) TopicUpdated() eventbus.Topic { return Topic("update", r.name) }

// TopicBeforeRemove returns the topic published while the item still exists.
func (r *Registry[K, T]) TopicBeforeRemove() eventbus.Topic { return Topic("before remove", r.name) }

// TopicRemoved returns the topic published after the item is gone.
func (r *Registry[K, T]) TopicRemoved() eventbus.Topic { return Topic("remove", r.name) }

// Topic builds a registry topic name.
func Topic(verb, name string) eventbus.Topic {
	return eventbus.Topic(verb + " " + name)
}

// Add inserts item unless its key is already present.
func (r *Registry[K, T]) Add(item T) bool {
	key := r.keyOf(item)
	if _, ok := r.items[key]; ok {
		return false
	}
	r.insert(key, item)
	r.publish(r.TopicAdded(), item)
	return true
}

// Remove deletes every item for which keep returns false. For each deleted
// item "before remove" is published first, then the item is deleted, then
// "remove" is published.
func (r *Registry[K, T]) Remove(keep func(key K, item T) bool) int {
	removed := 0
	for _, key := range append([]K(nil), r.keys...) {
		item, ok := r.items[key]
		if !ok {
			// A listener removed it already.
			continue
		}
		if keep(key, item) {
			continue
		}
		r.publish(r.TopicBeforeRemove(), key)
		if r.delete(key) {
			removed++
		}
		r.publish(r.TopicRemoved(), key)
	}
	return removed
}

// RemoveKey deletes the item stored under key.
func (r *Registry[K, T]) RemoveKey(key K) bool {
	return r.Remove(func(k K, _ T) bool { return k != key }) > 0
}

// Update applies patch to the stored item and publishes "update". It is a
// no-op when key is absent.
func (r *Registry[K, T]) Update(key K, patch func(item T) T) bool {
	item, ok := r.items[key]
	if !ok {
		return false
	}
	item = patch(item)
	r.items[key] = item
	r.publish(r.TopicUpdated(), item)
	return true
}

// Exists reports whether key is present.
func (r *Registry[K, T]) Exists(key K) bool {
	_, ok := r.items[key]
	return ok
}

// Get returns the item under key. A missing key is constructed by Factory
// when one is configured, inserted and published as "add".
func (r *Registry[K, T]) Get(key K) (T, bool) {
	if item, ok := r.items[key]; ok {
		return item, true
	}
	if r.Factory == nil {
		var zero T
		return zero, false
	}
	item := r.Factory(key)
	r.insert(key, item)
	r.publish(r.TopicAdded(), item)
	return item, true
}

// Lookup returns the item under key without invoking Factory.
func (r *Registry[K, T]) Lookup(key K) (T, bool) {
	item, ok := r.items[key]
	return item, ok
}

// Len returns the number of items.
func (r *Registry[K, T]) Len() int { return len(r.keys) }

// Keys returns a copy of the keys in insertion order.
func (r *Registry[K, T]) Keys() []K {
	return append([]K(nil), r.keys...)
}

// Items returns the items in insertion order.
func (r *Registry[K, T]) Items() []T {
	out := make([]T, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, r.items[key])
	}
	return out
}

// Each calls fn for each item in insertion order until fn returns false.
func (r *Registry[K, T]) Each(fn func(key K, item T) bool) {
	for _, key := range r.Keys() {
		item, ok := r.items[key]
		if !ok {
			continue
		}
		if !fn(key, item) {
			return
		}
	}
}

// Next returns the key after id, wrapping to the first key. An unknown id
// yields the first key.
func (r *Registry[K, T]) Next(id K) (K, bool) {
	if len(r.keys) == 0 {
		var zero K
		return zero, false
	}
	pos := r.indexOf(id)
	if pos < 0 || pos+1 >= len(r.keys) {
		return r.keys[0], true
	}
	return r.keys[pos+1], true
}

// Prev returns the key before id, wrapping to the last key. An unknown id
// yields the last key.
func (r *Registry[K, T]) Prev(id K) (K, bool) {
	if len(r.keys) == 0 {
		var zero K
		return zero, false
	}
	pos := r.indexOf(id)
	if pos <= 0 {
		return r.keys[len(r.keys)-1], true
	}
	return r.keys[pos-1], true
}

// Resolve finds the key whose string form equals s. Identifiers arriving as
// text (control surface, CLI) are matched this way.
func (r *Registry[K, T]) Resolve(s string) (K, bool) {
	for _, key := range r.keys {
		if fmt.Sprint(key) == s {
			return key, true
		}
	}
	var zero K
	return zero, false
}

func (r *Registry[K, T]) indexOf(id K) int {
	for i, key := range r.keys {
		if key == id {
			return i
		}
	}
	return -1
}

func (r *Registry[K, T]) insert(key K, item T) {
	r.keys = append(r.keys, key)
	r.items[key] = item
}

func (r *Registry[K, T]) delete(key K) bool {
	if _, ok := r.items[key]; !ok {
		return false
	}
	delete(r.items, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry[K, T]) publish(topic eventbus.Topic, payload any) {
	if r.bus != nil {
		r.bus.Publish(topic, payload)
	}
}
