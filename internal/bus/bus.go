// Package bus provides the in-process publish/subscribe backbone that
// decouples the pipeline components. Dispatch is synchronous: subscribers run
// inline with Publish, so a slow subscriber delays the publisher. There is no
// persistence and no delivery guarantee across restarts — this is a decoupling
// layer, not a message broker.
package bus

import "sync"

// Handler receives every event published on a matching topic.
type Handler func(topic string, payload interface{})

// Bus routes events by exact topic or topic prefix.
type Bus struct {
	mu       sync.RWMutex
	subs     map[string][]Handler
	prefixes []prefixSub
}

type prefixSub struct {
	prefix string
	fn     Handler
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]Handler)}
}

// Subscribe registers fn for events published on exactly topic.
func (b *Bus) Subscribe(topic string, fn Handler) {
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], fn)
	b.mu.Unlock()
}

// SubscribePrefix registers fn for every topic starting with prefix
// (e.g. "exchange." to observe all feed lifecycle events).
func (b *Bus) SubscribePrefix(prefix string, fn Handler) {
	b.mu.Lock()
	b.prefixes = append(b.prefixes, prefixSub{prefix: prefix, fn: fn})
	b.mu.Unlock()
}

// Publish dispatches payload to all matching subscribers, inline.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.mu.RLock()
	exact := b.subs[topic]
	prefixes := b.prefixes
	b.mu.RUnlock()

	for _, fn := range exact {
		fn(topic, payload)
	}
	for _, ps := range prefixes {
		if hasPrefix(topic, ps.prefix) {
			ps.fn(topic, payload)
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
