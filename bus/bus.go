package bus

import (
	"context"
	"sync"

	"github.com/jonwraymond/synckit/cache"
	"github.com/jonwraymond/synckit/observe"
)

// Handler receives published events. It must be safe to invoke any
// number of times, including zero.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus delivers events to subscribers per resource key, plus a global
// list that observes every event.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Ordering: Publish invokes handlers synchronously in subscription
//   order, iterating over a snapshot so unsubscribing during delivery
//   neither skips nor double-invokes any other handler.
// - Panics: a panic in one handler is recovered and logged; remaining
//   handlers still run.
type Bus struct {
	mu     sync.RWMutex
	byKey  map[cache.Key][]subscription
	global []subscription
	nextID uint64
	log    observe.Logger
}

// New creates an event bus. A nil logger falls back to the no-op
// logger.
func New(log observe.Logger) *Bus {
	if log == nil {
		log = observe.NopLogger()
	}
	return &Bus{
		byKey: make(map[cache.Key][]subscription),
		log:   log,
	}
}

// Subscribe registers handler for events on key and returns a cancel
// function. Invoking cancel removes exactly that handler and is
// idempotent thereafter.
func (b *Bus) Subscribe(key cache.Key, handler Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.byKey[key] = append(b.byKey[key], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.byKey[key] = remove(b.byKey[key], id)
		if len(b.byKey[key]) == 0 {
			delete(b.byKey, key)
		}
	}
}

// SubscribeAll registers handler for every event on every key,
// including broadcasts. Returns a cancel function with the same
// idempotency guarantee as Subscribe.
func (b *Bus) SubscribeAll(handler Handler) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.global = append(b.global, subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.global = remove(b.global, id)
	}
}

// Publish delivers ev to every subscriber of key, then to the global
// subscribers.
func (b *Bus) Publish(key cache.Key, ev Event) {
	b.mu.RLock()
	snapshot := make([]subscription, 0, len(b.byKey[key])+len(b.global))
	snapshot = append(snapshot, b.byKey[key]...)
	snapshot = append(snapshot, b.global...)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		b.dispatch(sub, ev)
	}
}

// Broadcast delivers ev to every subscriber of every key and to the
// global subscribers. Used for sign-out, which concerns all keys.
func (b *Bus) Broadcast(ev Event) {
	b.mu.RLock()
	var snapshot []subscription
	for _, subs := range b.byKey {
		snapshot = append(snapshot, subs...)
	}
	snapshot = append(snapshot, b.global...)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		b.dispatch(sub, ev)
	}
}

func (b *Bus) dispatch(sub subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error(context.Background(), "subscriber panicked",
				observe.F("panic", r),
			)
		}
	}()
	sub.handler(ev)
}

func remove(subs []subscription, id uint64) []subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i:i], subs[i+1:]...)
		}
	}
	return subs
}
