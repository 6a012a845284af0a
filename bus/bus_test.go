package bus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jonwraymond/synckit/auth"
	"github.com/jonwraymond/synckit/cache"
	"github.com/jonwraymond/synckit/observe"
)

const (
	keyOrders = cache.Key("res:orders:aaaa")
	keyUsers  = cache.Key("res:users:bbbb")
)

// TestBus_PublishInSubscriptionOrder tests synchronous in-order fan-out.
func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	b := New(nil)

	var order []int
	for i := 1; i <= 3; i++ {
		i := i
		b.Subscribe(keyOrders, func(Event) { order = append(order, i) })
	}

	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

// TestBus_UnsubscribeIsolation tests that cancelling one subscription
// affects neither other callbacks on the same key nor other keys.
func TestBus_UnsubscribeIsolation(t *testing.T) {
	b := New(nil)

	var a, c, u int
	cancelA := b.Subscribe(keyOrders, func(Event) { a++ })
	b.Subscribe(keyOrders, func(Event) { c++ })
	b.Subscribe(keyUsers, func(Event) { u++ })

	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	cancelA()
	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	b.Publish(keyUsers, CacheUpdated{Key: keyUsers})

	if a != 1 {
		t.Errorf("cancelled handler ran %d times, want 1", a)
	}
	if c != 2 {
		t.Errorf("sibling handler ran %d times, want 2", c)
	}
	if u != 1 {
		t.Errorf("other-key handler ran %d times, want 1", u)
	}
}

// TestBus_CancelIdempotent tests that cancelling twice is harmless.
func TestBus_CancelIdempotent(t *testing.T) {
	b := New(nil)

	var n int
	cancel := b.Subscribe(keyOrders, func(Event) { n++ })
	other := 0
	b.Subscribe(keyOrders, func(Event) { other++ })

	cancel()
	cancel()
	cancel()

	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	if n != 0 {
		t.Errorf("cancelled handler ran %d times, want 0", n)
	}
	if other != 1 {
		t.Errorf("remaining handler ran %d times, want 1", other)
	}
}

// TestBus_UnsubscribeDuringDelivery tests that a handler removing
// another subscription mid-publish neither skips nor double-invokes
// anyone in the current delivery.
func TestBus_UnsubscribeDuringDelivery(t *testing.T) {
	b := New(nil)

	var got []string
	var cancelThird func()
	b.Subscribe(keyOrders, func(Event) {
		got = append(got, "first")
		cancelThird()
	})
	b.Subscribe(keyOrders, func(Event) { got = append(got, "second") })
	cancelThird = b.Subscribe(keyOrders, func(Event) { got = append(got, "third") })

	// The snapshot was taken before the first handler ran, so all
	// three see this event exactly once.
	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	if len(got) != 3 {
		t.Fatalf("first publish delivered to %d handlers, want 3: %v", len(got), got)
	}

	got = nil
	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("second publish = %v, want [first second]", got)
	}
}

// TestBus_PanicRecovered tests that a panicking handler is logged and
// later handlers still run.
func TestBus_PanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	b := New(observe.NewLoggerWithWriter("error", &buf))

	var survived bool
	b.Subscribe(keyOrders, func(Event) { panic("render exploded") })
	b.Subscribe(keyOrders, func(Event) { survived = true })

	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})

	if !survived {
		t.Error("handler after panicking one did not run")
	}
	if !strings.Contains(buf.String(), "subscriber panicked") {
		t.Errorf("panic not logged: %s", buf.String())
	}
}

// TestBus_Broadcast tests sign-out delivery to every subscriber.
func TestBus_Broadcast(t *testing.T) {
	b := New(nil)

	var orders, users, global int
	b.Subscribe(keyOrders, func(ev Event) {
		if _, ok := ev.(SignedOut); ok {
			orders++
		}
	})
	b.Subscribe(keyUsers, func(ev Event) {
		if _, ok := ev.(SignedOut); ok {
			users++
		}
	})
	b.SubscribeAll(func(ev Event) {
		if _, ok := ev.(SignedOut); ok {
			global++
		}
	})

	b.Broadcast(SignedOut{})

	if orders != 1 || users != 1 || global != 1 {
		t.Errorf("broadcast counts = %d/%d/%d, want 1/1/1", orders, users, global)
	}
}

// TestBus_GlobalSeesKeyEvents tests that global subscribers observe
// per-key publishes.
func TestBus_GlobalSeesKeyEvents(t *testing.T) {
	b := New(nil)

	var events []Event
	cancel := b.SubscribeAll(func(ev Event) { events = append(events, ev) })

	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	b.Publish(keyUsers, AuthChanged{State: auth.StateAuthenticated})
	cancel()
	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})

	if len(events) != 2 {
		t.Fatalf("global subscriber saw %d events, want 2", len(events))
	}
	if _, ok := events[0].(CacheUpdated); !ok {
		t.Errorf("events[0] = %T, want CacheUpdated", events[0])
	}
	if ac, ok := events[1].(AuthChanged); !ok || ac.State != auth.StateAuthenticated {
		t.Errorf("events[1] = %#v, want AuthChanged{StateAuthenticated}", events[1])
	}
}

// TestBus_ZeroSubscribers tests publishing into the void.
func TestBus_ZeroSubscribers(t *testing.T) {
	b := New(nil)
	b.Publish(keyOrders, CacheUpdated{Key: keyOrders})
	b.Broadcast(SignedOut{})
}
