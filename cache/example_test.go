package cache_test

import (
	"fmt"
	"time"

	"github.com/jonwraymond/synckit/cache"
)

func ExampleDefaultKeyer() {
	keyer := cache.NewDefaultKeyer()

	// Map ordering does not matter: equal parameter sets canonicalize
	// to equal keys.
	a, _ := keyer.Key("orders", map[string]any{"status": "pending", "page": 1})
	b, _ := keyer.Key("orders", map[string]any{"page": 1, "status": "pending"})
	c, _ := keyer.Key("orders", map[string]any{"page": 2, "status": "pending"})

	fmt.Println("same params, same key:", a == b)
	fmt.Println("different params, same key:", a == c)
	fmt.Println("resource type:", a.Type())
	// Output:
	// same params, same key: true
	// different params, same key: false
	// resource type: orders
}

func ExampleStore() {
	s := cache.NewStore()
	keyer := cache.NewDefaultKeyer()
	key, _ := keyer.Key("orders", map[string]any{"status": "pending"})

	gen, _ := s.StartLoad(key)
	s.Complete(key, gen, []string{"order-1", "order-2"})

	entry, _ := s.Get(key)
	fmt.Println("records:", len(entry.Data.([]string)))
	fmt.Println("fresh:", s.IsFresh(key, 5*time.Minute))

	s.Invalidate(key)
	entry, _ = s.Get(key)
	fmt.Println("after invalidate:", entry.Data, s.IsFresh(key, 5*time.Minute))
	// Output:
	// records: 2
	// fresh: true
	// after invalidate: <nil> false
}
