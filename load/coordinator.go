package load

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Fetcher performs the network operation for one resource key.
type Fetcher func(ctx context.Context) (any, error)

// Coordinator guarantees at most one in-flight fetch per key.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Joining: callers that arrive while a fetch for key is outstanding
//   receive the outcome of that fetch; no second call is issued.
// - Cancellation: once issued, a fetch runs to completion. The fetch
//   context is detached from the first caller's cancellation so a
//   departing caller cannot fail the joined callers.
type Coordinator struct {
	group singleflight.Group
}

// NewCoordinator creates a new load coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Do executes fetch for key, deduplicating concurrent callers.
// shared reports whether the result was given to more than one caller.
func (c *Coordinator) Do(ctx context.Context, key string, fetch Fetcher) (v any, err error, shared bool) {
	detached := context.WithoutCancel(ctx)
	return c.group.Do(key, func() (any, error) {
		return fetch(detached)
	})
}

// Forget drops the in-flight marker for key so the next Do issues a
// fresh fetch. Used on invalidation; it does not stop the underlying
// operation.
func (c *Coordinator) Forget(key string) {
	c.group.Forget(key)
}
