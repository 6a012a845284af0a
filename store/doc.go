// Package store is the composition root of the synchronization layer.
//
// A Store ties the resource cache, the load coordinator, the event bus
// and the session manager together behind four verbs: Load, Subscribe,
// Invalidate and Mutate. Reads are cached and deduplicated; writes go
// through Mutate, which invalidates the affected resource type so the
// next read refetches. MutateOptimistic may patch one cached entry
// ahead of the write, but the authoritative state always comes from
// the refetch after the write settles.
//
// Every cache mutation is published on the bus, so subscribers observe
// the loading, loaded, failed and cleared states of a key in order.
// Sign-out wipes the cache and notifies every subscriber.
package store
