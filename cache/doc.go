// Package cache holds the per-resource-key store that backs every UI
// surface.
//
// It provides deterministic resource keys derived from a resource type
// plus a canonicalized parameter set, and a Store of entries carrying
// {data, loading flag, classified error, last fetch timestamp}. Entries
// track a monotonically increasing generation per key; writes tagged
// with a stale generation are rejected so an invalidated response can
// never resurrect discarded state.
package cache
