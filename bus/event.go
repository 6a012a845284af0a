package bus

import (
	"github.com/jonwraymond/synckit/auth"
	"github.com/jonwraymond/synckit/cache"
)

// Event is a tagged variant delivered to subscribers. The concrete
// types below are the only implementations.
type Event interface {
	event()
}

// CacheUpdated signals that the cache entry for Key changed: a load
// started, completed, failed, or the entry was invalidated. Entry is
// the snapshot after the change.
type CacheUpdated struct {
	Key   cache.Key
	Entry cache.Entry
}

// AuthChanged signals an auth state transition. Sign-out transitions
// additionally produce a SignedOut broadcast once the cache is wiped.
type AuthChanged struct {
	State auth.State
}

// SignedOut signals that the session ended, locally or because a
// refresh was rejected. All cached data has been discarded by the time
// subscribers observe it.
type SignedOut struct{}

func (CacheUpdated) event() {}
func (AuthChanged) event()  {}
func (SignedOut) event()    {}
