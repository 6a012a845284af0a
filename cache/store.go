package cache

import (
	"sync"
	"time"

	"github.com/jonwraymond/synckit/httperr"
)

// DefaultMaxAge is the freshness bound applied when a caller does not
// override it.
const DefaultMaxAge = 5 * time.Minute

// Entry is an immutable snapshot of one resource's cache state.
// Callers must never mutate Data.
type Entry struct {
	// Data is the cached payload: a decoded page of records or a
	// single record. Nil when absent or invalidated.
	Data any

	// Loading reports whether a fetch for this key is in flight.
	Loading bool

	// Err is the classified outcome of the last failed fetch, nil
	// after a successful one.
	Err *httperr.Error

	// FetchedAt is the completion time of the last successful fetch.
	// Zero when the entry has never been populated.
	FetchedAt time.Time

	// Generation identifies the invalidation epoch of this entry.
	Generation uint64
}

type entry struct {
	data       any
	loading    bool
	err        *httperr.Error
	fetchedAt  time.Time
	generation uint64
}

// Store is the process-wide resource cache. All methods are safe for
// concurrent use. Writes are last-write-wins per key, ordered by
// completion of the owning network operation; a write carrying a stale
// generation is rejected.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty resource cache.
func NewStore(opts ...Option) *Store {
	s := &Store{
		entries: make(map[Key]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a snapshot of the entry for key. The second return is
// false when the key has never been seen.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	return snapshot(e), true
}

// StartLoad marks key as loading and returns the generation that the
// resulting Complete or Fail must carry. While a load is already in
// flight the call is idempotent: the caller joins the existing
// generation and started is false.
func (s *Store) StartLoad(key Key) (gen uint64, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{generation: 1}
		s.entries[key] = e
	}
	if e.loading {
		return e.generation, false
	}
	e.loading = true
	return e.generation, true
}

// Complete records a successful fetch: data replaces the previous
// payload, the error clears, and the fetch timestamp is stamped.
// The write is accepted only when gen is still the key's current
// generation; otherwise the response belongs to an invalidated epoch
// and is discarded.
func (s *Store) Complete(key Key, gen uint64, data any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.generation != gen {
		return false
	}
	e.data = data
	e.err = nil
	e.fetchedAt = s.now()
	e.loading = false
	return true
}

// Fail records a failed fetch under the same generation discipline as
// Complete. Previously cached data is retained alongside the error.
func (s *Store) Fail(key Key, gen uint64, ferr *httperr.Error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.generation != gen {
		return false
	}
	e.err = ferr
	e.loading = false
	return true
}

// IsFresh reports whether the entry for key was fetched within maxAge.
// A maxAge of zero or less applies DefaultMaxAge. Entries that were
// never populated are never fresh.
func (s *Store) IsFresh(key Key, maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.fetchedAt.IsZero() {
		return false
	}
	return s.now().Sub(e.fetchedAt) < maxAge
}

// Invalidate discards the entry's data and timestamp and advances its
// generation so that any in-flight response for the old epoch is
// rejected. Returns false when the key has never been seen.
func (s *Store) Invalidate(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	invalidateLocked(e)
	return true
}

// InvalidateType invalidates every entry whose key belongs to
// resourceType and returns the affected keys.
func (s *Store) InvalidateType(resourceType string) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []Key
	for k, e := range s.entries {
		if k.Type() != resourceType {
			continue
		}
		invalidateLocked(e)
		keys = append(keys, k)
	}
	return keys
}

// Reset invalidates every entry. Used on sign-out, when a signed-out
// session can no longer vouch for the provenance of cached data.
// Returns the affected keys.
func (s *Store) Reset() []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]Key, 0, len(s.entries))
	for k, e := range s.entries {
		invalidateLocked(e)
		keys = append(keys, k)
	}
	return keys
}

// Keys returns every key the store has seen.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

func invalidateLocked(e *entry) {
	e.data = nil
	e.err = nil
	e.fetchedAt = time.Time{}
	e.loading = false
	e.generation++
}

func snapshot(e *entry) Entry {
	return Entry{
		Data:       e.data,
		Loading:    e.loading,
		Err:        e.err,
		FetchedAt:  e.fetchedAt,
		Generation: e.generation,
	}
}
