package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonwraymond/synckit/auth"
	"github.com/jonwraymond/synckit/bus"
	"github.com/jonwraymond/synckit/cache"
	"github.com/jonwraymond/synckit/httperr"
	"github.com/jonwraymond/synckit/load"
	"github.com/jonwraymond/synckit/observe"
)

// Config configures a Store.
type Config struct {
	// BaseURL is the backend root; resources are fetched from
	// <BaseURL>/api/<resourceType>. Required.
	BaseURL string

	// Auth performs authenticated round trips and drives sign-out
	// handling. Required.
	Auth *auth.Manager

	// MaxAge bounds how long a cached entry is served without a
	// refetch. Zero applies cache.DefaultMaxAge.
	MaxAge time.Duration

	// Keyer derives cache keys. If nil, the default canonical keyer
	// is used.
	Keyer cache.Keyer

	// Logger receives diagnostic output. If nil, logging is disabled.
	Logger observe.Logger

	// Metrics records cache and load outcomes. If nil, disabled.
	Metrics observe.Metrics

	// Tracer spans resource fetches. If nil, disabled.
	Tracer observe.Tracer
}

// Store is the facade over the cache, the coordinator, the bus and the
// session manager.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Dedup: concurrent Loads of one key share a single fetch.
// - Events: every cache mutation is published to the key's
//   subscribers, in mutation order.
type Store struct {
	baseURL string
	authmgr *auth.Manager
	cache   *cache.Store
	flight  *load.Coordinator
	bus     *bus.Bus
	keyer   cache.Keyer
	maxAge  time.Duration
	log     observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
}

// New builds a Store and hooks it into the manager's state changes.
func New(cfg Config) (*Store, error) {
	if cfg.Auth == nil {
		return nil, ErrNilAuth
	}
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	keyer := cfg.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	log := cfg.Logger
	if log == nil {
		log = observe.NopLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.NopMetrics()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = observe.NopTracer()
	}

	s := &Store{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		authmgr: cfg.Auth,
		cache:   cache.NewStore(),
		flight:  load.NewCoordinator(),
		bus:     bus.New(log),
		keyer:   keyer,
		maxAge:  cfg.MaxAge,
		log:     log,
		metrics: metrics,
		tracer:  tracer,
	}
	cfg.Auth.OnChange(s.onAuthChange)
	return s, nil
}

// Load returns the entry for the given resource and parameters. A
// fresh entry is served from the cache without a round trip. Stale or
// absent entries are fetched; concurrent callers of the same key join
// one fetch and see the same result.
//
// The returned Entry is a snapshot taken after the fetch settles; a
// non-nil error is the classified fetch failure.
func (s *Store) Load(ctx context.Context, resourceType string, params map[string]any) (cache.Entry, error) {
	key, err := s.keyer.Key(resourceType, params)
	if err != nil {
		return cache.Entry{}, err
	}

	if s.cache.IsFresh(key, s.maxAge) {
		s.metrics.RecordCacheHit(ctx, resourceType)
		e, _ := s.cache.Get(key)
		return e, nil
	}
	s.metrics.RecordCacheMiss(ctx, resourceType)

	// StartLoad runs inside the coordinator so only the caller that
	// actually executes the fetch arms the loading flag; joiners never
	// re-arm a flag the settled fetch would leave stranded.
	_, err, shared := s.flight.Do(ctx, string(key), func(fctx context.Context) (any, error) {
		gen, started := s.cache.StartLoad(key)
		if started {
			s.publish(key)
		}
		return s.fetch(fctx, resourceType, key, gen, params)
	})
	if shared {
		s.metrics.RecordDedupJoin(ctx, resourceType)
	}

	e, _ := s.cache.Get(key)
	return e, err
}

// Subscribe registers fn for every state change of one resource key.
// fn receives the entry snapshot after each mutation, including the
// cleared snapshot after sign-out. The returned cancel is idempotent.
func (s *Store) Subscribe(resourceType string, params map[string]any, fn func(cache.Entry)) (cancel func(), err error) {
	key, err := s.keyer.Key(resourceType, params)
	if err != nil {
		return nil, err
	}
	return s.bus.Subscribe(key, func(ev bus.Event) {
		switch e := ev.(type) {
		case bus.CacheUpdated:
			fn(e.Entry)
		case bus.SignedOut:
			snap, _ := s.cache.Get(key)
			fn(snap)
		}
	}), nil
}

// SubscribeAuth registers fn for session state transitions.
func (s *Store) SubscribeAuth(fn func(auth.State)) (cancel func()) {
	return s.bus.SubscribeAll(func(ev bus.Event) {
		if e, ok := ev.(bus.AuthChanged); ok {
			fn(e.State)
		}
	})
}

// Invalidate clears cached entries for a resource type. With no
// params every entry of the type is cleared; with params only the
// matching keys are. Cleared keys advance their generation, so any
// response still in flight for the old epoch is discarded, and their
// subscribers observe the cleared state.
func (s *Store) Invalidate(resourceType string, params ...map[string]any) error {
	if len(params) == 0 {
		for _, key := range s.cache.InvalidateType(resourceType) {
			s.flight.Forget(string(key))
			s.publish(key)
		}
		return nil
	}
	for _, p := range params {
		key, err := s.keyer.Key(resourceType, p)
		if err != nil {
			return err
		}
		if s.cache.Invalidate(key) {
			s.flight.Forget(string(key))
			s.publish(key)
		}
	}
	return nil
}

// Mutate runs a write against the backend and, when it succeeds,
// invalidates every cached entry of the resource type so subsequent
// reads refetch. The mutation's error is returned classified.
func (s *Store) Mutate(ctx context.Context, resourceType string, mutation func(context.Context) error) error {
	if mutation == nil {
		return ErrNilMutation
	}
	if err := mutation(ctx); err != nil {
		return httperr.Wrap(err)
	}
	return s.Invalidate(resourceType)
}

// MutateOptimistic is Mutate with a local patch applied to one cached
// entry before the write runs, so subscribers see the change
// immediately. The resource type is invalidated once the mutation
// settles, success or failure, so the authoritative state is refetched
// either way and a failed write cannot strand the patched snapshot.
func (s *Store) MutateOptimistic(ctx context.Context, resourceType string, params map[string]any, patch func(any) any, mutation func(context.Context) error) error {
	if mutation == nil {
		return ErrNilMutation
	}
	key, err := s.keyer.Key(resourceType, params)
	if err != nil {
		return err
	}

	if patch != nil {
		if e, ok := s.cache.Get(key); ok && e.Data != nil {
			if s.cache.Complete(key, e.Generation, patch(e.Data)) {
				s.publish(key)
			}
		}
	}

	merr := mutation(ctx)
	if ierr := s.Invalidate(resourceType); ierr != nil {
		return ierr
	}
	if merr != nil {
		return httperr.Wrap(merr)
	}
	return nil
}

// fetch runs inside the coordinator, so it executes once per key no
// matter how many callers joined. It settles the cache entry under the
// generation captured at StartLoad; an invalidation in the interim
// bumps the generation and the settlement is discarded.
func (s *Store) fetch(ctx context.Context, resourceType string, key cache.Key, gen uint64, params map[string]any) (any, error) {
	ctx, span := s.tracer.StartSpan(ctx, observe.LoadMeta{Resource: resourceType, Key: string(key)})
	start := time.Now()

	body, err := s.get(ctx, resourceType, params)
	s.metrics.RecordLoad(ctx, resourceType, time.Since(start), err)
	s.tracer.EndSpan(span, err)

	if err != nil {
		herr := httperr.Wrap(err)
		if s.cache.Fail(key, gen, herr) {
			s.publish(key)
		} else {
			s.log.Debug(ctx, "discarded stale fetch failure", observe.F("key", string(key)))
		}
		return nil, herr
	}

	if s.cache.Complete(key, gen, body) {
		s.publish(key)
	} else {
		s.log.Debug(ctx, "discarded stale fetch result", observe.F("key", string(key)))
	}
	return body, nil
}

func (s *Store) get(ctx context.Context, resourceType string, params map[string]any) (any, error) {
	u := s.baseURL + "/api/" + url.PathEscape(resourceType)
	if q := encodeParams(params); q != "" {
		u += "?" + q
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, httperr.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.authmgr.Do(ctx, req)
	if err != nil {
		return nil, httperr.Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, httperr.Wrap(httperr.NewStatusError(resp.StatusCode, snippet))
	}
	return decodeResource(resp.Body)
}

// publish sends the key's current snapshot to its subscribers.
func (s *Store) publish(key cache.Key) {
	e, _ := s.cache.Get(key)
	s.bus.Publish(key, bus.CacheUpdated{Key: key, Entry: e})
}

// onAuthChange mirrors session transitions onto the bus. Sign-out is
// the one unilateral global discard: the whole cache resets, in-flight
// markers clear, and every subscriber hears about it.
func (s *Store) onAuthChange(st auth.State) {
	s.bus.Broadcast(bus.AuthChanged{State: st})
	if !st.SignedOut() {
		return
	}
	for _, key := range s.cache.Reset() {
		s.flight.Forget(string(key))
	}
	s.bus.Broadcast(bus.SignedOut{})
}

// encodeParams renders scalar params as a stable query string.
func encodeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	v := url.Values{}
	for k, val := range params {
		v.Set(k, fmt.Sprint(val))
	}
	return v.Encode()
}
