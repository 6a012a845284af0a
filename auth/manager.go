package auth

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/synckit/httperr"
	"github.com/jonwraymond/synckit/observe"
)

// ManagerConfig configures a session Manager.
type ManagerConfig struct {
	// Client is the backend auth client. Required.
	Client *Client

	// Store persists the session across restarts.
	// If nil, an in-memory store is used and nothing persists.
	Store Store

	// Logger receives diagnostic output. If nil, logging is disabled.
	Logger observe.Logger

	// Metrics records refresh attempts. If nil, metrics are disabled.
	Metrics observe.Metrics
}

// Manager drives the session state machine. It is the only component
// that may mutate the auth session; everything else reads snapshots.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Refresh: at most one refresh exchange is in flight; concurrent 401
//   failures join it and are retried once it resolves.
// - Sign-out: involuntary sign-out (rejected refresh) notifies every
//   registered listener.
type Manager struct {
	client  *Client
	store   Store
	log     observe.Logger
	metrics observe.Metrics

	mu        sync.RWMutex
	state     State
	session   *Session
	listeners []func(State)

	refreshGroup singleflight.Group
}

// NewManager creates a Manager in the signed-out state.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	log := cfg.Logger
	if log == nil {
		log = observe.NopLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.NopMetrics()
	}
	return &Manager{
		client:  cfg.Client,
		store:   store,
		log:     log,
		metrics: metrics,
		state:   StateSignedOut,
	}, nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Session returns a snapshot of the active session.
func (m *Manager) Session() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// OnChange registers fn to run after every state transition. Listeners
// must not block; they are invoked synchronously.
func (m *Manager) OnChange(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Login exchanges credentials for a session. On failure the state
// returns to signed out and the classified error is surfaced.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	m.transition(StateSigningIn)
	s, err := m.client.Login(ctx, creds)
	if err != nil {
		m.transition(StateSignedOut)
		return httperr.Wrap(err)
	}
	m.adopt(ctx, s)
	return nil
}

// Register creates an account and signs in with its first session.
func (m *Manager) Register(ctx context.Context, reg Registration) error {
	m.transition(StateSigningIn)
	s, err := m.client.Register(ctx, reg)
	if err != nil {
		m.transition(StateSignedOut)
		return httperr.Wrap(err)
	}
	m.adopt(ctx, s)
	return nil
}

// Logout ends the session. The remote invalidation call is best
// effort; local state is cleared regardless of its outcome.
func (m *Manager) Logout(ctx context.Context) error {
	if s, ok := m.Session(); ok && s.AccessToken != "" {
		if err := m.client.Logout(ctx, s.AccessToken); err != nil {
			m.log.Warn(ctx, "remote sign-out failed", observe.F("error", err.Error()))
		}
	}
	m.clear(ctx, StateSignedOut)
	return nil
}

// Restore loads a persisted session. When a credential and a cached
// user record exist, the state optimistically enters authenticated
// while a background call to the current-user endpoint confirms or
// revokes it. Returns whether a session was restored.
func (m *Manager) Restore(ctx context.Context) bool {
	s, err := m.store.Load(ctx)
	if err != nil {
		m.log.Warn(ctx, "failed to load persisted session", observe.F("error", err.Error()))
		return false
	}
	if s == nil || s.RefreshToken == "" || s.User == nil {
		return false
	}

	m.mu.Lock()
	m.session = s
	m.state = StateAuthenticated
	m.mu.Unlock()
	m.notify(StateAuthenticated)

	go m.confirm(context.WithoutCancel(ctx))
	return true
}

// Refresh performs the silent refresh exchange. Concurrent callers
// join a single in-flight attempt. On failure every credential is
// cleared and listeners observe the involuntary sign-out.
func (m *Manager) Refresh(ctx context.Context) error {
	return m.refresh(ctx, "")
}

// refresh runs the exchange through the singleflight group. When
// staleTok is non-empty the exchange is skipped if the credential has
// already rotated past it, so a straggling rejected request does not
// trigger a second round trip.
func (m *Manager) refresh(ctx context.Context, staleTok string) error {
	_, err, _ := m.refreshGroup.Do("refresh", func() (any, error) {
		m.mu.RLock()
		cur := m.session
		m.mu.RUnlock()
		if cur == nil {
			return nil, ErrNotAuthenticated
		}
		if staleTok != "" && cur.AccessToken != staleTok {
			return nil, nil
		}

		m.transition(StateRefreshing)

		// The exchange runs to completion even if the triggering
		// caller departs; joined callers depend on its outcome.
		s, err := m.client.Refresh(context.WithoutCancel(ctx), cur.RefreshToken)
		m.metrics.RecordRefresh(ctx, err)
		if err != nil {
			m.log.Error(ctx, "credential refresh rejected, signing out",
				observe.F("error", err.Error()),
			)
			m.clear(ctx, StateSignedOutError)
			return nil, httperr.Wrap(err)
		}

		m.adopt(ctx, s)
		return nil, nil
	})
	return err
}

// Do performs an authenticated round trip. A credential known to be
// past its expiry is refreshed up front rather than spent on a doomed
// request; otherwise a 401 response triggers the silent refresh and
// the request is retried exactly once with the new credential.
// Requests with bodies must be built with http.NewRequest so GetBody
// allows the retry.
func (m *Manager) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if s, ok := m.Session(); ok && s.Expired(time.Now()) {
		if err := m.refresh(ctx, s.AccessToken); err != nil {
			return nil, err
		}
	}

	tok, ok := m.accessToken()
	if !ok {
		return nil, ErrNotAuthenticated
	}

	resp, err := m.send(ctx, req, tok)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()

	if err := m.refresh(ctx, tok); err != nil {
		return nil, err
	}
	tok, ok = m.accessToken()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return m.send(ctx, req, tok)
}

// send clones req so it can be issued more than once.
func (m *Manager) send(ctx context.Context, req *http.Request, tok string) (*http.Response, error) {
	r := req.Clone(ctx)
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	r.Header.Set("Authorization", "Bearer "+tok)
	return m.client.http.Do(r)
}

// confirm asynchronously validates a restored session against the
// current-user endpoint.
func (m *Manager) confirm(ctx context.Context) {
	tok, ok := m.accessToken()
	if !ok {
		return
	}

	u, err := m.client.CurrentUser(ctx, tok)
	if err == nil {
		m.updateUser(ctx, u)
		return
	}

	if httperr.KindOf(err) != httperr.KindUnauthenticated {
		// The backend is unreachable or unwell; keep the optimistic
		// state and let the next authenticated request sort it out.
		m.log.Warn(ctx, "session confirmation inconclusive", observe.F("error", err.Error()))
		return
	}

	// The restored credential is stale. One silent refresh decides
	// between recovery and revocation; a failed refresh has already
	// signed the session out.
	if err := m.Refresh(ctx); err != nil {
		return
	}
	if tok, ok := m.accessToken(); ok {
		if u, err := m.client.CurrentUser(ctx, tok); err == nil {
			m.updateUser(ctx, u)
		}
	}
}

func (m *Manager) accessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || m.session.AccessToken == "" {
		return "", false
	}
	return m.session.AccessToken, true
}

// adopt atomically swaps in a new session, persists it, and enters the
// authenticated state. A refresh response without a user record keeps
// the previous one.
func (m *Manager) adopt(ctx context.Context, s *Session) {
	m.mu.Lock()
	if s.User == nil && m.session != nil {
		s.User = m.session.User
	}
	m.session = s
	m.state = StateAuthenticated
	m.mu.Unlock()

	if err := m.store.Save(ctx, s); err != nil {
		m.log.Warn(ctx, "failed to persist session", observe.F("error", err.Error()))
	}
	m.notify(StateAuthenticated)
}

// updateUser refreshes the cached user record on an existing session.
func (m *Manager) updateUser(ctx context.Context, u *User) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	m.session.User = u
	cp := *m.session
	m.mu.Unlock()

	if err := m.store.Save(ctx, &cp); err != nil {
		m.log.Warn(ctx, "failed to persist session", observe.F("error", err.Error()))
	}
}

// clear atomically drops the session and persisted credentials.
func (m *Manager) clear(ctx context.Context, st State) {
	m.mu.Lock()
	m.session = nil
	m.state = st
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn(ctx, "failed to clear persisted session", observe.F("error", err.Error()))
	}
	m.notify(st)
}

func (m *Manager) transition(st State) {
	m.mu.Lock()
	m.state = st
	m.mu.Unlock()
	m.notify(st)
}

func (m *Manager) notify(st State) {
	m.mu.RLock()
	listeners := make([]func(State), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(st)
	}
}
