// Package auth owns the process-wide authentication session.
//
// It provides a Client for the backend's authentication endpoint family
// (login, register, refresh, logout, current-user) and a Manager that
// drives the session state machine: signed out, signing in,
// authenticated, refreshing. The Manager performs silent refresh when
// an authenticated request fails with 401 — at most one refresh is in
// flight at a time, concurrent failures join it, and the failing
// request is retried exactly once with the new credential. Sessions
// persist through a pluggable Store so a restart can optimistically
// restore the authenticated state.
package auth
