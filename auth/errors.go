package auth

import "errors"

// Sentinel errors for session management.
var (
	// ErrNilClient indicates a Manager was constructed without a Client.
	ErrNilClient = errors.New("auth: client is required")

	// ErrMissingBaseURL indicates a Client was constructed without a
	// backend base URL.
	ErrMissingBaseURL = errors.New("auth: base URL is required")

	// ErrNotAuthenticated is returned for authenticated operations
	// while no session is active.
	ErrNotAuthenticated = errors.New("auth: not authenticated")

	// ErrNoRefreshToken indicates the active session carries no
	// refresh credential, so a silent refresh is impossible.
	ErrNoRefreshToken = errors.New("auth: no refresh credential")

	// ErrMalformedResponse indicates the backend response did not
	// match its documented schema.
	ErrMalformedResponse = errors.New("auth: response does not match schema")
)
