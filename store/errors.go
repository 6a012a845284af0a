package store

import "errors"

var (
	// ErrNilAuth is returned by New when no session manager is supplied.
	ErrNilAuth = errors.New("store: nil auth manager")

	// ErrMissingBaseURL is returned by New when no backend URL is supplied.
	ErrMissingBaseURL = errors.New("store: missing base URL")

	// ErrMalformedPayload wraps resource responses that do not match the
	// expected page schema.
	ErrMalformedPayload = errors.New("store: malformed resource payload")

	// ErrNilMutation is returned by Mutate when no mutation is supplied.
	ErrNilMutation = errors.New("store: nil mutation")
)
