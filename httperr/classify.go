package httperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError is produced at the transport boundary for any non-2xx
// response. Body holds at most a short prefix of the response body,
// kept for diagnostic logging only.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httperr: unexpected status %d", e.Status)
}

// NewStatusError builds a StatusError from a response, truncating the
// body to a loggable size.
func NewStatusError(status int, body []byte) *StatusError {
	const maxBody = 512
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return &StatusError{Status: status, Body: body}
}

// Error pairs a classified Kind with its underlying cause. Its Error
// method returns only the kind's stable message; the cause is reachable
// through Unwrap for logging.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Kind.Message() }

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with an explicit kind wrapping cause.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// Wrap classifies err and wraps it. Already-wrapped errors are returned
// unchanged so the original classification sticks.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var herr *Error
	if errors.As(err, &herr) {
		return herr
	}
	return &Error{Kind: Classify(err), Err: err}
}

// KindOf returns the classification of err, unwrapping as needed.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var herr *Error
	if errors.As(err, &herr) {
		return herr.Kind
	}
	return Classify(err)
}

// Classify maps a raw error to its Kind.
//
// Status-bearing errors map by code: 401 unauthenticated, 403 forbidden,
// 404 not found, 429 rate limited, 5xx server error. Errors with no
// response at all, including timeouts, classify as network unreachable.
// Anything else is unknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.Status == http.StatusUnauthorized:
			return KindUnauthenticated
		case se.Status == http.StatusForbidden:
			return KindForbidden
		case se.Status == http.StatusNotFound:
			return KindNotFound
		case se.Status == http.StatusTooManyRequests:
			return KindRateLimited
		case se.Status >= 500:
			return KindServerError
		default:
			return KindUnknown
		}
	}

	// No response was received. Timeouts are the transport's
	// responsibility and classify the same as connection failures.
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetworkUnreachable
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return KindNetworkUnreachable
	}

	return KindUnknown
}
