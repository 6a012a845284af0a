package httperr

// Kind is the classification of a failed network outcome.
type Kind int

const (
	// KindUnknown is any failure that matches no other kind.
	KindUnknown Kind = iota

	// KindUnauthenticated means the credential was missing, expired,
	// or rejected (HTTP 401). This is the only kind that triggers the
	// silent refresh path.
	KindUnauthenticated

	// KindForbidden means the caller is authenticated but not allowed
	// (HTTP 403).
	KindForbidden

	// KindNotFound means the resource does not exist (HTTP 404).
	KindNotFound

	// KindRateLimited means the backend is throttling (HTTP 429).
	KindRateLimited

	// KindServerError means the backend failed (HTTP 5xx) or returned
	// a response that does not match its documented schema.
	KindServerError

	// KindNetworkUnreachable means no response was received at all:
	// connection failures, DNS errors, and timeouts.
	KindNetworkUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServerError:
		return "server_error"
	case KindNetworkUnreachable:
		return "network_unreachable"
	default:
		return "unknown"
	}
}

// Message returns the stable, non-technical message for this kind.
// Raw error detail never appears here.
func (k Kind) Message() string {
	switch k {
	case KindUnauthenticated:
		return "Your session has expired. Please sign in again."
	case KindForbidden:
		return "You do not have permission to view this."
	case KindNotFound:
		return "The requested item could not be found."
	case KindRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case KindServerError:
		return "Something went wrong on our side. Please try again."
	case KindNetworkUnreachable:
		return "Unable to reach the server. Check your connection."
	default:
		return "An unexpected error occurred."
	}
}
