package auth

// State is the session lifecycle state.
type State int

const (
	// StateSignedOut means no session is active.
	StateSignedOut State = iota

	// StateSigningIn means a login or registration call is in flight.
	StateSigningIn

	// StateAuthenticated means a session is active and requests carry
	// its access credential.
	StateAuthenticated

	// StateRefreshing means the access credential was rejected and a
	// refresh exchange is in flight.
	StateRefreshing

	// StateSignedOutError means the session ended involuntarily: the
	// refresh exchange itself was rejected.
	StateSignedOutError
)

func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed_out"
	case StateSigningIn:
		return "signing_in"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	case StateSignedOutError:
		return "signed_out_error"
	default:
		return "unknown"
	}
}

// SignedOut reports whether the state is one of the two signed-out
// variants.
func (s State) SignedOut() bool {
	return s == StateSignedOut || s == StateSignedOutError
}
