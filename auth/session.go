package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is the backend's user record, cached for session restoration.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session is the active authentication session. Exactly one Session is
// active per Manager; it is replaced atomically on login and refresh
// and cleared atomically on logout.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	SessionID    string    `json:"session_id"`
	User         *User     `json:"user,omitempty"`
}

// Expired reports whether the access credential is past its expiry.
// Sessions without a known expiry never report expired; the backend's
// 401 is authoritative either way.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// tokenExpiry extracts the exp claim from a JWT access credential
// without verifying its signature. The client holds no signing keys;
// the expiry is advisory only and the backend's 401 remains the source
// of truth.
func tokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
