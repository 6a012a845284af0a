package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/synckit/httperr"
)

// ClientConfig configures the backend auth client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "https://api.example.com".
	BaseURL string

	// HTTPClient is the HTTP client to use for requests.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client

	// Now is the time source used when deriving credential expiry.
	// If nil, time.Now is used.
	Now func() time.Time
}

// Client calls the backend's authentication endpoint family.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient creates a new auth client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		now:     now,
	}, nil
}

// Credentials identify an existing account.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration describes a new account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// tokenResponse is the single response schema shared by the login,
// register, and refresh endpoints. Responses that do not match it are
// treated as server errors, never guessed at.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user"`
}

// Login exchanges credentials for a new session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", creds, &tr); err != nil {
		return nil, fmt.Errorf("auth: login: %w", err)
	}
	return c.session(tr, true)
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, reg Registration) (*Session, error) {
	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", reg, &tr); err != nil {
		return nil, fmt.Errorf("auth: register: %w", err)
	}
	return c.session(tr, true)
}

// Refresh trades a refresh credential for a new access+refresh pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	in := map[string]string{"refresh_token": refreshToken}
	var tr tokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", in, &tr); err != nil {
		return nil, fmt.Errorf("auth: refresh: %w", err)
	}
	return c.session(tr, false)
}

// Logout asks the backend to invalidate the session. Callers treat the
// outcome as best effort.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("auth: logout: %w", err)
	}
	return nil
}

// CurrentUser fetches the user record for the given access credential.
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var u User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", accessToken, nil, &u); err != nil {
		return nil, fmt.Errorf("auth: current user: %w", err)
	}
	if u.ID == "" {
		return nil, httperr.New(httperr.KindServerError, ErrMalformedResponse)
	}
	return &u, nil
}

// session validates a tokenResponse and builds a Session from it.
// requireUser is set for the login/register flows, which must return
// the user record for session restoration.
func (c *Client) session(tr tokenResponse, requireUser bool) (*Session, error) {
	if tr.AccessToken == "" || tr.RefreshToken == "" || (requireUser && tr.User == nil) {
		return nil, httperr.New(httperr.KindServerError, ErrMalformedResponse)
	}

	expiresAt := time.Time{}
	if tr.ExpiresIn > 0 {
		expiresAt = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	} else if exp, ok := tokenExpiry(tr.AccessToken); ok {
		expiresAt = exp
	}

	return &Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt,
		SessionID:    uuid.NewString(),
		User:         tr.User,
	}, nil
}

// doJSON performs one round trip. A non-2xx status becomes a
// StatusError carrying a loggable body prefix; a body that fails to
// decode into out becomes a server error.
func (c *Client) doJSON(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return httperr.NewStatusError(resp.StatusCode, snippet)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return httperr.New(httperr.KindServerError, fmt.Errorf("%w: %w", ErrMalformedResponse, err))
	}
	return nil
}
