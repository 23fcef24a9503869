package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/decred/slog"
)

// UserInfo is the identity returned by the platform's identity service. The
// engine trusts the identifier and never authenticates credentials itself.
type UserInfo struct {
	ID   string
	Name string
}

// Identity resolves an opaque bearer credential to a stable user identity.
type Identity interface {
	Resolve(ctx context.Context, token string) (UserInfo, error)
}

// HTTPIdentity resolves credentials against the identity service's /me
// endpoint, forwarding the bearer token.
type HTTPIdentity struct {
	BaseURL string
	Client  *http.Client
	Log     slog.Logger
}

// NewHTTPIdentity creates an identity resolver for the service at baseURL.
func NewHTTPIdentity(baseURL string, log slog.Logger) *HTTPIdentity {
	return &HTTPIdentity{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
		Log:     log,
	}
}

// Resolve implements Identity.
func (h *HTTPIdentity) Resolve(ctx context.Context, token string) (UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"/me", nil)
	if err != nil {
		return UserInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := h.Client.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("identity service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return UserInfo{}, ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return UserInfo{}, fmt.Errorf("identity service returned %d", resp.StatusCode)
	}

	var body struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return UserInfo{}, fmt.Errorf("identity service: %w", err)
	}
	if body.UserID == "" {
		return UserInfo{}, ErrUnauthorized
	}
	return UserInfo{ID: body.UserID, Name: body.Username}, nil
}

// StaticIdentity maps bearer tokens to fixed identities. Used in tests and
// in dev mode, where the token doubles as the user id.
type StaticIdentity struct {
	Users map[string]UserInfo

	// TokenAsID treats any unknown non-empty token as a user with that id.
	TokenAsID bool
}

// Resolve implements Identity.
func (s *StaticIdentity) Resolve(_ context.Context, token string) (UserInfo, error) {
	if token == "" {
		return UserInfo{}, ErrUnauthorized
	}
	if u, ok := s.Users[token]; ok {
		return u, nil
	}
	if s.TokenAsID {
		return UserInfo{ID: token, Name: token}, nil
	}
	return UserInfo{}, ErrUnauthorized
}
