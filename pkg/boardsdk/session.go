package boardsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshSkew refreshes access tokens slightly before they expire.
const refreshSkew = 30 * time.Second

// Session represents an authenticated session with automatic token refresh.
// It is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
	user         *User
}

func newSession(client *SDKClient, auth *AuthResponse) *Session {
	s := &Session{client: client}
	s.apply(auth)
	return s
}

// apply stores a token pair. Callers hold the write lock or own s.
func (s *Session) apply(auth *AuthResponse) {
	s.accessToken = auth.AccessToken
	s.refreshToken = auth.RefreshToken
	s.expiresAt = auth.AccessExpiresAt.Add(-refreshSkew)
	if auth.User != nil {
		u := *auth.User
		s.user = &u
	}
}

// getValidToken returns a valid access token, automatically refreshing if expired.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", errors.New("access token expired and no refresh token available")
	}

	auth, err := s.client.RefreshGrant(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}
	s.apply(auth)

	return s.accessToken, nil
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the current refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Me returns the signed-in user, fetching it once when the session was
// resumed from stored tokens.
func (s *Session) Me(ctx context.Context) (*User, error) {
	s.mu.RLock()
	if s.user != nil {
		u := *s.user
		s.mu.RUnlock()
		return &u, nil
	}
	s.mu.RUnlock()

	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/auth/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()

	u := user
	return &u, nil
}

// Logout revokes the refresh token. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.accessToken = ""
	s.refreshToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if refreshToken == "" {
		return errors.New("no refresh token to revoke")
	}

	var msg MessageResponse
	return s.client.postJSON(ctx, "/api/auth/logout", RefreshRequest{RefreshToken: refreshToken}, &msg, http.StatusOK)
}
