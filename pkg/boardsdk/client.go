package boardsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient is a client for the Agileboard API.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new Agileboard API client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an account. It does not sign in.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var user User
	if err := c.postJSON(ctx, "/api/auth/register", req, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates with email and password and returns a Session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	var auth AuthResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.postJSON(ctx, "/api/auth/login", req, &auth, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, &auth), nil
}

// NewSessionFromTokens resumes a session from stored tokens. The access
// token is treated as expired so the first call refreshes it.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// RefreshGrant exchanges a refresh token for a rotated token pair.
func (c *SDKClient) RefreshGrant(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var auth AuthResponse
	req := RefreshRequest{RefreshToken: refreshToken}
	if err := c.postJSON(ctx, "/api/auth/refresh", req, &auth, http.StatusOK); err != nil {
		return nil, err
	}
	return &auth, nil
}

// InvitationInfo returns the public details of an invitation link. It needs
// no session so a landing page can render before sign-in.
func (c *SDKClient) InvitationInfo(ctx context.Context, token string) (*InvitationInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/invite/"+url.PathEscape(token), nil, nil)
	if err != nil {
		return nil, err
	}

	var info InvitationInfo
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}

// GetLiveness checks if the service is alive.
func (c *SDKClient) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *SDKClient) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *SDKClient) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

func (c *SDKClient) postJSON(ctx context.Context, path string, in, out any, expectedStatus int) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(body), jsonHeaders)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, expectedStatus)
}
