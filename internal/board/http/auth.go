package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
	"github.com/aussiebroadwan/agileboard/pkg/httpx"
)

const (
	AccessCookie  = "agileboard_access"
	RefreshCookie = "agileboard_refresh"

	// refreshCookiePath keeps the refresh token off every other request.
	refreshCookiePath = "/api/auth"
)

type CookieConfig struct {
	Secure bool
	Domain string
}

type AuthHandler struct {
	AuthService *service.AuthService
	Cookies     CookieConfig
}

// HandleRegister godoc
//
//	@Summary		Register
//	@Description	Create an account. Emails are case-insensitive and unique.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		boardsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	boardsdk.User
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Failure		409		{object}	httpx.ErrorResponse	"email already registered"
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Router			/api/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req boardsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toUser(user))
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Exchange email and password for an access and refresh token. Both are also set as HttpOnly cookies.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		boardsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	boardsdk.AuthResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Failure		429		{object}	httpx.ErrorResponse
//	@Router			/api/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req boardsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, pair, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setCookies(w, pair)
	u := toUser(user)
	httpx.WriteJSON(w, http.StatusOK, authResponse(&u, pair))
}

// HandleRefresh godoc
//
//	@Summary		Refresh tokens
//	@Description	Rotate the refresh token. The token is read from the body or the refresh cookie; the presented token is revoked.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		boardsdk.RefreshRequest	false	"Refresh token (optional with cookie)"
//	@Success		200		{object}	boardsdk.AuthResponse
//	@Failure		401		{object}	httpx.ErrorResponse
//	@Router			/api/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token, err := refreshToken(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		h.clearCookies(w)
		writeServiceError(w, r, err)
		return
	}

	h.setCookies(w, pair)
	httpx.WriteJSON(w, http.StatusOK, authResponse(nil, pair))
}

// HandleLogout godoc
//
//	@Summary		Logout
//	@Description	Revoke the refresh token and clear the session cookies. Always succeeds.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		boardsdk.RefreshRequest	false	"Refresh token (optional with cookie)"
//	@Success		200		{object}	boardsdk.MessageResponse
//	@Router			/api/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := refreshToken(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.AuthService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.clearCookies(w)
	httpx.WriteJSON(w, http.StatusOK, boardsdk.MessageResponse{Message: "Logged out"})
}

// HandleMe godoc
//
//	@Summary		Current user
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	boardsdk.User
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Me(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUser(user))
}

func refreshToken(w http.ResponseWriter, r *http.Request) (string, error) {
	var req boardsdk.RefreshRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return "", err
	}
	if req.RefreshToken != "" {
		return req.RefreshToken, nil
	}
	if c, err := r.Cookie(RefreshCookie); err == nil {
		return c.Value, nil
	}
	return "", nil
}

func authResponse(u *boardsdk.User, pair domain.TokenPair) boardsdk.AuthResponse {
	return boardsdk.AuthResponse{
		User:             u,
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}
}

func (h *AuthHandler) setCookies(w http.ResponseWriter, pair domain.TokenPair) {
	http.SetCookie(w, h.cookie(AccessCookie, "/", pair.AccessToken, pair.AccessExpiresAt))
	http.SetCookie(w, h.cookie(RefreshCookie, refreshCookiePath, pair.RefreshToken, pair.RefreshExpiresAt))
}

func (h *AuthHandler) clearCookies(w http.ResponseWriter) {
	for _, c := range []*http.Cookie{
		h.cookie(AccessCookie, "/", "", time.Unix(0, 0)),
		h.cookie(RefreshCookie, refreshCookiePath, "", time.Unix(0, 0)),
	} {
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *AuthHandler) cookie(name, path, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   h.Cookies.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
