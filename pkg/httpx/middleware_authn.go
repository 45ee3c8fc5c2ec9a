package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/agileboard/pkg/jwtx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

// AuthnMiddleware requires a valid access token, read from the named cookie
// or from an "Authorization: Bearer" header. The header wins when both are
// present so API clients are not confused by a stale browser cookie.
func AuthnMiddleware(v *jwtx.Verifier, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := AccessToken(r, cookieName)
			if raw == "" {
				writeUnauthorized(w, "Authentication required")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Warn("access token rejected", "err", err, "ip", IPKeyExtractor(r))
				writeUnauthorized(w, "Invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, claims)))
		})
	}
}

// AccessToken extracts the raw access token from the request.
func AccessToken(r *http.Request, cookieName string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
}
