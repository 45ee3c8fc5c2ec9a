package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/metrics"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/pkg/httpx"
	"github.com/aussiebroadwan/agileboard/pkg/jwtx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"

	_ "github.com/aussiebroadwan/agileboard/api/board" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	metrics      *metrics.Metrics
	store        store.Store

	AuthService       *service.AuthService
	ProjectService    *service.ProjectService
	InvitationService *service.InvitationService

	Cookies CookieConfig

	// DisableRateLimit turns every rate limiter into a pass-through.
	DisableRateLimit bool
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		metrics:      m,
	}

	// The metrics middleware reads Request.Pattern, so it must sit directly
	// on top of the mux.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		m.Middleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProjects()
	r.registerInvitations()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Agileboard API
//	@version		0.1.0
//	@description	Project collaboration service: accounts, projects, members and the email invitation lifecycle.
//	@description
//	@description				Authenticated endpoints accept the agileboard_access cookie or a Bearer access token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/agileboard
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				EdDSA JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
		return
	}
	r.handler.ServeHTTP(w, req)
}

// limit wraps the rate limiter so tests can switch it off.
func (r *Router) limit(mw httpx.Middleware) httpx.Middleware {
	if r.DisableRateLimit {
		return func(next http.Handler) http.Handler { return next }
	}
	return mw
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.verifier, AccessCookie)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, Cookies: r.Cookies}

	// Credential endpoints - strict limit by IP
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			r.limit(httpx.RateLimitByIP(httpx.AuthLimit)),
		),
	)
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			r.limit(httpx.RateLimitByIP(httpx.AuthLimit)),
		),
	)
	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			r.limit(httpx.RateLimitByIP(httpx.UserLimit)),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.limit(httpx.RateLimitByIP(httpx.UserLimit)),
		),
	)

	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			r.authn(),
			r.limit(httpx.RateLimitByUser(httpx.UserLimit)),
		),
	)
}

func (r *Router) registerProjects() {
	h := &ProjectHandler{ProjectService: r.ProjectService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn(),
			r.limit(httpx.RateLimitByUser(httpx.UserLimit)),
		)
	}

	r.Mux.Handle("POST /api/projects", secured(h.HandleCreate))
	r.Mux.Handle("GET /api/projects", secured(h.HandleList))
	r.Mux.Handle("GET /api/projects/{id}", secured(h.HandleGet))
	r.Mux.Handle("PATCH /api/projects/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /api/projects/{id}", secured(h.HandleDelete))
	r.Mux.Handle("GET /api/projects/{id}/members", secured(h.HandleListMembers))
	r.Mux.Handle("DELETE /api/projects/{id}/members/{userId}", secured(h.HandleRemoveMember))
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{InvitationService: r.InvitationService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			r.authn(),
			r.limit(httpx.RateLimitByUser(httpx.UserLimit)),
		)
	}

	// POST invite - per (user, project) limit, also bounds outgoing mail
	r.Mux.Handle("POST /api/projects/{id}/invite",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			r.authn(),
			r.limit(httpx.RateLimitByUserAndPath(httpx.InviteLimit, "id")),
		),
	)
	r.Mux.Handle("GET /api/projects/{id}/invitations", secured(h.HandleListPending))
	r.Mux.Handle("GET /api/projects/{id}/invitations/history", secured(h.HandleHistory))
	r.Mux.Handle("DELETE /api/projects/{id}/invitations/{invitationId}", secured(h.HandleDelete))

	// Public invite landing page data - limit by IP
	r.Mux.Handle("GET /api/invite/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleInfo),
			r.limit(httpx.RateLimitByIP(httpx.PublicLimit)),
		),
	)
	r.Mux.Handle("POST /api/invite/{token}/accept", secured(h.HandleAccept))
	r.Mux.Handle("POST /api/invite/{token}/decline", secured(h.HandleDecline))

	r.Mux.Handle("GET /api/user/invitations", secured(h.HandleListMine))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			r.limit(httpx.RateLimitByIP(httpx.PublicLimit)),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			r.limit(httpx.RateLimitByIP(httpx.PublicLimit)),
		),
	)
	if r.metrics != nil {
		r.Mux.Handle("GET /metrics", r.metrics.Handler())
	}
}
