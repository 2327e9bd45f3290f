package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/BradenHooton/accountdesk/internal/auth"
	"github.com/BradenHooton/accountdesk/internal/handlers"
	"github.com/BradenHooton/accountdesk/internal/middleware"
)

// Handlers groups the HTTP handlers served by the API
type Handlers struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Lookup   *handlers.LookupHandler
	Activity *handlers.ActivityHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	sessions *auth.SessionManager,
	loginRateLimit middleware.RateLimitConfig,
) {
	router.Get("/health", h.Health.Health)

	// Every other route runs inside a server-side session
	router.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Use(sessions.RequireCSRF)

		r.Get("/session", h.Auth.Session)
		r.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)

		// Authenticated operators only
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuthenticated)
			r.Get("/lookup", h.Lookup.Current)
			r.Post("/lookup", h.Lookup.Search)
			r.Get("/activity", h.Activity.GetActivity)
		})
	})
}
