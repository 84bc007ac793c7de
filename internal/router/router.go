package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"openlingua/internal/config"
	"openlingua/internal/handler"
	"openlingua/internal/middleware"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Health *handler.HealthHandler
	// OAuth is nil when Google sign-in is not configured.
	OAuth *handler.OAuthHandler
	// Metrics serves the Prometheus exposition; nil disables /metrics.
	Metrics http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/", h.Health.Info)
	r.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api/auth", func(auth chi.Router) {
		auth.Use(middleware.Timeout(cfg.RequestTimeout))

		auth.Post("/register", h.Auth.Register)
		auth.Post("/login", h.Auth.Login)
		auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
		auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		auth.With(authMiddleware.RequireAuth).Get("/activity", h.Auth.Activity)

		if h.OAuth != nil {
			auth.Get("/google", h.OAuth.GoogleStart)
			auth.Get("/google/callback", h.OAuth.GoogleCallback)
		}
	})

	return r
}
