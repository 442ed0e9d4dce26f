package http

import (
	"net/http"
	"time"

	"github.com/fuziondot/auth-api/internal/application/auth"
	"github.com/fuziondot/auth-api/internal/config"
	"github.com/fuziondot/auth-api/internal/transport/http/handler"
	appmiddleware "github.com/fuziondot/auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	// Bounds every request's context so a slow store call cannot hang a flow.
	r.Use(chimiddleware.Timeout(15 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10 — applied to the public auth endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:      deps.UserRepo,
		Mailer:        deps.Mailer,
		Tokens:        deps.JWTProvider,
		ResetTokenTTL: cfg.ResetTokenTTL,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)

	r.Get("/health-check", healthH.Ping)

	r.Route("/api/auth", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.With(sensitiveRL.Limit).Post("/register", authH.Register)
		r.Get("/confirm/{token}", authH.Confirm)
		r.With(sensitiveRL.Limit).Post("/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/reset-password", authH.RequestReset)
		r.With(sensitiveRL.Limit).Post("/reset/{token}", authH.CompleteReset)
		r.With(sensitiveRL.Limit).Post("/resend-confirmation", authH.ResendConfirmation)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Get("/me", authH.Me)
		})
	})

	return r
}
