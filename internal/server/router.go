// Package server assembles the HTTP router from the application's handlers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/homeguide/service/internal/auth"
	"github.com/homeguide/service/internal/config"
	"github.com/homeguide/service/internal/image"
	appMiddleware "github.com/homeguide/service/internal/middleware"
	"github.com/homeguide/service/internal/space"
	"github.com/homeguide/service/internal/user"
)

// Handlers bundles the per-domain HTTP handlers wired into the router.
type Handlers struct {
	Auth  *auth.Handler
	User  *user.Handler
	Space *space.Handler
	Image *image.Handler
}

// New builds the chi router with the full middleware stack and all routes.
//
// CORS is permissive: guests load public views and request image signing
// from arbitrary origins with no platform login, so preflights must succeed
// before any token check runs. The issuer's own token-based authorization
// happens inside the handler.
func New(cfg *config.Config, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", image.AccessTokenHeader},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at /swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})

		// Public guest endpoints: credential is the space access token,
		// not a platform login.
		r.Get("/view/{accessToken}", h.Space.PublicView)
		r.Get("/images/sign", h.Image.Sign)

		// Protected owner endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))

			r.Get("/users/me", h.User.GetMe)

			r.Route("/spaces", func(r chi.Router) {
				r.Get("/", h.Space.ListSpaces)
				r.Post("/", h.Space.CreateSpace)
				r.Route("/{spaceID}", func(r chi.Router) {
					r.Get("/", h.Space.GetSpace)
					r.Patch("/", h.Space.UpdateSpace)
					r.Delete("/", h.Space.DeleteSpace)
					r.Route("/pages", func(r chi.Router) {
						r.Get("/", h.Space.ListPages)
						r.Post("/", h.Space.CreatePage)
						r.Get("/{pageID}", h.Space.GetPage)
						r.Patch("/{pageID}", h.Space.UpdatePage)
						r.Delete("/{pageID}", h.Space.DeletePage)
					})
				})
			})

			r.Post("/images", h.Image.Upload)
			r.Delete("/images/{filename}", h.Image.Delete)
		})
	})

	return r
}
