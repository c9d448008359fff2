package main

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Frans06/website/internal/auth"
	"github.com/Frans06/website/internal/content"
	"github.com/Frans06/website/internal/logger"
	"github.com/Frans06/website/internal/media"
	"github.com/Frans06/website/internal/middleware"
)

type routerDeps struct {
	log            logger.Logger
	allowedOrigins []string
	health         func(ctx context.Context) error
	metrics        http.Handler
	sessions       *auth.SessionStore
	auth           *auth.Handler
	posts          *content.Handler
	media          *media.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	requireAuth := middleware.RequireAuth(d.sessions)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := d.health(r.Context()); err != nil {
			logger.FromContext(r.Context()).Warn("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", d.metrics)

	// Auth routes
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", d.auth.Login)
		r.Post("/logout", d.auth.Logout)
		r.With(requireAuth).Get("/me", d.auth.Me)
	})

	// Post routes (reads public, writes protected)
	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", d.posts.List)
		r.Get("/{slug}", d.posts.Get)
		r.With(requireAuth).Post("/", d.posts.Create)
	})

	// Media routes
	r.Route("/api/media", func(r chi.Router) {
		r.Use(requireAuth)
		r.Put("/{name}", d.media.Upload)
		r.Delete("/{name}", d.media.Delete)
	})
	r.Get("/media/{name}", d.media.Download)

	return r
}
