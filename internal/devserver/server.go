// Package devserver is a small storefront backend for local development and
// integration tests. It implements exactly the surface the client consumes:
// register, login, canonical current-user, and the cart mirror. It is not
// the production backend; it exists so the stores can be exercised end to
// end without one.
package devserver

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"shopfront/config"
	"shopfront/pkg/database"
	"shopfront/pkg/metrics"
	"shopfront/pkg/middleware"
	"shopfront/pkg/reqid"
)

// Server wires the HTTP surface over the accounts table.
type Server struct {
	db *gorm.DB
}

// New migrates the schema and returns a ready Server.
func New(db *gorm.DB) (*Server, error) {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return nil, fmt.Errorf("devserver: migrate: %w", err)
	}
	return &Server{db: db}, nil
}

// Handler returns the routed http.Handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(metrics.Middleware())
	r.Use(reqid.Middleware())
	r.Use(middleware.Recovery)
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Get("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", s.register)
		r.Post("/login", s.login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)
			r.Get("/user", s.currentUser)
			r.Get("/cart", s.getCart)
			r.Put("/cart", s.putCart)
		})
	})

	return r
}

// Start boots the stub backend on the configured port. Blocks.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	db, err := database.Open()
	if err != nil {
		return err
	}

	srv, err := New(db)
	if err != nil {
		return err
	}

	addr := ":" + config.AppPort()
	fmt.Println("shopfront stub backend on", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
