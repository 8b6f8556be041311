package server

import (
	"context"
	"net/http"
	"time"

	"expense-api/internal/auth"
	"expense-api/internal/config"
	"expense-api/internal/http/handlers"
	"expense-api/internal/middleware"
	"expense-api/internal/policy"
	"expense-api/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store) *Server {
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, store),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler builds the full route tree. Split out from New so tests can mount
// it on an httptest server.
func Handler(cfg config.Config, store storage.Store) http.Handler {
	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(time.Now())
	health.Register(mux)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	requireAuth := middleware.RequireAuth(tokenManager, store)

	authHandler := handlers.NewAuthHandler(store, store, tokenManager)
	authHandler.Register(mux, requireAuth)

	pol := policy.Policy{EnforceReadOwnership: cfg.EnforceReadOwnership}
	expenseHandler := handlers.NewExpenseHandler(store, pol, &cfg)
	expenseHandler.Register(mux, requireAuth)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
