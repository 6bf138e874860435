// Package api provides the HTTP API server for the vault.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/narvanalabs/vaulty/internal/api/handlers"
	"github.com/narvanalabs/vaulty/internal/api/health"
	"github.com/narvanalabs/vaulty/internal/api/middleware"
	"github.com/narvanalabs/vaulty/internal/auth"
	"github.com/narvanalabs/vaulty/internal/secrets"
	"github.com/narvanalabs/vaulty/internal/store"
	"github.com/narvanalabs/vaulty/internal/vault"
	"github.com/narvanalabs/vaulty/pkg/config"
)

// Version is the current version of the API server.
// This should be set at build time using ldflags.
var Version = "dev"

// Server represents the HTTP API server.
type Server struct {
	router        chi.Router
	httpServer    *http.Server
	store         store.Store
	auth          *auth.Service
	vault         *vault.Service
	config        *config.Config
	logger        *slog.Logger
	healthChecker *health.Checker
}

// NewServer creates a new API server with the given dependencies.
func NewServer(cfg *config.Config, st store.Store, cipher secrets.Cipher, authSvc *auth.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		store:  st,
		auth:   authSvc,
		vault:  vault.NewService(st.Credentials(), cipher, logger),
		config: cfg,
		logger: logger,
	}

	s.healthChecker = health.NewChecker(st, Version)
	s.healthChecker.RegisterCipher(cipher)

	s.setupRouter()
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// setupRouter configures the router with middleware and routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(middleware.Recovery(s.logger))
	if s.config.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.config.RequestTimeout))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health", s.healthChecker.Handler())

	authHandler := handlers.NewAuthHandler(s.store.Users(), s.auth, s.logger)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	passwordHandler := handlers.NewPasswordHandler(s.vault, s.logger)
	r.Route("/passwords", func(r chi.Router) {
		authMiddleware := middleware.NewAuthMiddleware(s.auth, s.logger)
		r.Use(authMiddleware.Authenticate)

		r.Get("/", passwordHandler.List)
		r.Post("/", passwordHandler.Create)
		r.Put("/{id}", passwordHandler.Update)
		r.Delete("/{id}", passwordHandler.Delete)
		r.Get("/{id}/decrypt", passwordHandler.Reveal)
	})

	s.router = r
}

// Start starts the HTTP server and blocks until it fails or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing purposes.
func (s *Server) Router() chi.Router {
	return s.router
}
