// Package server provides the HTTP API for Tarjama.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/foodlang/tarjama/internal/config"
	"github.com/foodlang/tarjama/internal/service"
)

// maxUploadBytes caps multipart uploads (glossary workbooks, label images).
const maxUploadBytes = 32 << 20

// Server is the HTTP server for the Tarjama API.
type Server struct {
	svc    *service.Service
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(svc *service.Service, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		config: cfg,
		logger: logger,
	}
}

// Handler builds the route tree. Exposed for tests.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(middleware.Compress(5))

	r.Post("/api/v1/translate", s.handleTranslate)
	r.Post("/api/v1/extract", s.handleExtract)
	r.Get("/api/v1/usage", s.handleUsageSummary)
	r.Get("/api/v1/status", s.handleStatus)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/glossary", s.handleUploadGlossary)
		r.Get("/glossary/search", s.handleSearchGlossary)
		r.Post("/rollback", s.handleRollback)
		r.Get("/versions", s.handleVersions)
		r.Get("/usage", s.handleUsage)
	})

	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
