// Package server exposes imports, exports and templates over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/backoffice/internal/exporter"
	"github.com/cleared-dev/backoffice/internal/importer"
	"github.com/cleared-dev/backoffice/internal/model"
)

// maxUploadBytes caps the multipart body of an import.
const maxUploadBytes = 32 << 20

// ReferenceSource supplies reference data for export filters.
type ReferenceSource interface {
	ReferenceData(ctx context.Context) (model.ReferenceData, error)
}

// Server is the HTTP surface of the backoffice.
type Server struct {
	registry  *importer.Registry
	importer  *importer.Importer
	exporter  *exporter.Exporter
	reference ReferenceSource
	log       zerolog.Logger
	router    *chi.Mux

	mu       sync.Mutex
	inFlight map[string]bool // entity name -> import running
}

// New creates a server. All collaborators are required.
func New(reg *importer.Registry, im *importer.Importer, ex *exporter.Exporter, ref ReferenceSource, log zerolog.Logger) *Server {
	s := &Server{
		registry:  reg,
		importer:  im,
		exporter:  ex,
		reference: ref,
		log:       log,
		router:    chi.NewRouter(),
		inFlight:  make(map[string]bool),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/entities", s.handleEntities)
		r.Post("/imports/{entity}", s.handleImport)
		r.Get("/exports/{entity}", s.handleExport)
		r.Get("/templates/{entity}", s.handleTemplate)
	})
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

// acquire marks entity as importing. It fails when an import of the same
// entity is already running.
func (s *Server) acquire(entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[entity] {
		return false
	}
	s.inFlight[entity] = true
	return true
}

func (s *Server) release(entity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, entity)
}

// requestLogger logs each request with its status and duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}
