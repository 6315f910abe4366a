package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/me/schedlab/internal/backend"
	"github.com/me/schedlab/internal/config"
	"github.com/me/schedlab/internal/form"
	"github.com/me/schedlab/internal/logging"
	"github.com/me/schedlab/internal/store"
	"github.com/me/schedlab/internal/submit"
	"github.com/me/schedlab/internal/ui"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Server is the schedlab HTTP server: the web UI, the JSON API and /metrics.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	schemas   backend.SchemaProvider
	forms     *form.Manager
	submitter *submit.Service
	runs      store.Store // optional; nil disables run history
	ui        *ui.UI
	secure    bool
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithRunStore enables run history.
func WithRunStore(st store.Store) Option {
	return func(s *Server) {
		s.runs = st
	}
}

// WithSecureCookies marks session cookies Secure, for deployments behind TLS.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secure = secure
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, schemas backend.SchemaProvider, exec backend.Executor, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logging.Component(logger, "server"),
		config:    cfg,
		startTime: time.Now(),
		schemas:   schemas,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.forms = form.NewManager(form.Options{
		ControllerMax: cfg.ControllerMax,
		MaxDimension:  cfg.MaxDimension,
	}, logger)
	s.submitter = submit.NewService(exec, s.runs, cfg.RequestTimeout, logger)
	s.ui = ui.New(schemas, s.forms, s.submitter, s.runs, logger, ui.Config{
		Secure:     s.secure,
		SessionTTL: cfg.SessionTTL,
	})

	s.routes()
	return s
}

// Forms returns the live form manager.
func (s *Server) Forms() *form.Manager {
	return s.forms
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Handle("/metrics", promhttp.Handler())

	// UI routes (HTML)
	s.ui.RegisterRoutes(r)

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		// Algorithms
		r.Route("/algorithms", func(r chi.Router) {
			r.Get("/", s.handleListAlgorithms)
			r.Get("/{name}", s.handleGetAlgorithm)
		})

		// Forms
		r.Route("/forms", func(r chi.Router) {
			r.Post("/", s.handleCreateForm)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetForm)
				r.Delete("/", s.handleDeleteForm)
				r.Put("/algorithm", s.handleLoadAlgorithm)
				r.Put("/values", s.handleSetValues)
				r.Put("/values/{name}", s.handleSetValue)
				r.Put("/cells/{name}", s.handleSetCell)
				r.Post("/submit", s.handleSubmitForm)
			})
		})

		// Run history
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
		})
	})
}
