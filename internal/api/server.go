package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gcsrm/recruitment-portal/internal/config"
	"github.com/gcsrm/recruitment-portal/internal/health"
	"github.com/gcsrm/recruitment-portal/internal/recruitment"
	"github.com/gcsrm/recruitment-portal/internal/storage"
)

// Dependencies are the components the HTTP layer drives
type Dependencies struct {
	Repo      storage.Repository
	Registrar *recruitment.Registrar
	Resolver  *recruitment.Resolver
	Forwarder *recruitment.Forwarder
	Health    *health.Registry
}

// Server represents the HTTP API server
type Server struct {
	config    *config.Config
	router    *chi.Mux
	repo      storage.Repository
	registrar *recruitment.Registrar
	resolver  *recruitment.Resolver
	forwarder *recruitment.Forwarder
	health    *health.Registry
	adminAuth *AdminAuth
	now       func() time.Time
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	registry := deps.Health
	if registry == nil {
		registry = health.NewRegistry()
	}

	s := &Server{
		config:    cfg,
		repo:      deps.Repo,
		registrar: deps.Registrar,
		resolver:  deps.Resolver,
		forwarder: deps.Forwarder,
		health:    registry,
		adminAuth: NewAdminAuth(cfg.Admin.APIKey),
		now:       time.Now,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
		// preflights answer like the plain OPTIONS handlers
		OptionsSuccessStatus: http.StatusNoContent,
	}))

	// Liveness (public)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleStoreHealth)

		r.Post("/register", s.handleRegister)
		r.Get("/task", s.handleTask)

		r.Post("/sheet", s.handleSheet)
		r.Options("/sheet", s.handleSheetOptions)

		// Operator routes are only mounted when a key is configured
		if s.adminAuth.Enabled() {
			r.Route("/admin", func(r chi.Router) {
				r.Use(s.adminAuth.Authenticate)
				r.Get("/stats", s.handleStats)
				r.Get("/participants", s.handleListParticipants)
				r.Get("/tasks", s.handleListTasks)
			})
		}
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
