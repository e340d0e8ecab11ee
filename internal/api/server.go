// Package api is the HTTP front door: task routes guarded by an API key,
// an OAuth-shaped token endpoint and the consent redirect.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"gorevlerim/internal/config"
	"gorevlerim/internal/todo"
	"gorevlerim/pkg/apikey"
	"gorevlerim/pkg/day"
)

// Options configures a Server.
type Options struct {
	// APIKey is the static secret accepted in x-api-key or ?api_key=.
	APIKey string
	// DefaultUserID owns requests that don't name an owner.
	DefaultUserID string
	CORS          config.CORS
	ConsentURL    string
	// Days defaults to the local clock with yesterday enabled.
	Days *day.Normalizer
}

// Server is the HTTP API server.
type Server struct {
	svc    *todo.Service
	keys   apikey.Store
	opts   Options
	days   day.Normalizer
	log    *slog.Logger
	router chi.Router
}

// New creates a Server. svc should cascade completion to subtasks.
func New(svc *todo.Service, keys apikey.Store, opts Options, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		svc:  svc,
		keys: keys,
		opts: opts,
		days: day.Normalizer{Yesterday: true},
		log:  log,
	}
	if opts.Days != nil {
		s.days = *opts.Days
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.cors)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	// System
	r.Get("/health", s.handleHealth)

	// OAuth
	r.HandleFunc("/oauth/token", s.handleToken)
	r.Get("/oauth/authorize", s.handleAuthorize)

	// Tasks
	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Get("/tasks", s.handleTaskList)
		r.Post("/tasks", s.handleTaskCreate)
		r.Post("/tasks/complete", s.handleTaskComplete)
		r.Post("/tasks/postpone", s.handleTaskPostpone)
		r.Patch("/tasks/{id}", s.handleTaskUpdate)
		r.Delete("/tasks/{id}", s.handleTaskDelete)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusNotFound, "Not found")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write json", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
