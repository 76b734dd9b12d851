// Package server exposes the geometry pipeline over HTTP.
//
// The API is session-based: a client posts a board document once, then
// fetches geometry buffers and runs clearance checks against the stored
// session. All JSON endpoints return errors in a uniform envelope with a
// machine-readable code.
//
// Routes:
//
//	POST   /boards               upload a board, create a session
//	GET    /boards/{id}          session metadata
//	DELETE /boards/{id}          drop the session
//	GET    /boards/{id}/geometry binary geometry buffer
//	GET    /boards/{id}/objects  hit test at a point
//	POST   /boards/{id}/check    run the clearance check
//	GET    /healthz              liveness probe
package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edalab/copperview/pkg/httputil"
	"github.com/edalab/copperview/pkg/pipeline"
	"github.com/edalab/copperview/pkg/session"
)

// maxBoardBytes bounds uploaded board documents.
const maxBoardBytes = 64 << 20

// Options configures a Server.
type Options struct {
	// Runner executes the geometry pipeline. Required in practice; a nil
	// runner gets a cache-less default.
	Runner *pipeline.Runner

	// Sessions stores uploaded boards. Defaults to an in-memory store.
	Sessions session.Store

	// Notifier, when set, receives a webhook call after every check run.
	Notifier *httputil.Notifier

	// SessionTTL is the session lifetime, extended on every access.
	SessionTTL time.Duration

	Logger *log.Logger
}

// Server is the HTTP surface over the pipeline.
type Server struct {
	router   chi.Router
	runner   *pipeline.Runner
	sessions session.Store
	notifier *httputil.Notifier
	ttl      time.Duration
	logger   *log.Logger
}

// New creates a server and mounts its routes.
func New(opts Options) *Server {
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, opts.Logger)
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemoryStore()
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = session.DefaultTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		router:   chi.NewRouter(),
		runner:   opts.Runner,
		sessions: opts.Sessions,
		notifier: opts.Notifier,
		ttl:      opts.SessionTTL,
		logger:   opts.Logger,
	}
	s.routes()
	return s
}

// Handler returns the mounted router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/boards", func(r chi.Router) {
		r.Post("/", s.handleCreateBoard)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetBoard)
			r.Delete("/", s.handleDeleteBoard)
			r.Get("/geometry", s.handleGetGeometry)
			r.Get("/objects", s.handleGetObjects)
			r.Post("/check", s.handleCheck)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
