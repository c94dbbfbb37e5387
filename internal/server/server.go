// Package server provides the HTTP API for qfactor: factoring runs,
// run history, system status, and live event streaming.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/qfactor/internal/database"
	"github.com/aristath/qfactor/internal/events"
	"github.com/aristath/qfactor/internal/history"
	"github.com/aristath/qfactor/internal/shor"
)

// Factorer runs one complete factoring attempt. *shor.Driver satisfies
// it; tests substitute stubs.
type Factorer interface {
	Factor(ctx context.Context, n uint64) (*shor.Result, error)
}

// DriverFactory builds a Factorer for one request. Seed 0 means
// non-deterministic base selection and sampling.
type DriverFactory func(seed uint64) Factorer

// Config holds everything the server needs to run.
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	DB        *database.DB
	Repo      *history.Repository
	Bus       *events.Bus
	NewDriver DriverFactory
}

// Server is the HTTP server.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config

	systemHandlers *SystemHandlers
	streamHandler  *EventsStreamHandler
	wsHandler      *EventsWSHandler

	// Guards the factoring endpoint: statevector simulation is memory
	// hungry, so only one run executes at a time.
	factorMu sync.Mutex
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DB, cfg.Repo),
		streamHandler:  NewEventsStreamHandler(cfg.Bus, cfg.Log),
		wsHandler:      NewEventsWSHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures the middleware stack
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Streaming endpoints manage their own lifetimes, so the
		// request timeout applies only to the plain API routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoCache)
			r.Get("/events/stream", s.streamHandler.ServeHTTP)
			r.Get("/events/ws", s.wsHandler.ServeHTTP)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Post("/factor", s.handleFactor)

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.handleListRuns)
				r.Get("/{id}", s.handleGetRun)
				r.Get("/{id}/histogram", s.handleGetHistogram)
			})

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
