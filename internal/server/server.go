package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"tailscale.com/client/local"

	"github.com/fitlink/fitstats/internal/catalog"
	"github.com/fitlink/fitstats/internal/ingest"
	"github.com/fitlink/fitstats/internal/stats"
	"github.com/fitlink/fitstats/internal/storage"
)

// ExerciseCatalog is the slice of the exercise catalog the browse endpoints
// read. *catalog.Client satisfies it.
type ExerciseCatalog interface {
	FetchAll(ctx context.Context) ([]catalog.Exercise, error)
	FetchByID(ctx context.Context, id string) (*catalog.Exercise, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	ingest  *ingest.Provider
	stats   *stats.Service
	catalog ExerciseCatalog
	log     *slog.Logger
	apiKey  string
	lc      *local.Client
	router  chi.Router
}

// New creates a new Server with all routes configured. The Tailscale local
// client may be nil; identity then falls back to the dev user.
func New(db *storage.DB, provider *ingest.Provider, statsSvc *stats.Service, cat ExerciseCatalog, lc *local.Client, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		ingest:  provider,
		stats:   statsSvc,
		catalog: cat,
		log:     log,
		apiKey:  apiKey,
		lc:      lc,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	identity := DevIdentity
	if s.lc != nil {
		identity = TailscaleIdentity(s.lc.WhoIs, s.db, s.log)
	}

	// Ingest endpoints (API key required, user resolved from identity)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(identity)
		r.With(APIKeyAuth(s.apiKey)).Post("/", s.handleIngest)
		r.Get("/logs", s.handleIngestLogs)
	})

	// User-facing API (identity via tsnet, or dev user locally)
	s.router.Group(func(r chi.Router) {
		r.Use(identity)

		r.Get("/api/v1/me", s.handleMe)
		r.Put("/api/v1/me/weight", s.handleSetWeight)

		r.Get("/api/v1/statistics", s.handleStatistics)
		r.Get("/api/v1/statistics/improvement", s.handleImprovement)
		r.Get("/api/v1/statistics/weight-history", s.handleWeightHistory)

		r.Get("/api/v1/sessions", s.handleListSessions)
		r.Post("/api/v1/sessions", s.handleCreateSession)
		r.Get("/api/v1/sessions/{id}", s.handleGetSession)
		r.Delete("/api/v1/sessions/{id}", s.handleDeleteSession)

		r.Get("/api/v1/exercises", s.handleListExercises)
		r.Get("/api/v1/exercises/targets", s.handleExerciseTargets)
		r.Get("/api/v1/exercises/{id}", s.handleGetExercise)
	})
}
