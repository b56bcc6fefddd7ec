package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
	"github.com/claude/coachlift/internal/pipeline"
)

// Store is the persistence surface the handlers need. *storage.DB
// satisfies it; tests substitute fakes.
type Store interface {
	SearchExercises(ctx context.Context, query string, limit int) ([]models.ExerciseRecord, error)
	InsertProgram(ctx context.Context, coachID, title, pdfURL string, structure *models.ProgramStructure) (*models.ProgramRow, error)
	GetProgram(ctx context.Context, programID, coachID string) (*models.ProgramRow, error)
	ListPrograms(ctx context.Context, coachID string) ([]models.ProgramRow, error)
	UpdateProgramStatus(ctx context.Context, programID, coachID string, status models.ProgramStatus) (bool, error)
	DeleteProgram(ctx context.Context, programID, coachID string) (bool, error)
}

// NameResolver reconciles exercise names on demand, outside a pipeline
// run.
type NameResolver interface {
	MatchAll(ctx context.Context, names []string, opts matching.Options) []models.ExerciseMatch
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	runner   *pipeline.Runner
	resolver NameResolver
	imports  *importRegistry
	log      *slog.Logger
	apiKey   string
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, runner *pipeline.Runner, resolver NameResolver, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		store:    store,
		runner:   runner,
		resolver: resolver,
		imports:  newImportRegistry(),
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
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

	// Import pipeline endpoints (API key required)
	s.router.Route("/api/v1/imports", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleStartImport)
		r.Get("/{id}", s.handleImportStatus)
		r.Post("/{id}/retry", s.handleRetryImport)
	})

	// Program endpoints (API key required)
	s.router.Route("/api/v1/programs", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/", s.handleSaveProgram)
		r.Get("/", s.handleListPrograms)
		r.Get("/{id}", s.handleGetProgram)
		r.Post("/{id}/publish", s.handlePublishProgram)
		r.Delete("/{id}", s.handleDeleteProgram)
	})

	// Exercise endpoints (no auth — tsnet handles access)
	s.router.Get("/api/v1/exercises/search", s.handleSearchExercises)
	s.router.Post("/api/v1/exercises/match", s.handleMatchExercises)
}
