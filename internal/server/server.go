package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/limitbeyond/internal/importer"
	"github.com/claude/limitbeyond/internal/metrics"
	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/storage"
	"github.com/claude/limitbeyond/internal/validate"
	"github.com/claude/limitbeyond/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog is the exercise template library.
type Catalog interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error)
	ListExercisesByMuscleGroup(ctx context.Context, groupID uuid.UUID) ([]models.Exercise, error)
	CreateExercise(ctx context.Context, req models.ExerciseRequest) (*models.Exercise, error)
	UpdateExercise(ctx context.Context, id uuid.UUID, req models.ExerciseRequest) (*models.Exercise, error)
	DeleteExercise(ctx context.Context, id uuid.UUID) error
	BulkCreateExercises(ctx context.Context, reqs []models.ExerciseRequest) ([]models.Exercise, error)
	ListMuscleGroups(ctx context.Context) ([]models.MuscleGroup, error)
}

// Store is everything the handlers read besides workouts.
type Store interface {
	Catalog
	importer.History
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
	QueryImportLogs(ctx context.Context, userID, limit int) ([]models.ImportLog, error)
}

var _ Store = (*storage.DB)(nil)

// Options configures optional server behaviour.
type Options struct {
	APIKey          string
	Instrumentation *metrics.Instrumentation
	// Gatherer, when set, is served on /metrics.
	Gatherer prometheus.Gatherer
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	workouts *workout.Service
	importer *importer.Importer
	store    Store
	instr    *metrics.Instrumentation
	validate *validator.Validate
	log      *slog.Logger
	apiKey   string
	identity func(http.Handler) http.Handler
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(workouts *workout.Service, store Store, opts Options, log *slog.Logger) *Server {
	s := &Server{
		workouts: workouts,
		importer: importer.New(workouts, store, store, log),
		store:    store,
		instr:    opts.Instrumentation,
		validate: validate.New(),
		log:      log,
		apiKey:   opts.APIKey,
		identity: DevIdentity,
		router:   chi.NewRouter(),
	}
	if s.instr == nil {
		s.instr = metrics.New("limitbeyond", "api", prometheus.NewRegistry())
	}
	s.routes(opts.Gatherer)
	return s
}

// SetTailscale switches caller identity from the dev user to tailnet WhoIs.
func (s *Server) SetTailscale(lc WhoIsClient, users UserStore) {
	s.identity = TailscaleIdentity(lc, users, s.log)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.router.Use(PanicRecovery(s.log, s.instr))
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.instr))
	s.router.Use(CORS)

	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.withIdentity)

		r.Get("/me", s.handleMe)
		r.Get("/data-summary", s.handleDataSummary)
		r.Get("/muscle-groups", s.handleListMuscleGroups)
		r.Get("/imports", s.handleListImports)

		r.Route("/workouts", func(r chi.Router) {
			r.Get("/", s.handleListWorkouts)
			r.Post("/", s.handleCreateWorkout)
			r.Post("/import", s.handleImportLog)
			r.Get("/by-date-range", s.handleWorkoutsByDateRange)
			r.Get("/stats", s.handleWorkoutStats)
			r.Get("/by-muscle-group/{groupID}", s.handleWorkoutsByMuscleGroup)
			r.Get("/{id}", s.handleGetWorkout)
			r.Put("/{id}", s.handleUpdateWorkout)
			r.Delete("/{id}", s.handleDeleteWorkout)
			r.Post("/{id}/complete", s.handleCompleteWorkout)
			r.Post("/{id}/copy", s.handleCopyWorkout)
			r.Post("/{id}/sets/{setID}/complete", s.handleCompleteSet)
			r.Post("/{id}/sets/{setID}/uncomplete", s.handleUncompleteSet)
		})

		r.Route("/exercise-templates", func(r chi.Router) {
			r.Get("/public", s.handleListExercises)
			r.Get("/by-muscle-group/{groupID}", s.handleExercisesByMuscleGroup)
			r.Get("/{id}", s.handleGetExercise)

			r.Group(func(r chi.Router) {
				r.Use(APIKeyAuth(s.apiKey))
				r.Get("/", s.handleListExercises)
				r.Post("/", s.handleCreateExercise)
				r.Post("/bulk", s.handleBulkCreateExercises)
				r.Put("/{id}", s.handleUpdateExercise)
				r.Delete("/{id}", s.handleDeleteExercise)
			})
		})

		r.Route("/workout-templates", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Get("/{id}", s.handleGetPlan)
			r.Post("/{id}/days/{day}/copy", s.handleCopyPlanDay)
		})
	})
}

// withIdentity defers to the identity middleware chosen at request time so
// SetTailscale can be called after New.
func (s *Server) withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.identity(next).ServeHTTP(w, r)
	})
}
