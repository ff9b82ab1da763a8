// Package importer turns training log exports into completed workouts.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/workout"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrMalformedLog is returned when the export cannot be parsed.
var ErrMalformedLog = errors.New("malformed training log")

// Workouts creates and completes workouts. *workout.Service satisfies it.
type Workouts interface {
	Create(ctx context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error)
	CompleteWorkoutAt(ctx context.Context, userID int, id uuid.UUID, at time.Time) (*models.Workout, error)
}

var _ Workouts = (*workout.Service)(nil)

// Catalog lists the exercise templates sets are matched against.
type Catalog interface {
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// History records import runs. *storage.DB satisfies it.
type History interface {
	InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log models.ImportLog) error
}

// Source names the import channel in the history.
const Source = "training-log"

// Options tunes an import.
type Options struct {
	// IncludeWarmups imports warmup sets as regular sets.
	IncludeWarmups bool
}

// Result summarises an import.
type Result struct {
	Sessions         int         `json:"sessions"`
	WorkoutsCreated  int         `json:"workoutsCreated"`
	SetsImported     int         `json:"setsImported"`
	WarmupsSkipped   int         `json:"warmupsSkipped"`
	SessionsSkipped  int         `json:"sessionsSkipped"`
	UnknownExercises []string    `json:"unknownExercises"`
	WorkoutIDs       []uuid.UUID `json:"workoutIds"`
}

// Importer stores parsed sessions as completed workouts.
type Importer struct {
	workouts Workouts
	catalog  Catalog
	history  History
	log      *slog.Logger
	now      func() time.Time
}

// New creates an Importer. history may be nil, in which case runs are not recorded.
func New(workouts Workouts, catalog Catalog, history History, log *slog.Logger) *Importer {
	return &Importer{workouts: workouts, catalog: catalog, history: history, log: log, now: time.Now}
}

// Import parses r and creates one completed workout per session for userID.
// Exercises are matched to the catalog by case-insensitive name; unmatched
// exercises are reported and left out, and a session with nothing left is skipped.
// Each run is recorded in the history as running, then success or error.
func (im *Importer) Import(ctx context.Context, userID int, r io.Reader, opts Options) (*Result, error) {
	start := im.now()
	logID, recorded := im.begin(ctx, userID)

	res, err := im.run(ctx, userID, r, opts)
	if recorded {
		im.finish(ctx, logID, userID, start, res, err)
	}
	return res, err
}

func (im *Importer) begin(ctx context.Context, userID int) (int64, bool) {
	if im.history == nil {
		return 0, false
	}
	id, err := im.history.InsertImportLog(ctx, models.ImportLog{UserID: userID, Source: Source, Status: models.ImportRunning})
	if err != nil {
		im.log.Error("import: recording start", "error", err)
		return 0, false
	}
	return id, true
}

func (im *Importer) finish(ctx context.Context, id int64, userID int, start time.Time, res *Result, runErr error) {
	ms := int(im.now().Sub(start).Milliseconds())
	entry := models.ImportLog{UserID: userID, Source: Source, Status: models.ImportSuccess, DurationMs: &ms}
	if res != nil {
		entry.Sessions = res.Sessions
		entry.WorkoutsCreated = res.WorkoutsCreated
		entry.SetsImported = res.SetsImported
		entry.WarmupsSkipped = res.WarmupsSkipped
		entry.UnknownExercises = res.UnknownExercises
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.Status = models.ImportError
		entry.ErrorMessage = &msg
	}
	// The request context may already be done when the run failed on it.
	if err := im.history.UpdateImportLog(context.WithoutCancel(ctx), id, entry); err != nil {
		im.log.Error("import: recording outcome", "id", id, "error", err)
	}
}

func (im *Importer) run(ctx context.Context, userID int, r io.Reader, opts Options) (*Result, error) {
	sessions, err := ParseLog(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLog, err)
	}
	catalog, err := im.catalog.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	byName := lo.KeyBy(catalog, func(e models.Exercise) string { return strings.ToLower(e.Name) })

	res := &Result{Sessions: len(sessions), UnknownExercises: []string{}, WorkoutIDs: []uuid.UUID{}}
	unknown := map[string]bool{}

	for _, s := range sessions {
		req := models.WorkoutRequest{
			Name:  s.Name,
			Notes: "Imported training log, duration " + s.Duration,
			Sets:  []models.WorkoutSetRequest{},
		}
		date := s.Date
		req.ScheduledDate = &date

		for _, ex := range s.Exercises {
			match, ok := byName[strings.ToLower(ex.Name)]
			if !ok {
				if !unknown[ex.Name] {
					unknown[ex.Name] = true
					res.UnknownExercises = append(res.UnknownExercises, ex.Name)
				}
				continue
			}
			for _, set := range ex.Sets {
				if set.Warmup && !opts.IncludeWarmups {
					res.WarmupsSkipped++
					continue
				}
				req.Sets = append(req.Sets, setRequest(match.ID, set))
			}
		}

		if len(req.Sets) == 0 {
			res.SessionsSkipped++
			im.log.Warn("import: session without known exercises", "session", s.Name, "date", s.Date.Format(models.DateKeyLayout))
			continue
		}

		w, err := im.workouts.Create(ctx, userID, req)
		if err != nil {
			return res, fmt.Errorf("creating workout %q: %w", s.Name, err)
		}
		if _, err := im.workouts.CompleteWorkoutAt(ctx, userID, w.ID, s.Date); err != nil {
			return res, fmt.Errorf("completing workout %q: %w", s.Name, err)
		}
		res.WorkoutsCreated++
		res.SetsImported += len(req.Sets)
		res.WorkoutIDs = append(res.WorkoutIDs, w.ID)
	}

	im.log.Info("training log imported",
		"user_id", userID,
		"sessions", res.Sessions,
		"workouts", res.WorkoutsCreated,
		"sets", res.SetsImported,
		"unknown_exercises", len(res.UnknownExercises),
	)
	return res, nil
}

func setRequest(exerciseID uuid.UUID, set LoggedSet) models.WorkoutSetRequest {
	req := models.WorkoutSetRequest{ExerciseID: exerciseID, Reps: set.Reps}
	if set.Weight > 0 {
		w := set.Weight
		req.Weight = &w
	}
	var notes []string
	if set.Warmup {
		notes = append(notes, "warmup")
	}
	if set.PlusBodyweight {
		notes = append(notes, "bodyweight plus load")
	}
	if !set.Warmup {
		notes = append(notes, fmt.Sprintf("RIR %g", set.RIR))
	}
	req.Notes = strings.Join(notes, ", ")
	return req
}
