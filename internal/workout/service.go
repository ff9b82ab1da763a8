// Package workout implements the workout lifecycle: creation from requests,
// set completion, copying, deletion and date-range statistics.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/stats"
	"github.com/claude/limitbeyond/internal/validate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrSetNotFound      = errors.New("set not found")
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrInvalidRange     = errors.New("end must be after start")
)

// Repository persists workouts. Lookups scoped to a user return
// models.ErrNotFound for rows owned by someone else.
type Repository interface {
	GetWorkout(ctx context.Context, id uuid.UUID, userID int) (*models.Workout, error)
	ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error)
	QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.Workout, error)
	SaveWorkout(ctx context.Context, w *models.Workout) error
	DeleteWorkout(ctx context.Context, id uuid.UUID, userID int) error
	GetExercises(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Exercise, error)
}

// Service holds the workout business rules on top of a Repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
	log      *slog.Logger
	now      func() time.Time
}

// NewService creates a Service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validate.New(),
		log:      log,
		now:      time.Now,
	}
}

// Create validates req and stores a new workout for userID.
func (s *Service) Create(ctx context.Context, userID int, req models.WorkoutRequest) (*models.Workout, error) {
	if err := validate.Struct(s.validate, req); err != nil {
		return nil, err
	}
	sets, err := s.buildSets(ctx, req.Sets)
	if err != nil {
		return nil, err
	}

	now := s.now()
	w := &models.Workout{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          req.Name,
		Description:   req.Description,
		Notes:         req.Notes,
		ScheduledDate: req.ScheduledDate,
		Sets:          sets,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.SaveWorkout(ctx, w); err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	s.log.Info("workout created", "workout_id", w.ID, "user_id", userID, "sets", len(sets))
	return w, nil
}

// Get returns one workout.
func (s *Service) Get(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	return s.repo.GetWorkout(ctx, id, userID)
}

// List returns every workout of userID.
func (s *Service) List(ctx context.Context, userID int) ([]models.Workout, error) {
	return s.repo.ListWorkouts(ctx, userID)
}

// ListByDateRange returns workouts whose scheduled (or else completed) date
// falls in [start, end).
func (s *Service) ListByDateRange(ctx context.Context, userID int, start, end time.Time) ([]models.Workout, error) {
	if !end.After(start) {
		return nil, ErrInvalidRange
	}
	return s.repo.QueryWorkouts(ctx, start, end, userID)
}

// ListByMuscleGroup returns workouts containing at least one set whose
// exercise trains the given muscle group.
func (s *Service) ListByMuscleGroup(ctx context.Context, userID int, groupID uuid.UUID) ([]models.Workout, error) {
	all, err := s.repo.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Filter(all, func(w models.Workout, _ int) bool {
		return lo.SomeBy(w.Sets, func(set models.WorkoutSet) bool {
			return set.Exercise != nil && set.Exercise.HasMuscleGroup(groupID)
		})
	}), nil
}

// Update replaces the workout's details. Sets are replaced only when
// req.Sets is non-nil; replaced sets start uncompleted.
func (s *Service) Update(ctx context.Context, userID int, id uuid.UUID, req models.WorkoutRequest) (*models.Workout, error) {
	if err := validate.Struct(s.validate, req); err != nil {
		return nil, err
	}
	w, err := s.repo.GetWorkout(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	w.Name = req.Name
	w.Description = req.Description
	w.Notes = req.Notes
	w.ScheduledDate = req.ScheduledDate
	if req.Sets != nil {
		sets, err := s.buildSets(ctx, req.Sets)
		if err != nil {
			return nil, err
		}
		w.Sets = sets
		w.Completed = false
		w.CompletedDate = nil
	}
	return s.save(ctx, w)
}

// CompleteSet marks one set completed. When every set is then completed the
// workout itself becomes completed.
func (s *Service) CompleteSet(ctx context.Context, userID int, workoutID, setID uuid.UUID) (*models.Workout, error) {
	w, err := s.repo.GetWorkout(ctx, workoutID, userID)
	if err != nil {
		return nil, err
	}
	if err := setCompletion(w, setID, true); err != nil {
		return nil, err
	}
	if w.AllSetsCompleted() && !w.Completed {
		s.markCompleted(w)
	}
	return s.save(ctx, w)
}

// UncompleteSet clears one set's completion and with it the workout's.
func (s *Service) UncompleteSet(ctx context.Context, userID int, workoutID, setID uuid.UUID) (*models.Workout, error) {
	w, err := s.repo.GetWorkout(ctx, workoutID, userID)
	if err != nil {
		return nil, err
	}
	if err := setCompletion(w, setID, false); err != nil {
		return nil, err
	}
	w.Completed = false
	w.CompletedDate = nil
	return s.save(ctx, w)
}

// CompleteWorkout marks every set and the workout completed.
func (s *Service) CompleteWorkout(ctx context.Context, userID int, id uuid.UUID) (*models.Workout, error) {
	return s.CompleteWorkoutAt(ctx, userID, id, s.now())
}

// CompleteWorkoutAt is CompleteWorkout with an explicit completion time, for
// sessions recorded after the fact. An already completed workout keeps its
// completion date.
func (s *Service) CompleteWorkoutAt(ctx context.Context, userID int, id uuid.UUID, at time.Time) (*models.Workout, error) {
	w, err := s.repo.GetWorkout(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	for i := range w.Sets {
		w.Sets[i].Completed = true
	}
	if !w.Completed {
		w.Completed = true
		w.CompletedDate = &at
	}
	return s.save(ctx, w)
}

// Copy duplicates a workout onto a new date. The copy's sets get new ids and
// start uncompleted.
func (s *Service) Copy(ctx context.Context, userID int, id uuid.UUID, newDate time.Time) (*models.Workout, error) {
	orig, err := s.repo.GetWorkout(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cp := &models.Workout{
		ID:            uuid.New(),
		UserID:        userID,
		Name:          orig.Name + " (Copy)",
		Description:   orig.Description,
		Notes:         orig.Notes,
		ScheduledDate: &newDate,
		Sets: lo.Map(orig.Sets, func(set models.WorkoutSet, _ int) models.WorkoutSet {
			set.ID = uuid.New()
			set.Completed = false
			return set
		}),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.SaveWorkout(ctx, cp); err != nil {
		return nil, fmt.Errorf("saving copy: %w", err)
	}
	s.log.Info("workout copied", "from", id, "to", cp.ID, "date", newDate.Format(models.DateKeyLayout))
	return cp, nil
}

// Delete removes a workout and its sets.
func (s *Service) Delete(ctx context.Context, userID int, id uuid.UUID) error {
	return s.repo.DeleteWorkout(ctx, id, userID)
}

// Stats aggregates the workouts in [start, end).
func (s *Service) Stats(ctx context.Context, userID int, start, end time.Time) (stats.Summary, error) {
	return s.StatsIn(ctx, userID, start, end, nil)
}

// StatsIn is Stats with days keyed on the calendar of loc.
func (s *Service) StatsIn(ctx context.Context, userID int, start, end time.Time, loc *time.Location) (stats.Summary, error) {
	workouts, err := s.ListByDateRange(ctx, userID, start, end)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.AggregateIn(workouts, loc)
}

func (s *Service) save(ctx context.Context, w *models.Workout) (*models.Workout, error) {
	w.UpdatedAt = s.now()
	if err := s.repo.SaveWorkout(ctx, w); err != nil {
		return nil, fmt.Errorf("saving workout: %w", err)
	}
	return w, nil
}

func (s *Service) markCompleted(w *models.Workout) {
	now := s.now()
	w.Completed = true
	w.CompletedDate = &now
}

func (s *Service) buildSets(ctx context.Context, reqs []models.WorkoutSetRequest) ([]models.WorkoutSet, error) {
	if len(reqs) == 0 {
		return []models.WorkoutSet{}, nil
	}
	ids := lo.Uniq(lo.Map(reqs, func(r models.WorkoutSetRequest, _ int) uuid.UUID { return r.ExerciseID }))
	exercises, err := s.repo.GetExercises(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading exercises: %w", err)
	}

	sets := make([]models.WorkoutSet, 0, len(reqs))
	for _, r := range reqs {
		ex, ok := exercises[r.ExerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrExerciseNotFound, r.ExerciseID)
		}
		sets = append(sets, models.WorkoutSet{
			ID:       uuid.New(),
			Exercise: &ex,
			Reps:     r.Reps,
			Weight:   r.Weight,
			Notes:    r.Notes,
		})
	}
	return sets, nil
}

func setCompletion(w *models.Workout, setID uuid.UUID, completed bool) error {
	for i := range w.Sets {
		if w.Sets[i].ID == setID {
			w.Sets[i].Completed = completed
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrSetNotFound, setID)
}
