// Package workouttest provides an in-memory workout.Repository for tests.
package workouttest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/workout"
	"github.com/google/uuid"
)

var _ workout.Repository = (*Memory)(nil)

// Memory keeps workouts and exercises in maps. Stored workouts are copied on
// the way in and out so callers cannot mutate repository state.
type Memory struct {
	mu        sync.Mutex
	workouts  map[uuid.UUID]models.Workout
	exercises map[uuid.UUID]models.Exercise
	// Saves counts SaveWorkout calls.
	Saves int
}

// New returns an empty Memory.
func New() *Memory {
	return &Memory{
		workouts:  make(map[uuid.UUID]models.Workout),
		exercises: make(map[uuid.UUID]models.Exercise),
	}
}

// AddExercise registers an exercise and returns it.
func (m *Memory) AddExercise(ex models.Exercise) models.Exercise {
	if ex.ID == uuid.Nil {
		ex.ID = uuid.New()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exercises[ex.ID] = ex
	return ex
}

func (m *Memory) GetWorkout(_ context.Context, id uuid.UUID, userID int) (*models.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return nil, models.ErrNotFound
	}
	c := clone(w)
	return &c, nil
}

func (m *Memory) ListWorkouts(_ context.Context, userID int) ([]models.Workout, error) {
	return m.filter(func(w models.Workout) bool { return w.UserID == userID }), nil
}

func (m *Memory) QueryWorkouts(_ context.Context, start, end time.Time, userID int) ([]models.Workout, error) {
	return m.filter(func(w models.Workout) bool {
		d, ok := w.Date()
		return w.UserID == userID && ok && !d.Before(start) && d.Before(end)
	}), nil
}

func (m *Memory) SaveWorkout(_ context.Context, w *models.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workouts[w.ID] = clone(*w)
	m.Saves++
	return nil
}

func (m *Memory) DeleteWorkout(_ context.Context, id uuid.UUID, userID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workouts[id]
	if !ok || w.UserID != userID {
		return models.ErrNotFound
	}
	delete(m.workouts, id)
	return nil
}

func (m *Memory) GetExercises(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uuid.UUID]models.Exercise, len(ids))
	for _, id := range ids {
		if ex, ok := m.exercises[id]; ok {
			out[id] = ex
		}
	}
	return out, nil
}

// ListExercises returns every registered exercise ordered by name.
func (m *Memory) ListExercises(_ context.Context) ([]models.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Exercise, 0, len(m.exercises))
	for _, ex := range m.exercises {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// filter returns matching workouts ordered by date, then creation time.
func (m *Memory) filter(keep func(models.Workout) bool) []models.Workout {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Workout{}
	for _, w := range m.workouts {
		if keep(w) {
			out = append(out, clone(w))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, _ := out[i].Date()
		dj, _ := out[j].Date()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func clone(w models.Workout) models.Workout {
	w.Sets = append([]models.WorkoutSet(nil), w.Sets...)
	if w.Sets == nil {
		w.Sets = []models.WorkoutSet{}
	}
	return w
}
