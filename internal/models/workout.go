package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by repositories when a row does not exist or is
	// not owned by the requesting user.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness clash or a row still referenced elsewhere.
	ErrConflict = errors.New("conflict")
	// ErrInvalidReference reports a payload pointing at a row that does not exist.
	ErrInvalidReference = errors.New("invalid reference")
)

// DateKeyLayout is the calendar-day key format used for daily aggregation.
const DateKeyLayout = "2006-01-02"

// Workout is a scheduled or performed training session with its ordered sets.
type Workout struct {
	ID            uuid.UUID    `json:"id"`
	UserID        int          `json:"userId"`
	Name          string       `json:"name"`
	Description   string       `json:"description,omitempty"`
	Notes         string       `json:"notes,omitempty"`
	ScheduledDate *time.Time   `json:"scheduledDate,omitempty"`
	CompletedDate *time.Time   `json:"completedDate,omitempty"`
	Completed     bool         `json:"completed"`
	Sets          []WorkoutSet `json:"sets"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// WorkoutSet is one performed unit of an exercise.
type WorkoutSet struct {
	ID        uuid.UUID `json:"id"`
	Exercise  *Exercise `json:"exercise,omitempty"`
	Reps      int       `json:"reps"`
	Weight    *float64  `json:"weight,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Completed bool      `json:"completed"`
}

// Date returns the scheduled date if present, otherwise the completion date.
// The second return value is false when neither is set.
func (w *Workout) Date() (time.Time, bool) {
	if w.ScheduledDate != nil {
		return *w.ScheduledDate, true
	}
	if w.CompletedDate != nil {
		return *w.CompletedDate, true
	}
	return time.Time{}, false
}

// DateKey returns the workout's calendar day as yyyy-MM-dd in the date's own
// location, or "" when the workout carries no date at all.
func (w *Workout) DateKey() string {
	return w.DateKeyIn(nil)
}

// DateKeyIn is DateKey for the calendar of loc. A nil loc keeps the date's
// own location.
func (w *Workout) DateKeyIn(loc *time.Location) string {
	d, ok := w.Date()
	if !ok {
		return ""
	}
	if loc != nil {
		d = d.In(loc)
	}
	return d.Format(DateKeyLayout)
}

// AllSetsCompleted reports whether every set is completed. A workout without
// sets is never considered complete by its sets.
func (w *Workout) AllSetsCompleted() bool {
	if len(w.Sets) == 0 {
		return false
	}
	for _, s := range w.Sets {
		if !s.Completed {
			return false
		}
	}
	return true
}

// Volume returns weight × reps for a completed set, or 0 when the set is not
// completed or lacks a positive weight or rep count.
func (s WorkoutSet) Volume() float64 {
	if !s.Completed || s.Weight == nil || *s.Weight <= 0 || s.Reps <= 0 {
		return 0
	}
	return *s.Weight * float64(s.Reps)
}

// WorkoutRequest is the create/update payload for a workout.
type WorkoutRequest struct {
	Name          string              `json:"name" validate:"required,max=200"`
	Description   string              `json:"description,omitempty" validate:"max=2000"`
	Notes         string              `json:"notes,omitempty" validate:"max=2000"`
	ScheduledDate *time.Time          `json:"scheduledDate,omitempty"`
	Sets          []WorkoutSetRequest `json:"sets" validate:"dive"`
}

// WorkoutSetRequest describes one set in a WorkoutRequest.
type WorkoutSetRequest struct {
	ExerciseID uuid.UUID `json:"exerciseId" validate:"required"`
	Reps       int       `json:"reps" validate:"gte=0"`
	Weight     *float64  `json:"weight,omitempty" validate:"omitempty,gte=0"`
	Notes      string    `json:"notes,omitempty" validate:"max=500"`
}
