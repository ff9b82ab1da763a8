package workout

import (
	"slices"
	"time"

	"github.com/claude/limitbeyond/internal/models"
)

// Draft is an editable workout document. Every edit returns a new Draft and
// leaves the receiver, including its set list, unchanged.
type Draft struct {
	Name          string
	Description   string
	Notes         string
	ScheduledDate *time.Time
	sets          []models.WorkoutSetRequest
}

// NewDraft starts an empty draft.
func NewDraft(name string) Draft {
	return Draft{Name: name}
}

// DraftFrom loads an existing workout into a draft for editing.
func DraftFrom(w *models.Workout) Draft {
	d := Draft{
		Name:          w.Name,
		Description:   w.Description,
		Notes:         w.Notes,
		ScheduledDate: w.ScheduledDate,
		sets:          make([]models.WorkoutSetRequest, 0, len(w.Sets)),
	}
	for _, s := range w.Sets {
		r := models.WorkoutSetRequest{Reps: s.Reps, Weight: s.Weight, Notes: s.Notes}
		if s.Exercise != nil {
			r.ExerciseID = s.Exercise.ID
		}
		d.sets = append(d.sets, r)
	}
	return d
}

// Sets returns a copy of the draft's sets.
func (d Draft) Sets() []models.WorkoutSetRequest {
	return slices.Clone(d.sets)
}

// Len returns the number of sets.
func (d Draft) Len() int {
	return len(d.sets)
}

// AddSet appends a set.
func (d Draft) AddSet(s models.WorkoutSetRequest) Draft {
	d.sets = append(slices.Clone(d.sets), s)
	return d
}

// RemoveSet drops the set at index i. Out of range indexes leave the draft as is.
func (d Draft) RemoveSet(i int) Draft {
	if i < 0 || i >= len(d.sets) {
		return d
	}
	d.sets = slices.Delete(slices.Clone(d.sets), i, i+1)
	return d
}

// UpdateSet replaces the set at index i. Out of range indexes leave the draft as is.
func (d Draft) UpdateSet(i int, s models.WorkoutSetRequest) Draft {
	if i < 0 || i >= len(d.sets) {
		return d
	}
	d.sets = slices.Clone(d.sets)
	d.sets[i] = s
	return d
}

// WithSchedule sets the scheduled date.
func (d Draft) WithSchedule(t time.Time) Draft {
	d.ScheduledDate = &t
	return d
}

// Request converts the draft into a create/update payload.
func (d Draft) Request() models.WorkoutRequest {
	sets := slices.Clone(d.sets)
	if sets == nil {
		sets = []models.WorkoutSetRequest{}
	}
	return models.WorkoutRequest{
		Name:          d.Name,
		Description:   d.Description,
		Notes:         d.Notes,
		ScheduledDate: d.ScheduledDate,
		Sets:          sets,
	}
}
