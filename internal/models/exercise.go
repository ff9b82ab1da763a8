package models

import "github.com/google/uuid"

// MuscleGroup tags an exercise with the body region it trains.
type MuscleGroup struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Exercise is an entry of the exercise template library. MuscleGroups are
// ordered, primary group first.
type Exercise struct {
	ID             uuid.UUID     `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	RequiresWeight bool          `json:"requiresWeight"`
	MuscleGroups   []MuscleGroup `json:"muscleGroups"`
}

// HasMuscleGroup reports whether the exercise trains the given group.
func (e *Exercise) HasMuscleGroup(id uuid.UUID) bool {
	for _, g := range e.MuscleGroups {
		if g.ID == id {
			return true
		}
	}
	return false
}

// ExerciseRequest is the create/update payload for an exercise template.
type ExerciseRequest struct {
	Name           string      `json:"name" validate:"required,max=200"`
	Description    string      `json:"description,omitempty" validate:"max=2000"`
	RequiresWeight bool        `json:"requiresWeight"`
	MuscleGroupIDs []uuid.UUID `json:"muscleGroupIds" validate:"dive,required"`
}
