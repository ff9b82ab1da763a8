package models

import "time"

// Import log statuses.
const (
	ImportRunning = "running"
	ImportSuccess = "success"
	ImportError   = "error"
)

// ImportLog records one training log import and its outcome.
type ImportLog struct {
	ID               int64     `json:"id"`
	UserID           int       `json:"userId"`
	CreatedAt        time.Time `json:"createdAt"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	Sessions         int       `json:"sessions"`
	WorkoutsCreated  int       `json:"workoutsCreated"`
	SetsImported     int       `json:"setsImported"`
	WarmupsSkipped   int       `json:"warmupsSkipped"`
	UnknownExercises []string  `json:"unknownExercises"`
	DurationMs       *int      `json:"durationMs"`
	ErrorMessage     *string   `json:"errorMessage"`
}
