package mcp

import (
	"context"
	"time"

	"github.com/claude/limitbeyond/internal/client"
	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and *client.Client (remote via REST API) satisfy this interface.
type DataSource interface {
	QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.Workout, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
	ListMuscleGroups(ctx context.Context) ([]models.MuscleGroup, error)
}

var (
	_ DataSource = (*storage.DB)(nil)
	_ DataSource = (*client.Client)(nil)
)
