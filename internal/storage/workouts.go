package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workoutColumns = `id, user_id, name, description, notes, scheduled_date, completed_date,
	completed, created_at, updated_at`

// GetWorkout retrieves a single workout with its sets.
func (db *DB) GetWorkout(ctx context.Context, workoutID uuid.UUID, userID int) (*models.Workout, error) {
	list, err := db.queryWorkouts(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1 AND user_id = $2`,
		workoutID, userID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return &list[0], nil
}

// ListWorkouts returns every workout of a user, oldest first.
func (db *DB) ListWorkouts(ctx context.Context, userID int) ([]models.Workout, error) {
	return db.queryWorkouts(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $1
		 ORDER BY COALESCE(scheduled_date, completed_date, created_at), created_at`,
		userID)
}

// QueryWorkouts returns workouts whose scheduled date, or completion date when
// unscheduled, falls in [start, end).
func (db *DB) QueryWorkouts(ctx context.Context, start, end time.Time, userID int) ([]models.Workout, error) {
	return db.queryWorkouts(ctx,
		`SELECT `+workoutColumns+` FROM workouts
		 WHERE user_id = $3
		   AND COALESCE(scheduled_date, completed_date) >= $1
		   AND COALESCE(scheduled_date, completed_date) < $2
		 ORDER BY COALESCE(scheduled_date, completed_date), created_at`,
		start, end, userID)
}

// SaveWorkout inserts or updates a workout and replaces its sets in one
// transaction. Updating a workout owned by another user yields ErrNotFound.
func (db *DB) SaveWorkout(ctx context.Context, w *models.Workout) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO workouts (id, user_id, name, description, notes, scheduled_date, completed_date,
		 completed, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			notes = EXCLUDED.notes,
			scheduled_date = EXCLUDED.scheduled_date,
			completed_date = EXCLUDED.completed_date,
			completed = EXCLUDED.completed,
			updated_at = EXCLUDED.updated_at
		 WHERE workouts.user_id = EXCLUDED.user_id`,
		w.ID, w.UserID, w.Name, w.Description, w.Notes, w.ScheduledDate, w.CompletedDate,
		w.Completed, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting workout: %w", mapError(err, models.ErrInvalidReference))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM workout_sets WHERE workout_id = $1`, w.ID); err != nil {
		return fmt.Errorf("clearing workout sets: %w", err)
	}
	if err := insertSets(ctx, tx, w.ID, w.Sets); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing workout: %w", err)
	}
	return nil
}

// DeleteWorkout removes a workout; its sets cascade.
func (db *DB) DeleteWorkout(ctx context.Context, workoutID uuid.UUID, userID int) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("deleting workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func insertSets(ctx context.Context, q querier, workoutID uuid.UUID, sets []models.WorkoutSet) error {
	if len(sets) == 0 {
		return nil
	}

	query := `INSERT INTO workout_sets (id, workout_id, position, exercise_id, reps, weight, notes, completed) VALUES `
	args := make([]any, 0, len(sets)*8)
	valueStrings := make([]string, 0, len(sets))

	for i, s := range sets {
		if s.Exercise == nil {
			return fmt.Errorf("set %s has no exercise: %w", s.ID, models.ErrInvalidReference)
		}
		base := i * 8
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args, s.ID, workoutID, i, s.Exercise.ID, s.Reps, s.Weight, s.Notes, s.Completed)
	}

	query += strings.Join(valueStrings, ",")

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting workout sets: %w", mapError(err, models.ErrInvalidReference))
	}
	return nil
}

// queryWorkouts runs a query selecting workoutColumns and loads the sets of
// every returned workout with two extra round trips.
func (db *DB) queryWorkouts(ctx context.Context, sql string, args ...any) ([]models.Workout, error) {
	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Workout, error) {
		var w models.Workout
		err := row.Scan(&w.ID, &w.UserID, &w.Name, &w.Description, &w.Notes,
			&w.ScheduledDate, &w.CompletedDate, &w.Completed, &w.CreatedAt, &w.UpdatedAt)
		return w, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning workout: %w", err)
	}
	if len(list) == 0 {
		return []models.Workout{}, nil
	}

	ids := make([]uuid.UUID, len(list))
	for i, w := range list {
		ids[i] = w.ID
	}
	sets, err := db.setsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Sets = sets[list[i].ID]
		if list[i].Sets == nil {
			list[i].Sets = []models.WorkoutSet{}
		}
	}
	return list, nil
}

func (db *DB) setsFor(ctx context.Context, workoutIDs []uuid.UUID) (map[uuid.UUID][]models.WorkoutSet, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.workout_id, s.id, s.reps, s.weight, s.notes, s.completed,
		 e.id, e.name, e.description, e.requires_weight
		 FROM workout_sets s
		 JOIN exercises e ON e.id = s.exercise_id
		 WHERE s.workout_id = ANY($1)
		 ORDER BY s.workout_id, s.position`, workoutIDs)
	if err != nil {
		return nil, fmt.Errorf("querying workout sets: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.WorkoutSet, len(workoutIDs))
	exercises := map[uuid.UUID]*models.Exercise{}
	for rows.Next() {
		var workoutID uuid.UUID
		var s models.WorkoutSet
		var e models.Exercise
		if err := rows.Scan(&workoutID, &s.ID, &s.Reps, &s.Weight, &s.Notes, &s.Completed,
			&e.ID, &e.Name, &e.Description, &e.RequiresWeight); err != nil {
			return nil, fmt.Errorf("scanning workout set: %w", err)
		}
		ex, ok := exercises[e.ID]
		if !ok {
			ex = &e
			exercises[e.ID] = ex
		}
		s.Exercise = ex
		out[workoutID] = append(out[workoutID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	ids := make([]uuid.UUID, 0, len(exercises))
	for id := range exercises {
		ids = append(ids, id)
	}
	groups, err := muscleGroupsFor(ctx, db.Pool, ids)
	if err != nil {
		return nil, err
	}
	for id, ex := range exercises {
		ex.MuscleGroups = groups[id]
		if ex.MuscleGroups == nil {
			ex.MuscleGroups = []models.MuscleGroup{}
		}
	}
	return out, nil
}
