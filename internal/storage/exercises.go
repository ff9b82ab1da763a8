package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const exerciseColumns = `e.id, e.name, e.description, e.requires_weight`

// ListMuscleGroups returns every muscle group ordered by name.
func (db *DB) ListMuscleGroups(ctx context.Context) ([]models.MuscleGroup, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name FROM muscle_groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying muscle groups: %w", err)
	}
	defer rows.Close()

	result := []models.MuscleGroup{}
	for rows.Next() {
		var g models.MuscleGroup
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning muscle group: %w", err)
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// ListExercises returns the whole exercise library ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	return queryExercises(ctx, db.Pool,
		`SELECT `+exerciseColumns+` FROM exercises e ORDER BY e.name`)
}

// ListExercisesByMuscleGroup returns exercises tagged with the given group.
func (db *DB) ListExercisesByMuscleGroup(ctx context.Context, groupID uuid.UUID) ([]models.Exercise, error) {
	return queryExercises(ctx, db.Pool,
		`SELECT `+exerciseColumns+` FROM exercises e
		 JOIN exercise_muscle_groups emg ON emg.exercise_id = e.id
		 WHERE emg.muscle_group_id = $1
		 ORDER BY e.name`, groupID)
}

// GetExercise returns one exercise with its muscle groups.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	list, err := queryExercises(ctx, db.Pool,
		`SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, models.ErrNotFound
	}
	return &list[0], nil
}

// GetExercises resolves a set of ids. Unknown ids are absent from the map.
func (db *DB) GetExercises(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Exercise, error) {
	list, err := queryExercises(ctx, db.Pool,
		`SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Exercise, len(list))
	for _, ex := range list {
		out[ex.ID] = ex
	}
	return out, nil
}

// CreateExercise inserts an exercise and its ordered muscle groups.
func (db *DB) CreateExercise(ctx context.Context, req models.ExerciseRequest) (*models.Exercise, error) {
	created, err := db.BulkCreateExercises(ctx, []models.ExerciseRequest{req})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

// BulkCreateExercises inserts all exercises in one transaction. Either every
// exercise is created or none is.
func (db *DB) BulkCreateExercises(ctx context.Context, reqs []models.ExerciseRequest) ([]models.Exercise, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		id := uuid.New()
		_, err := tx.Exec(ctx,
			`INSERT INTO exercises (id, name, description, requires_weight) VALUES ($1, $2, $3, $4)`,
			id, req.Name, req.Description, req.RequiresWeight)
		if err != nil {
			return nil, fmt.Errorf("inserting exercise %q: %w", req.Name, mapError(err, models.ErrInvalidReference))
		}
		if err := insertMuscleGroups(ctx, tx, id, req.MuscleGroupIDs); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	created, err := queryExercises(ctx, tx,
		`SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing exercises: %w", err)
	}

	byID := make(map[uuid.UUID]models.Exercise, len(created))
	for _, ex := range created {
		byID[ex.ID] = ex
	}
	out := make([]models.Exercise, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

// UpdateExercise rewrites an exercise and replaces its muscle groups.
func (db *DB) UpdateExercise(ctx context.Context, id uuid.UUID, req models.ExerciseRequest) (*models.Exercise, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exercises SET name = $2, description = $3, requires_weight = $4 WHERE id = $1`,
		id, req.Name, req.Description, req.RequiresWeight)
	if err != nil {
		return nil, fmt.Errorf("updating exercise: %w", mapError(err, models.ErrInvalidReference))
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM exercise_muscle_groups WHERE exercise_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clearing muscle groups: %w", err)
	}
	if err := insertMuscleGroups(ctx, tx, id, req.MuscleGroupIDs); err != nil {
		return nil, err
	}

	list, err := queryExercises(ctx, tx, `SELECT `+exerciseColumns+` FROM exercises e WHERE e.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing exercise: %w", err)
	}
	return &list[0], nil
}

// DeleteExercise removes an exercise. Exercises used by workout sets cannot be
// deleted and yield models.ErrConflict.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting exercise: %w", mapError(err, models.ErrConflict))
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func insertMuscleGroups(ctx context.Context, q querier, exerciseID uuid.UUID, groupIDs []uuid.UUID) error {
	if len(groupIDs) == 0 {
		return nil
	}

	query := `INSERT INTO exercise_muscle_groups (exercise_id, muscle_group_id, position) VALUES `
	args := make([]any, 0, len(groupIDs)*3)
	valueStrings := make([]string, 0, len(groupIDs))
	for i, g := range groupIDs {
		base := i * 3
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d)", base+1, base+2, base+3))
		args = append(args, exerciseID, g, i)
	}
	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	if _, err := q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting muscle groups: %w", mapError(err, models.ErrInvalidReference))
	}
	return nil
}

// queryExercises runs a query selecting exerciseColumns and attaches the
// ordered muscle groups of every returned exercise.
func queryExercises(ctx context.Context, q querier, sql string, args ...any) ([]models.Exercise, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	list, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Exercise, error) {
		var e models.Exercise
		err := row.Scan(&e.ID, &e.Name, &e.Description, &e.RequiresWeight)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning exercise: %w", err)
	}
	if len(list) == 0 {
		return []models.Exercise{}, nil
	}

	ids := make([]uuid.UUID, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	groups, err := muscleGroupsFor(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].MuscleGroups = groups[list[i].ID]
		if list[i].MuscleGroups == nil {
			list[i].MuscleGroups = []models.MuscleGroup{}
		}
	}
	return list, nil
}

func muscleGroupsFor(ctx context.Context, q querier, exerciseIDs []uuid.UUID) (map[uuid.UUID][]models.MuscleGroup, error) {
	rows, err := q.Query(ctx,
		`SELECT emg.exercise_id, mg.id, mg.name
		 FROM exercise_muscle_groups emg
		 JOIN muscle_groups mg ON mg.id = emg.muscle_group_id
		 WHERE emg.exercise_id = ANY($1)
		 ORDER BY emg.exercise_id, emg.position`, exerciseIDs)
	if err != nil {
		return nil, fmt.Errorf("querying exercise muscle groups: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.MuscleGroup, len(exerciseIDs))
	for rows.Next() {
		var exID uuid.UUID
		var g models.MuscleGroup
		if err := rows.Scan(&exID, &g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning muscle group: %w", err)
		}
		out[exID] = append(out[exID], g)
	}
	return out, rows.Err()
}
