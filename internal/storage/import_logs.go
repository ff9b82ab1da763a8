package storage

import (
	"context"
	"fmt"

	"github.com/claude/limitbeyond/internal/models"
)

// InsertImportLog creates a new import log entry and returns its ID.
func (db *DB) InsertImportLog(ctx context.Context, log models.ImportLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO import_logs (user_id, source, status, sessions, workouts_created,
		 sets_imported, warmups_skipped, unknown_exercises, duration_ms, error_message)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING id`,
		log.UserID, log.Source, log.Status, log.Sessions, log.WorkoutsCreated,
		log.SetsImported, log.WarmupsSkipped, nonNil(log.UnknownExercises),
		log.DurationMs, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting import log: %w", err)
	}
	return id, nil
}

// UpdateImportLog updates an existing import log entry (typically from "running" to "success" or "error").
func (db *DB) UpdateImportLog(ctx context.Context, id int64, log models.ImportLog) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE import_logs SET
		 status = $2, sessions = $3, workouts_created = $4, sets_imported = $5,
		 warmups_skipped = $6, unknown_exercises = $7, duration_ms = $8, error_message = $9
		 WHERE id = $1`,
		id, log.Status, log.Sessions, log.WorkoutsCreated, log.SetsImported,
		log.WarmupsSkipped, nonNil(log.UnknownExercises), log.DurationMs, log.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("updating import log %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// QueryImportLogs returns the most recent import logs for a user.
func (db *DB) QueryImportLogs(ctx context.Context, userID, limit int) ([]models.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, created_at, source, status, sessions, workouts_created,
		 sets_imported, warmups_skipped, unknown_exercises, duration_ms, error_message
		 FROM import_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying import logs: %w", err)
	}
	defer rows.Close()

	result := []models.ImportLog{}
	for rows.Next() {
		var l models.ImportLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.CreatedAt, &l.Source, &l.Status,
			&l.Sessions, &l.WorkoutsCreated, &l.SetsImported, &l.WarmupsSkipped,
			&l.UnknownExercises, &l.DurationMs, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning import log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
