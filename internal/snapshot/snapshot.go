// Package snapshot keeps the last fetched workouts in a local SQLite file so
// statistics can be computed without reaching the server.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// keySlackDays pads the date_key prefilter in Load.
const keySlackDays = 2

// ErrNeverSynced is returned by LastSync before the first Save.
var ErrNeverSynced = errors.New("snapshot has never been synced")

// Store is a local workout cache.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS workouts (
			id       TEXT PRIMARY KEY,
			date_key TEXT NOT NULL,
			body     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_workouts_date_key ON workouts(date_key)`,
		`CREATE TABLE IF NOT EXISTS sync_state (
			id        INTEGER PRIMARY KEY CHECK (id = 1),
			synced_at TEXT NOT NULL,
			workouts  INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating snapshot tables: %w", err)
		}
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the cache database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the cached workouts with the given snapshot.
func (s *Store) Save(ctx context.Context, workouts []models.Workout) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workouts`); err != nil {
		return fmt.Errorf("clearing snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO workouts (id, date_key, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i := range workouts {
		body, err := json.Marshal(&workouts[i])
		if err != nil {
			return fmt.Errorf("encoding workout %s: %w", workouts[i].ID, err)
		}
		if _, err := stmt.ExecContext(ctx, workouts[i].ID.String(), workouts[i].DateKey(), string(body)); err != nil {
			return fmt.Errorf("caching workout %s: %w", workouts[i].ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_state (id, synced_at, workouts) VALUES (1, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano), len(workouts),
	)
	if err != nil {
		return fmt.Errorf("recording sync time: %w", err)
	}

	return tx.Commit()
}

// Load returns the cached workouts dated in [start, end), ordered by date.
func (s *Store) Load(ctx context.Context, start, end time.Time) ([]models.Workout, error) {
	// date_key is in each workout's own zone, which may differ from the
	// caller's by up to 26 hours. The key range is padded accordingly and the
	// exact bounds are applied below.
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM workouts WHERE date_key >= ? AND date_key <= ? ORDER BY date_key, id`,
		start.AddDate(0, 0, -keySlackDays).Format(models.DateKeyLayout),
		end.AddDate(0, 0, keySlackDays).Format(models.DateKeyLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot: %w", err)
	}
	defer rows.Close()

	out := []models.Workout{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var w models.Workout
		if err := json.Unmarshal([]byte(body), &w); err != nil {
			return nil, fmt.Errorf("decoding cached workout: %w", err)
		}
		d, ok := w.Date()
		if !ok || d.Before(start) || !d.Before(end) {
			continue
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Get returns one cached workout.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM workouts WHERE id = ?`, id.String()).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cached workout: %w", err)
	}
	var w models.Workout
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("decoding cached workout: %w", err)
	}
	return &w, nil
}

// LastSync reports when Save last ran and how many workouts it stored.
func (s *Store) LastSync(ctx context.Context) (time.Time, int, error) {
	var raw string
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT synced_at, workouts FROM sync_state WHERE id = 1`).Scan(&raw, &n)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, 0, ErrNeverSynced
	}
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("reading sync state: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("parsing sync time: %w", err)
	}
	return t, n, nil
}
