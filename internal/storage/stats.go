package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate counts about a user's stored training data.
type DataStats struct {
	TotalWorkouts     int64             `json:"totalWorkouts"`
	CompletedWorkouts int64             `json:"completedWorkouts"`
	TotalSets         int64             `json:"totalSets"`
	CompletedSets     int64             `json:"completedSets"`
	EarliestWorkout   *time.Time        `json:"earliestWorkout"`
	LatestWorkout     *time.Time        `json:"latestWorkout"`
	WorkoutsByName    []WorkoutNameStat `json:"workoutsByName"`
}

// WorkoutNameStat counts workouts sharing a name.
type WorkoutNameStat struct {
	Name      string `json:"name"`
	Count     int64  `json:"count"`
	Completed int64  `json:"completed"`
}

// GetDataStats returns aggregate statistics for a user's stored data.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{WorkoutsByName: []WorkoutNameStat{}}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE completed),
		 MIN(COALESCE(scheduled_date, completed_date)), MAX(COALESCE(scheduled_date, completed_date))
		 FROM workouts WHERE user_id = $1`, userID,
	).Scan(&stats.TotalWorkouts, &stats.CompletedWorkouts, &stats.EarliestWorkout, &stats.LatestWorkout)
	if err != nil {
		return nil, fmt.Errorf("counting workouts: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE s.completed)
		 FROM workout_sets s JOIN workouts w ON w.id = s.workout_id
		 WHERE w.user_id = $1`, userID,
	).Scan(&stats.TotalSets, &stats.CompletedSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT name, COUNT(*), COUNT(*) FILTER (WHERE completed)
		 FROM workouts
		 WHERE user_id = $1
		 GROUP BY name
		 ORDER BY COUNT(*) DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s WorkoutNameStat
		if err := rows.Scan(&s.Name, &s.Count, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning workout name stat: %w", err)
		}
		stats.WorkoutsByName = append(stats.WorkoutsByName, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
