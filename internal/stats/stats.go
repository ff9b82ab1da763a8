// Package stats aggregates workout records into the dashboard statistics:
// totals, a per-day volume series and a muscle group distribution.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/claude/limitbeyond/internal/models"
)

// ErrMissingDate is returned when a workout has neither a scheduled nor a
// completed date and therefore cannot be keyed to a calendar day.
var ErrMissingDate = errors.New("workout has no scheduled or completed date")

// Summary is the result of Aggregate.
type Summary struct {
	TotalWorkouts           int                `json:"totalWorkouts"`
	CompletedWorkouts       int                `json:"completedWorkouts"`
	TotalVolume             float64            `json:"totalVolume"`
	WorkoutsByDate          []DailyAggregate   `json:"workoutsByDate"`
	MuscleGroupDistribution []MuscleGroupCount `json:"muscleGroupDistribution"`
}

// DailyAggregate holds the volume and workout count of one calendar day.
type DailyAggregate struct {
	Date   string  `json:"date"`
	Volume float64 `json:"volume"`
	Count  int     `json:"count"`
}

// MuscleGroupCount is the number of (set, muscle group) memberships for a group.
type MuscleGroupCount struct {
	MuscleGroup string `json:"muscleGroup"`
	Count       int    `json:"count"`
}

// Aggregate computes a Summary from a snapshot of workouts. Input order does
// not matter. Every set bumps the counter of each muscle group of its exercise,
// completed or not; only completed sets with positive weight and reps add volume.
// Days are keyed in each workout date's own location.
func Aggregate(workouts []models.Workout) (Summary, error) {
	return AggregateIn(workouts, nil)
}

// AggregateIn is Aggregate with days keyed on the calendar of loc.
func AggregateIn(workouts []models.Workout, loc *time.Location) (Summary, error) {
	summary := Summary{
		TotalWorkouts:           len(workouts),
		WorkoutsByDate:          []DailyAggregate{},
		MuscleGroupDistribution: []MuscleGroupCount{},
	}

	groupIndex := make(map[string]int)
	days := make(map[string]*DailyAggregate)

	for i := range workouts {
		w := &workouts[i]
		key := w.DateKeyIn(loc)
		if key == "" {
			return Summary{}, fmt.Errorf("workout %s: %w", w.ID, ErrMissingDate)
		}
		if w.Completed {
			summary.CompletedWorkouts++
		}

		var volume float64
		for _, set := range w.Sets {
			v := set.Volume()
			volume += v
			summary.TotalVolume += v

			if set.Exercise == nil {
				continue
			}
			for _, g := range set.Exercise.MuscleGroups {
				idx, ok := groupIndex[g.Name]
				if !ok {
					idx = len(summary.MuscleGroupDistribution)
					groupIndex[g.Name] = idx
					summary.MuscleGroupDistribution = append(summary.MuscleGroupDistribution, MuscleGroupCount{MuscleGroup: g.Name})
				}
				summary.MuscleGroupDistribution[idx].Count++
			}
		}

		day, ok := days[key]
		if !ok {
			day = &DailyAggregate{Date: key}
			days[key] = day
		}
		day.Volume += volume
		day.Count++
	}

	for _, day := range days {
		summary.WorkoutsByDate = append(summary.WorkoutsByDate, *day)
	}
	sort.Slice(summary.WorkoutsByDate, func(i, j int) bool {
		return summary.WorkoutsByDate[i].Date < summary.WorkoutsByDate[j].Date
	})

	return summary, nil
}

// TopMuscleGroups returns the n most counted groups, highest first. Ties keep
// their first-seen order. The input slice is left untouched.
func TopMuscleGroups(groups []MuscleGroupCount, n int) []MuscleGroupCount {
	if n <= 0 {
		return []MuscleGroupCount{}
	}
	sorted := make([]MuscleGroupCount, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
