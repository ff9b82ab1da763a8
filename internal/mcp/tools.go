package mcp

import (
	"context"
	"strings"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/stats"
	"github.com/claude/limitbeyond/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/samber/lo"
)

// defaultTimeRange returns start/end defaulting to the last days days. A
// date-only end covers that whole day.
func defaultTimeRange(now time.Time, startStr, endStr string, days int) (time.Time, time.Time, error) {
	var start, end time.Time

	if endStr != "" {
		t, dateOnly, err := parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = t
		if dateOnly {
			end = end.AddDate(0, 0, 1)
		}
	} else {
		end = now
	}

	if startStr != "" {
		t, _, err := parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = t
	} else {
		start = end.AddDate(0, 0, -days)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, bool, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, false, nil
	}
	t, err = time.Parse(models.DateKeyLayout, s)
	if err == nil {
		return t, true, nil
	}
	return time.Time{}, false, err
}

// --- Tool definitions ---

var toolGetWorkoutStats = mcp.NewTool("get_workout_stats",
	mcp.WithDescription("Aggregate workouts over a date range: total and completed workout counts, total volume (weight x reps of completed sets), a per-day volume series and the muscle group distribution."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days before end.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD, inclusive for dates). Defaults to now.")),
	mcp.WithNumber("top", mcp.Description("Number of most trained muscle groups to highlight. Defaults to 4.")),
)

var toolGetWorkouts = mcp.NewTool("get_workouts",
	mcp.WithDescription("List workouts with their sets over a date range, optionally filtered by exercise name or completion."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days before end.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Only workouts containing this exercise (partial match, e.g. 'bench')")),
	mcp.WithBoolean("completed_only", mcp.Description("Only completed workouts")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog with muscle groups, optionally restricted to one muscle group."),
	mcp.WithString("muscle_group", mcp.Description("Muscle group name (e.g. 'Chest', 'Quadriceps')")),
)

var toolListWorkoutTemplates = mcp.NewTool("list_workout_templates",
	mcp.WithDescription("List the built-in multi-day training plans with their days and prescribed exercises."),
)

// --- Tool handlers ---

type workoutStats struct {
	stats.Summary
	TopMuscleGroups []stats.MuscleGroupCount `json:"topMuscleGroups"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
}

func (h *handlers) getWorkoutStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(h.now(), req.GetString("start", ""), req.GetString("end", ""), 30)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	if !end.After(start) {
		return mcp.NewToolResultError("end must be after start"), nil
	}
	top := req.GetInt("top", 4)
	if top < 0 {
		return mcp.NewToolResultError("top must not be negative"), nil
	}

	uid := UserIDFromContext(ctx)
	workouts, err := h.ds.QueryWorkouts(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_workout_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	summary, err := stats.Aggregate(workouts)
	if err != nil {
		h.log.Error("mcp get_workout_stats aggregate", "error", err)
		return mcp.NewToolResultError("aggregation failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(workoutStats{
		Summary:         summary,
		TopMuscleGroups: stats.TopMuscleGroups(summary.MuscleGroupDistribution, top),
		Start:           start,
		End:             end,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(h.now(), req.GetString("start", ""), req.GetString("end", ""), 7)
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	workouts, err := h.ds.QueryWorkouts(ctx, start, end, uid)
	if err != nil {
		h.log.Error("mcp get_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	exercise := strings.ToLower(req.GetString("exercise", ""))
	completedOnly := req.GetBool("completed_only", false)
	workouts = lo.Filter(workouts, func(w models.Workout, _ int) bool {
		if completedOnly && !w.Completed {
			return false
		}
		if exercise == "" {
			return true
		}
		return lo.SomeBy(w.Sets, func(s models.WorkoutSet) bool {
			return s.Exercise != nil && strings.Contains(strings.ToLower(s.Exercise.Name), exercise)
		})
	})

	result, err := mcp.NewToolResultJSON(workouts)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if name := req.GetString("muscle_group", ""); name != "" {
		groups, err := h.ds.ListMuscleGroups(ctx)
		if err != nil {
			h.log.Error("mcp list_exercises groups", "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		group, ok := lo.Find(groups, func(g models.MuscleGroup) bool { return strings.EqualFold(g.Name, name) })
		if !ok {
			names := lo.Map(groups, func(g models.MuscleGroup, _ int) string { return g.Name })
			return mcp.NewToolResultError("unknown muscle group " + name + "; known: " + strings.Join(names, ", ")), nil
		}
		exercises = lo.Filter(exercises, func(e models.Exercise, _ int) bool { return e.HasMuscleGroup(group.ID) })
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkoutTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := templates.All()
	if err != nil {
		h.log.Error("mcp list_workout_templates", "error", err)
		return mcp.NewToolResultError("loading templates failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
