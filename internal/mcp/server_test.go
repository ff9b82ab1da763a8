package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

type fakeSource struct {
	workouts []models.Workout
	groups   []models.MuscleGroup
	catalog  []models.Exercise

	gotStart, gotEnd time.Time
	gotUser          int
}

func (f *fakeSource) QueryWorkouts(_ context.Context, start, end time.Time, userID int) ([]models.Workout, error) {
	f.gotStart, f.gotEnd, f.gotUser = start, end, userID
	return f.workouts, nil
}

func (f *fakeSource) ListExercises(context.Context) ([]models.Exercise, error) {
	return f.catalog, nil
}

func (f *fakeSource) ListMuscleGroups(context.Context) ([]models.MuscleGroup, error) {
	return f.groups, nil
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newFixture() (*fakeSource, *handlers) {
	chest := models.MuscleGroup{ID: uuid.New(), Name: "Chest"}
	legs := models.MuscleGroup{ID: uuid.New(), Name: "Quadriceps"}
	bench := models.Exercise{ID: uuid.New(), Name: "Bench Press", MuscleGroups: []models.MuscleGroup{chest}}
	squat := models.Exercise{ID: uuid.New(), Name: "Squats", MuscleGroups: []models.MuscleGroup{legs}}

	w := 50.0
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		groups:  []models.MuscleGroup{chest, legs},
		catalog: []models.Exercise{bench, squat},
		workouts: []models.Workout{
			{ID: uuid.New(), Name: "Push", ScheduledDate: &day, Completed: true, Sets: []models.WorkoutSet{
				{ID: uuid.New(), Exercise: &bench, Weight: &w, Reps: 4, Completed: true},
			}},
			{ID: uuid.New(), Name: "Legs", ScheduledDate: &day, Sets: []models.WorkoutSet{
				{ID: uuid.New(), Exercise: &squat, Weight: &w, Reps: 5},
			}},
		},
	}
	h := &handlers{ds: src, log: slog.New(slog.NewTextHandler(io.Discard, nil)), now: func() time.Time { return fixedNow }}
	return src, h
}

func callTool(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}

// TestUserIDFromContextDefault verifies the default user ID (1) when no value
// is set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	ctx := context.Background()
	if id := UserIDFromContext(ctx); id != 1 {
		t.Errorf("UserIDFromContext(empty) = %d, want 1", id)
	}
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	if id := UserIDFromContext(ctx); id != 42 {
		t.Errorf("UserIDFromContext = %d, want 42", id)
	}
}

// TestDefaultTimeRange verifies time range defaults and parsing.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange(fixedNow, "", "", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !end.Equal(fixedNow) || !start.Equal(fixedNow.AddDate(0, 0, -7)) {
		t.Errorf("default range = %v..%v", start, end)
	}

	// A date-only end covers the whole day.
	start, end, err = defaultTimeRange(fixedNow, "2024-01-01", "2024-01-31", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Format(models.DateKeyLayout) != "2024-01-01" {
		t.Errorf("start = %v, want 2024-01-01", start)
	}
	if end.Format(models.DateKeyLayout) != "2024-02-01" {
		t.Errorf("end = %v, want 2024-02-01", end)
	}

	// RFC3339 is taken as is.
	start, end, err = defaultTimeRange(fixedNow, "2024-06-15T10:30:00Z", "2024-06-16T08:00:00Z", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Hour() != 10 || start.Minute() != 30 || end.Hour() != 8 {
		t.Errorf("range = %v..%v", start, end)
	}

	_, _, err = defaultTimeRange(fixedNow, "not-a-date", "", 7)
	if err == nil {
		t.Error("expected error for invalid date")
	}
}

// TestGetWorkoutStats verifies the tool aggregates what the data source returns.
func TestGetWorkoutStats(t *testing.T) {
	src, h := newFixture()
	ctx := WithUserID(context.Background(), 7)

	res, err := h.getWorkoutStats(ctx, callTool(map[string]any{"top": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	if src.gotUser != 7 {
		t.Errorf("user = %d, want 7", src.gotUser)
	}
	if !src.gotStart.Equal(fixedNow.AddDate(0, 0, -30)) {
		t.Errorf("start = %v, want 30 days back", src.gotStart)
	}

	var got workoutStats
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if got.TotalWorkouts != 2 || got.CompletedWorkouts != 1 || got.TotalVolume != 200 {
		t.Errorf("totals = %+v", got.Summary)
	}
	if len(got.WorkoutsByDate) != 1 || got.WorkoutsByDate[0].Date != "2024-03-05" {
		t.Errorf("workoutsByDate = %+v", got.WorkoutsByDate)
	}
	if len(got.TopMuscleGroups) != 1 {
		t.Errorf("top = %+v, want 1 entry", got.TopMuscleGroups)
	}
}

// TestGetWorkoutStatsErrors verifies bad input and undated workouts become tool errors.
func TestGetWorkoutStatsErrors(t *testing.T) {
	src, h := newFixture()

	res, _ := h.getWorkoutStats(context.Background(), callTool(map[string]any{"start": "yesterday"}))
	if !res.IsError {
		t.Error("expected tool error for bad start")
	}

	res, _ = h.getWorkoutStats(context.Background(), callTool(map[string]any{"start": "2024-03-05", "end": "2024-03-01"}))
	if !res.IsError {
		t.Error("expected tool error for inverted range")
	}

	src.workouts = append(src.workouts, models.Workout{ID: uuid.New(), Name: "undated"})
	res, _ = h.getWorkoutStats(context.Background(), callTool(nil))
	if !res.IsError || !strings.Contains(resultText(t, res), "aggregation failed") {
		t.Error("expected aggregation error for undated workout")
	}
}

// TestGetWorkoutsFilters verifies exercise and completion filtering.
func TestGetWorkoutsFilters(t *testing.T) {
	_, h := newFixture()

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"all", nil, []string{"Push", "Legs"}},
		{"exercise partial", map[string]any{"exercise": "squat"}, []string{"Legs"}},
		{"completed only", map[string]any{"completed_only": true}, []string{"Push"}},
		{"no match", map[string]any{"exercise": "deadlift"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.getWorkouts(context.Background(), callTool(tt.args))
			if err != nil || res.IsError {
				t.Fatalf("err=%v result=%+v", err, res)
			}
			var got []models.Workout
			if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d workouts, want %d", len(got), len(tt.want))
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("workout[%d] = %q, want %q", i, got[i].Name, name)
				}
			}
		})
	}
}

// TestListExercisesByMuscleGroup verifies the case-insensitive group filter.
func TestListExercisesByMuscleGroup(t *testing.T) {
	_, h := newFixture()

	res, err := h.listExercises(context.Background(), callTool(map[string]any{"muscle_group": "chest"}))
	if err != nil || res.IsError {
		t.Fatalf("err=%v result=%+v", err, res)
	}
	var got []models.Exercise
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Bench Press" {
		t.Errorf("got %+v", got)
	}

	res, _ = h.listExercises(context.Background(), callTool(map[string]any{"muscle_group": "Wings"}))
	if !res.IsError {
		t.Error("expected tool error for unknown group")
	}
}

// TestListWorkoutTemplates verifies the built-in plans are listed.
func TestListWorkoutTemplates(t *testing.T) {
	_, h := newFixture()

	res, err := h.listWorkoutTemplates(context.Background(), callTool(nil))
	if err != nil || res.IsError {
		t.Fatalf("err=%v result=%+v", err, res)
	}
	var plans []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &plans); err != nil {
		t.Fatal(err)
	}
	if len(plans) != 2 {
		t.Errorf("got %d plans, want 2", len(plans))
	}
}

// TestRecentWorkoutsResource verifies the 14 day window and JSON contents.
func TestRecentWorkoutsResource(t *testing.T) {
	src, h := newFixture()

	var req mcp.ReadResourceRequest
	req.Params.URI = resRecentWorkouts.URI
	contents, err := h.recentWorkouts(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !src.gotStart.Equal(fixedNow.AddDate(0, 0, -14)) {
		t.Errorf("start = %v, want 14 days back", src.gotStart)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type %T", contents[0])
	}
	if text.URI != "limitbeyond://recent_workouts" || !strings.Contains(text.Text, `"Push"`) {
		t.Errorf("contents = %+v", text)
	}
}

// TestNewRegistersTools verifies New builds a server without panicking.
func TestNewRegistersTools(t *testing.T) {
	src, _ := newFixture()
	if s := New(src, "test", slog.New(slog.NewTextHandler(io.Discard, nil))); s == nil {
		t.Fatal("New returned nil")
	}
}
