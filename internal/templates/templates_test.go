package templates

import (
	"errors"
	"testing"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/google/uuid"
)

func catalog(names ...string) []models.Exercise {
	out := make([]models.Exercise, len(names))
	for i, n := range names {
		out[i] = models.Exercise{ID: uuid.New(), Name: n}
	}
	return out
}

func TestAllPlans(t *testing.T) {
	plans, err := All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(plans) != 2 {
		t.Fatalf("got %d plans, want 2", len(plans))
	}
	for _, p := range plans {
		if len(p.Days) != 3 {
			t.Errorf("%s: got %d days, want 3", p.ID, len(p.Days))
		}
		for _, d := range p.Days {
			for _, e := range d.Exercises {
				if e.Sets != 3 || e.Weight == nil || *e.Weight != 0 || e.Notes == "" {
					t.Errorf("%s/%s: unexpected exercise %+v", p.ID, d.Name, e)
				}
			}
		}
	}
}

func TestByID(t *testing.T) {
	p, err := ByID("full-body-3day")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if p.Name != "Full Body 3-Day Split" {
		t.Errorf("name = %q", p.Name)
	}
	if got := p.Days[2].Exercises[1].Exercise; got != "Side Planks" {
		t.Errorf("day 3 second exercise = %q, want Side Planks", got)
	}

	if _, err := ByID("nope"); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestInstantiate(t *testing.T) {
	plan, err := ByID("basic-strength-3day")
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	cat := catalog("push-ups", "Planks", "Bench Press")

	draft, skipped, err := Instantiate(plan, 1, date, cat)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	req := draft.Request()
	if req.Name != "Push Day - Basic Strength 3-Day Split" {
		t.Errorf("name = %q", req.Name)
	}
	wantDesc := "Template: Simple 3-day split focusing on fundamental compound movements\nFocus: Chest, Shoulders, Triceps"
	if req.Description != wantDesc {
		t.Errorf("description = %q", req.Description)
	}
	if req.ScheduledDate == nil || !req.ScheduledDate.Equal(date) {
		t.Errorf("scheduled = %v, want %v", req.ScheduledDate, date)
	}
	if len(req.Sets) != 6 {
		t.Fatalf("got %d sets, want 6", len(req.Sets))
	}
	if req.Sets[0].ExerciseID != cat[0].ID || req.Sets[0].Reps != 10 {
		t.Errorf("first set = %+v", req.Sets[0])
	}
	if req.Sets[5].ExerciseID != cat[1].ID || req.Sets[5].Notes != "Hold for 30-60 seconds" {
		t.Errorf("last set = %+v", req.Sets[5])
	}
	if len(skipped) != 1 || skipped[0] != "Dips" {
		t.Errorf("skipped = %v, want [Dips]", skipped)
	}
}

func TestInstantiateErrors(t *testing.T) {
	plan, err := ByID("basic-strength-3day")
	if err != nil {
		t.Fatal(err)
	}
	date := time.Now()

	if _, _, err := Instantiate(plan, 9, date, catalog("Squats")); !errors.Is(err, ErrDayNotFound) {
		t.Errorf("unknown day: err = %v", err)
	}

	_, skipped, err := Instantiate(plan, 3, date, catalog("Bench Press"))
	if !errors.Is(err, ErrNoMatchingExercises) {
		t.Errorf("no matches: err = %v", err)
	}
	if len(skipped) != 3 {
		t.Errorf("skipped = %v, want all three", skipped)
	}
}

// TestReturnedPlansAreCopies edits returned plans in place and checks that
// later lookups still see the embedded data.
func TestReturnedPlansAreCopies(t *testing.T) {
	plans, err := All()
	if err != nil {
		t.Fatal(err)
	}
	plans[0].Days[0].Name = "changed"
	plans[0].Days[0].Exercises[0].Exercise = "changed"
	*plans[0].Days[0].Exercises[0].Weight = 99

	plan, err := ByID(plans[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	first := plan.Days[0].Exercises[0]
	if plan.Days[0].Name != "Push Day" || first.Exercise != "Push-ups" || *first.Weight != 0 {
		t.Errorf("cached plan modified: day %q, exercise %+v, weight %v", plan.Days[0].Name, first, *first.Weight)
	}

	plan.Days[0].Exercises = nil
	again, err := All()
	if err != nil {
		t.Fatal(err)
	}
	if len(again[0].Days[0].Exercises) != 3 {
		t.Errorf("exercises = %d, want 3", len(again[0].Days[0].Exercises))
	}
}
