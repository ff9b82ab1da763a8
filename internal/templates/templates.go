// Package templates provides the built-in multi-day workout plans and turns a
// plan day into a workout draft.
package templates

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/workout"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

var (
	ErrPlanNotFound        = errors.New("workout template not found")
	ErrDayNotFound         = errors.New("template day not found")
	ErrNoMatchingExercises = errors.New("no template exercise matches the catalog")
)

//go:embed plans.yaml
var plansYAML []byte

// Plan is a named multi-day program.
type Plan struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Days        []Day  `yaml:"days" json:"days"`
}

// Day is one training day of a plan.
type Day struct {
	Day       int            `yaml:"day" json:"day"`
	Name      string         `yaml:"name" json:"name"`
	Focus     string         `yaml:"focus" json:"focus"`
	Exercises []PlanExercise `yaml:"exercises" json:"exercises"`
}

// PlanExercise references a catalog exercise by name.
type PlanExercise struct {
	Exercise string   `yaml:"exercise" json:"exerciseName"`
	Sets     int      `yaml:"sets" json:"sets"`
	Reps     int      `yaml:"reps" json:"reps"`
	Weight   *float64 `yaml:"weight" json:"weight,omitempty"`
	Notes    string   `yaml:"notes" json:"notes,omitempty"`
}

var (
	loadOnce sync.Once
	plans    []Plan
	loadErr  error
)

func load() ([]Plan, error) {
	loadOnce.Do(func() {
		loadErr = yaml.Unmarshal(plansYAML, &plans)
		if loadErr != nil {
			loadErr = fmt.Errorf("parsing embedded plans: %w", loadErr)
		}
	})
	return plans, loadErr
}

// All returns every built-in plan. The plans are copies; changing them does
// not affect later calls.
func All() ([]Plan, error) {
	p, err := load()
	if err != nil {
		return nil, err
	}
	return lo.Map(p, func(pl Plan, _ int) Plan { return pl.clone() }), nil
}

// ByID returns the plan with the given id.
func ByID(id string) (Plan, error) {
	p, err := load()
	if err != nil {
		return Plan{}, err
	}
	plan, ok := lo.Find(p, func(pl Plan) bool { return pl.ID == id })
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return plan.clone(), nil
}

func (p Plan) clone() Plan {
	p.Days = lo.Map(p.Days, func(d Day, _ int) Day {
		d.Exercises = lo.Map(d.Exercises, func(e PlanExercise, _ int) PlanExercise {
			if e.Weight != nil {
				w := *e.Weight
				e.Weight = &w
			}
			return e
		})
		return d
	})
	return p
}

// Instantiate builds a draft for one day of a plan scheduled on date. Template
// exercises are matched against catalog by case-insensitive name; each match
// expands into its configured number of sets. Names without a match are
// skipped and returned.
func Instantiate(plan Plan, day int, date time.Time, catalog []models.Exercise) (workout.Draft, []string, error) {
	d, ok := lo.Find(plan.Days, func(d Day) bool { return d.Day == day })
	if !ok {
		return workout.Draft{}, nil, fmt.Errorf("%w: %s day %d", ErrDayNotFound, plan.ID, day)
	}

	draft := workout.NewDraft(d.Name + " - " + plan.Name).WithSchedule(date)
	draft.Description = "Template: " + plan.Description + "\nFocus: " + d.Focus

	skipped := []string{}
	for _, te := range d.Exercises {
		ex, ok := lo.Find(catalog, func(e models.Exercise) bool {
			return strings.EqualFold(e.Name, te.Exercise)
		})
		if !ok {
			skipped = append(skipped, te.Exercise)
			continue
		}
		for i := 0; i < te.Sets; i++ {
			draft = draft.AddSet(models.WorkoutSetRequest{
				ExerciseID: ex.ID,
				Reps:       te.Reps,
				Weight:     te.Weight,
				Notes:      te.Notes,
			})
		}
	}

	if draft.Len() == 0 {
		return workout.Draft{}, skipped, ErrNoMatchingExercises
	}
	return draft, skipped, nil
}
