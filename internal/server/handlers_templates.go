package server

import (
	"net/http"
	"strconv"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/templates"
	"github.com/go-chi/chi/v5"
)

// planDayCopy is the response of copying a plan day into a workout.
type planDayCopy struct {
	Workout          *models.Workout `json:"workout"`
	SkippedExercises []string        `json:"skippedExercises"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := templates.All()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := templates.ByID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCopyPlanDay(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	plan, err := templates.ByID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	day, err := strconv.Atoi(chi.URLParam(r, "day"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid day"})
		return
	}
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date parameter required"})
		return
	}
	date, _, err := parseTime(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	catalog, err := s.store.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	draft, skipped, err := templates.Instantiate(plan, day, date, catalog)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wo, err := s.workouts.Create(r.Context(), uid, draft.Request())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.instr.CounterPlanInstances.Inc()
	if len(skipped) > 0 {
		s.log.Warn("plan exercises missing from catalog", "plan", plan.ID, "day", day, "skipped", skipped)
	}
	writeJSON(w, http.StatusCreated, planDayCopy{Workout: wo, SkippedExercises: skipped})
}
