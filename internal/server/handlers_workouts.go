package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/claude/limitbeyond/internal/importer"
	"github.com/claude/limitbeyond/internal/models"
)

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	workouts, err := s.workouts.List(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleWorkoutsByDateRange(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	start, end, err := parseTimeRange(r, "startDate", "endDate", nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	workouts, err := s.workouts.ListByDateRange(r.Context(), uid, start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleWorkoutStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	loc, err := parseZone(r, "tz")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	rangeLoc := time.UTC
	if loc != nil {
		rangeLoc = loc
	}
	start, end, err := parseTimeRangeIn(r, "startDate", "endDate", rangeLoc, lastMonth)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	summary, err := s.workouts.StatsIn(r.Context(), uid, start, end, loc)
	s.instr.ObserveAggregation(summary.TotalWorkouts, err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleWorkoutsByMuscleGroup(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	groupID, ok := uuidParam(w, r, "groupID")
	if !ok {
		return
	}
	workouts, err := s.workouts.ListByMuscleGroup(r.Context(), uid, groupID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	wo, err := s.workouts.Get(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var req models.WorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wo, err := s.workouts.Create(r.Context(), uid, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wo)
}

func (s *Server) handleUpdateWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req models.WorkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	wo, err := s.workouts.Update(r.Context(), uid, id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.workouts.Delete(r.Context(), uid, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	wo, err := s.workouts.CompleteWorkout(r.Context(), uid, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	s.setCompletion(w, r, true)
}

func (s *Server) handleUncompleteSet(w http.ResponseWriter, r *http.Request) {
	s.setCompletion(w, r, false)
}

func (s *Server) setCompletion(w http.ResponseWriter, r *http.Request, completed bool) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	setID, ok := uuidParam(w, r, "setID")
	if !ok {
		return
	}

	var (
		wo  *models.Workout
		err error
	)
	if completed {
		wo, err = s.workouts.CompleteSet(r.Context(), uid, id, setID)
	} else {
		wo, err = s.workouts.UncompleteSet(r.Context(), uid, id, setID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleCopyWorkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	raw := r.URL.Query().Get("newDate")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "newDate parameter required"})
		return
	}
	date, _, err := parseTime(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	wo, err := s.workouts.Copy(r.Context(), uid, id, date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wo)
}

// handleImportLog stores a training log export (the raw CSV body) as
// completed workouts.
func (s *Server) handleImportLog(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	var opts importer.Options
	if raw := r.URL.Query().Get("warmups"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid warmups"})
			return
		}
		opts.IncludeWarmups = v
	}
	res, err := s.importer.Import(r.Context(), uid, http.MaxBytesReader(w, r.Body, maxImportBytes), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = v
	}
	logs, err := s.store.QueryImportLogs(r.Context(), uid, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}
