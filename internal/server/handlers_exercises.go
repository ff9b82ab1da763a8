package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/validate"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListExercises(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleExercisesByMuscleGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := uuidParam(w, r, "groupID")
	if !ok {
		return
	}
	list, err := s.store.ListExercisesByMuscleGroup(r.Context(), groupID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	ex, err := s.store.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req models.ExerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(s.validate, req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ex, err := s.store.CreateExercise(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("exercise created", "exercise_id", ex.ID, "name", ex.Name)
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleBulkCreateExercises(w http.ResponseWriter, r *http.Request) {
	var reqs []models.ExerciseRequest
	if !decodeJSON(w, r, &reqs) {
		return
	}
	if len(reqs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no exercises given"})
		return
	}

	all := &validate.Error{}
	for i, req := range reqs {
		err := validate.Struct(s.validate, req)
		var verr *validate.Error
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				all.Fields = append(all.Fields, validate.FieldError{Field: fmt.Sprintf("[%d].%s", i, f.Field), Rule: f.Rule})
			}
		} else if err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	if len(all.Fields) > 0 {
		s.writeError(w, r, all)
		return
	}

	created, err := s.store.BulkCreateExercises(r.Context(), reqs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("exercises created", "count", len(created))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req models.ExerciseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(s.validate, req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ex, err := s.store.UpdateExercise(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteExercise(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
