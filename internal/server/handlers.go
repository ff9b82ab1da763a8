package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
	_ "time/tzdata"

	"github.com/claude/limitbeyond/internal/importer"
	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/stats"
	"github.com/claude/limitbeyond/internal/templates"
	"github.com/claude/limitbeyond/internal/validate"
	"github.com/claude/limitbeyond/internal/workout"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxBodyBytes   = 1 << 20
	maxImportBytes = 16 << 20
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, workout.ErrSetNotFound),
		errors.Is(err, templates.ErrPlanNotFound),
		errors.Is(err, templates.ErrDayNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, workout.ErrExerciseNotFound),
		errors.Is(err, workout.ErrInvalidRange),
		errors.Is(err, models.ErrInvalidReference),
		errors.Is(err, importer.ErrMalformedLog):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, templates.ErrNoMatchingExercises):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		if errors.Is(err, stats.ErrMissingDate) {
			s.log.Error("workout without date", "path", r.URL.Path, "error", err)
		} else {
			s.log.Error("request failed", "path", r.URL.Path, "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// parseTime accepts RFC3339 or a bare date. dateOnly reports the latter.
func parseTime(v string) (t time.Time, dateOnly bool, err error) {
	return parseTimeIn(v, time.UTC)
}

// parseTimeIn is parseTime with a bare date read as midnight in loc.
func parseTimeIn(v string, loc *time.Location) (t time.Time, dateOnly bool, err error) {
	t, err = time.Parse(time.RFC3339, v)
	if err == nil {
		return t, false, nil
	}
	t, err = time.ParseInLocation(models.DateKeyLayout, v, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid time %q: want RFC3339 or yyyy-MM-dd", v)
	}
	return t, true, nil
}

// parseTimeRange reads a [start, end) range from the query. A date-only end
// covers that whole day. When the start is missing, defaultStart derives it
// from the end, or the parameter is reported as required when defaultStart
// is nil.
func parseTimeRange(r *http.Request, startKey, endKey string, defaultStart func(end time.Time) time.Time) (start, end time.Time, err error) {
	return parseTimeRangeIn(r, startKey, endKey, time.UTC, defaultStart)
}

// parseTimeRangeIn is parseTimeRange with bare dates taken on the calendar
// of loc.
func parseTimeRangeIn(r *http.Request, startKey, endKey string, loc *time.Location, defaultStart func(end time.Time) time.Time) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get(startKey)
	endStr := r.URL.Query().Get(endKey)

	if endStr == "" {
		if defaultStart == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%s parameter required", endKey)
		}
		end = time.Now()
	} else {
		var dateOnly bool
		end, dateOnly, err = parseTimeIn(endStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if dateOnly {
			end = end.AddDate(0, 0, 1)
		}
	}

	if startStr == "" {
		if defaultStart == nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%s parameter required", startKey)
		}
		return defaultStart(end), end, nil
	}
	start, _, err = parseTimeIn(startStr, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// parseZone reads an optional IANA zone name. Without one, dates stay UTC
// for ranges and each workout's own zone for day keys.
func parseZone(r *http.Request, key string) (*time.Location, error) {
	name := r.URL.Query().Get(key)
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, name)
	}
	return loc, nil
}

func lastMonth(end time.Time) time.Time {
	return end.AddDate(0, -1, 0)
}

func (s *Server) handleDataSummary(w http.ResponseWriter, r *http.Request) {
	uid, ok := mustUserID(w, r)
	if !ok {
		return
	}
	summary, err := s.store.GetDataStats(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListMuscleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.store.ListMuscleGroups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}
