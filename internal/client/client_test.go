package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/stats"
	"github.com/google/uuid"
)

// newTestServer creates an httptest server that routes requests to handler functions
// keyed by path. Unknown paths fail the test.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatal(err)
	}
}

func deny(t *testing.T, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, status, map[string]string{"error": "no"})
	}
}

// TestQueryWorkouts verifies the date range params and that the API key header is sent.
func TestQueryWorkouts(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/by-date-range": func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("startDate"); got != "2024-03-01T00:00:00Z" {
				t.Errorf("startDate=%q", got)
			}
			if got := r.URL.Query().Get("endDate"); got != "2024-03-08T00:00:00Z" {
				t.Errorf("endDate=%q", got)
			}
			if got := r.Header.Get("X-API-Key"); got != "k" {
				t.Errorf("X-API-Key=%q, want k", got)
			}
			writeTestJSON(t, w, http.StatusOK, []models.Workout{{ID: uuid.New(), Name: "Push", ScheduledDate: &date}})
		},
	})
	defer ts.Close()

	c := New(ts.URL+"/", "k")
	got, err := c.QueryWorkouts(context.Background(), date, date.AddDate(0, 0, 7), 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Push" {
		t.Fatalf("got %+v", got)
	}
	if got[0].DateKey() != "2024-03-01" {
		t.Errorf("date key = %q", got[0].DateKey())
	}
}

// TestCreateWorkout verifies the JSON body is posted and the 201 answer decoded.
func TestCreateWorkout(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts": func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method=%s, want POST", r.Method)
			}
			var req models.WorkoutRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			writeTestJSON(t, w, http.StatusCreated, models.Workout{ID: uuid.New(), Name: req.Name})
		},
	})
	defer ts.Close()

	wo, err := New(ts.URL, "").CreateWorkout(context.Background(), models.WorkoutRequest{Name: "Legs"})
	if err != nil {
		t.Fatal(err)
	}
	if wo.Name != "Legs" {
		t.Errorf("name=%q, want Legs", wo.Name)
	}
}

func TestUpdateWorkout(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/" + id.String(): func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("method=%s, want PUT", r.Method)
			}
			var req models.WorkoutRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			writeTestJSON(t, w, http.StatusOK, models.Workout{ID: id, Name: req.Name})
		},
	})
	defer ts.Close()

	wo, err := New(ts.URL, "").UpdateWorkout(context.Background(), id, models.WorkoutRequest{Name: "Pull"})
	if err != nil {
		t.Fatal(err)
	}
	if wo.ID != id || wo.Name != "Pull" {
		t.Errorf("got %+v", wo)
	}
}

// TestGetStats verifies the summary decodes with its series.
func TestGetStats(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/stats": func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, stats.Summary{
				TotalWorkouts:  2,
				TotalVolume:    150,
				WorkoutsByDate: []stats.DailyAggregate{{Date: "2024-03-01", Volume: 150, Count: 2}},
			})
		},
	})
	defer ts.Close()

	s, err := New(ts.URL, "").GetStats(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalWorkouts != 2 || s.TotalVolume != 150 || len(s.WorkoutsByDate) != 1 {
		t.Errorf("got %+v", s)
	}
}

// TestStatusError verifies non-2xx answers surface as *StatusError.
func TestStatusError(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/" + uuid.Nil.String(): func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusNotFound, map[string]string{"error": "not found"})
		},
	})
	defer ts.Close()

	_, err := New(ts.URL, "").GetWorkout(context.Background(), uuid.Nil)
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("err=%v, want *StatusError", err)
	}
	if serr.Code != http.StatusNotFound || serr.AccessDenied() {
		t.Errorf("got %+v", serr)
	}
}

// TestTieredLookup covers the fallback order of the exercise listing.
func TestTieredLookup(t *testing.T) {
	catalog := []models.Exercise{{ID: uuid.New(), Name: "Squats"}}
	ok := func(t *testing.T) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			writeTestJSON(t, w, http.StatusOK, catalog)
		}
	}

	tests := []struct {
		name       string
		authed     func(t *testing.T) http.HandlerFunc
		public     func(t *testing.T) http.HandlerFunc
		wantTier   string
		wantDenied []string
		wantErr    error
		wantStatus int
	}{
		{
			name:     "authenticated answers",
			authed:   ok,
			wantTier: "authenticated",
		},
		{
			name:       "unauthorized falls back",
			authed:     func(t *testing.T) http.HandlerFunc { return deny(t, http.StatusUnauthorized) },
			public:     ok,
			wantTier:   "public",
			wantDenied: []string{"authenticated"},
		},
		{
			name:       "forbidden falls back",
			authed:     func(t *testing.T) http.HandlerFunc { return deny(t, http.StatusForbidden) },
			public:     ok,
			wantTier:   "public",
			wantDenied: []string{"authenticated"},
		},
		{
			name:       "every tier denied",
			authed:     func(t *testing.T) http.HandlerFunc { return deny(t, http.StatusUnauthorized) },
			public:     func(t *testing.T) http.HandlerFunc { return deny(t, http.StatusForbidden) },
			wantDenied: []string{"authenticated", "public"},
			wantErr:    ErrAccessDenied,
		},
		{
			name:       "server error stops",
			authed:     func(t *testing.T) http.HandlerFunc { return deny(t, http.StatusInternalServerError) },
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := map[string]http.HandlerFunc{
				"/api/v1/exercise-templates": tt.authed(t),
			}
			if tt.public != nil {
				handlers["/api/v1/exercise-templates/public"] = tt.public(t)
			}
			ts := newTestServer(t, handlers)
			defer ts.Close()

			res, err := New(ts.URL, "").ListExercisesTiered(context.Background())
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v, want %v", err, tt.wantErr)
				}
			case tt.wantStatus != 0:
				var serr *StatusError
				if !errors.As(err, &serr) || serr.Code != tt.wantStatus {
					t.Fatalf("err=%v, want status %d", err, tt.wantStatus)
				}
			default:
				if err != nil {
					t.Fatal(err)
				}
				if res.Tier != tt.wantTier {
					t.Errorf("tier=%q, want %q", res.Tier, tt.wantTier)
				}
				if len(res.Exercises) != 1 {
					t.Errorf("got %d exercises, want 1", len(res.Exercises))
				}
			}
			if len(res.Denied) != len(tt.wantDenied) {
				t.Fatalf("denied=%v, want %v", res.Denied, tt.wantDenied)
			}
			for i := range tt.wantDenied {
				if res.Denied[i] != tt.wantDenied[i] {
					t.Errorf("denied[%d]=%q, want %q", i, res.Denied[i], tt.wantDenied[i])
				}
			}
		})
	}
}

// TestImportLog verifies the raw body and the warmups flag reach the server.
func TestImportLog(t *testing.T) {
	id := uuid.New()
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/api/v1/workouts/import": func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Content-Type"); got != "text/csv" {
				t.Errorf("Content-Type=%q, want text/csv", got)
			}
			if got := r.URL.Query().Get("warmups"); got != "true" {
				t.Errorf("warmups=%q, want true", got)
			}
			raw, _ := io.ReadAll(r.Body)
			if string(raw) != "log" {
				t.Errorf("body=%q, want log", raw)
			}
			writeTestJSON(t, w, http.StatusCreated, map[string]any{"workoutsCreated": 1, "workoutIds": []uuid.UUID{id}})
		},
	})
	defer ts.Close()

	res, err := New(ts.URL, "").ImportLog(context.Background(), strings.NewReader("log"), true)
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkoutsCreated != 1 || len(res.WorkoutIDs) != 1 || res.WorkoutIDs[0] != id {
		t.Errorf("got %+v", res)
	}
}
