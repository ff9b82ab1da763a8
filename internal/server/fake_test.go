package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/limitbeyond/internal/metrics"
	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/storage"
	"github.com/claude/limitbeyond/internal/workout"
	"github.com/claude/limitbeyond/internal/workout/workouttest"
	"github.com/google/uuid"
)

const testAPIKey = "secret"

// fakeStore is an in-memory Catalog sharing its exercises with a
// workouttest.Memory.
type fakeStore struct {
	mu        sync.Mutex
	repo      *workouttest.Memory
	groups    []models.MuscleGroup
	exercises []models.Exercise
	imports   []models.ImportLog
}

func newFakeStore(repo *workouttest.Memory) *fakeStore {
	return &fakeStore{repo: repo}
}

func (f *fakeStore) addGroup(name string) models.MuscleGroup {
	g := models.MuscleGroup{ID: uuid.New(), Name: name}
	f.groups = append(f.groups, g)
	return g
}

func (f *fakeStore) addExercise(name string, groups ...models.MuscleGroup) models.Exercise {
	ex := f.repo.AddExercise(models.Exercise{Name: name, MuscleGroups: append([]models.MuscleGroup{}, groups...)})
	f.exercises = append(f.exercises, ex)
	return ex
}

func (f *fakeStore) ListExercises(context.Context) ([]models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Exercise{}, f.exercises...), nil
}

func (f *fakeStore) GetExercise(_ context.Context, id uuid.UUID) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.exercises {
		if ex.ID == id {
			return &ex, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) ListExercisesByMuscleGroup(_ context.Context, groupID uuid.UUID) ([]models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Exercise{}
	for _, ex := range f.exercises {
		if ex.HasMuscleGroup(groupID) {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateExercise(ctx context.Context, req models.ExerciseRequest) (*models.Exercise, error) {
	created, err := f.BulkCreateExercises(ctx, []models.ExerciseRequest{req})
	if err != nil {
		return nil, err
	}
	return &created[0], nil
}

func (f *fakeStore) UpdateExercise(_ context.Context, id uuid.UUID, req models.ExerciseRequest) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.exercises {
		if f.exercises[i].ID == id {
			f.exercises[i].Name = req.Name
			f.exercises[i].Description = req.Description
			f.exercises[i].RequiresWeight = req.RequiresWeight
			ex := f.exercises[i]
			return &ex, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeStore) DeleteExercise(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, ex := range f.exercises {
		if ex.ID == id {
			f.exercises = append(f.exercises[:i], f.exercises[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeStore) BulkCreateExercises(_ context.Context, reqs []models.ExerciseRequest) ([]models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range reqs {
		for _, ex := range f.exercises {
			if strings.EqualFold(ex.Name, req.Name) {
				return nil, models.ErrConflict
			}
		}
	}
	out := make([]models.Exercise, 0, len(reqs))
	for _, req := range reqs {
		ex := f.repo.AddExercise(models.Exercise{
			Name:           req.Name,
			Description:    req.Description,
			RequiresWeight: req.RequiresWeight,
			MuscleGroups:   []models.MuscleGroup{},
		})
		f.exercises = append(f.exercises, ex)
		out = append(out, ex)
	}
	return out, nil
}

func (f *fakeStore) ListMuscleGroups(context.Context) ([]models.MuscleGroup, error) {
	return append([]models.MuscleGroup{}, f.groups...), nil
}

func (f *fakeStore) GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error) {
	workouts, err := f.repo.ListWorkouts(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &storage.DataStats{WorkoutsByName: []storage.WorkoutNameStat{}}
	for _, w := range workouts {
		out.TotalWorkouts++
		if w.Completed {
			out.CompletedWorkouts++
		}
		out.TotalSets += int64(len(w.Sets))
	}
	return out, nil
}

type testEnv struct {
	srv   *Server
	store *fakeStore
	instr *metrics.Instrumentation
}

func (f *fakeStore) InsertImportLog(_ context.Context, log models.ImportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.ID = int64(len(f.imports) + 1)
	log.CreatedAt = time.Now()
	f.imports = append(f.imports, log)
	return log.ID, nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, id int64, log models.ImportLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || int(id) > len(f.imports) {
		return models.ErrNotFound
	}
	log.ID = id
	log.CreatedAt = f.imports[id-1].CreatedAt
	f.imports[id-1] = log
	return nil
}

func (f *fakeStore) QueryImportLogs(_ context.Context, userID, limit int) ([]models.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.ImportLog{}
	for i := len(f.imports) - 1; i >= 0 && len(out) < limit; i-- {
		if f.imports[i].UserID == userID {
			out = append(out, f.imports[i])
		}
	}
	return out, nil
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := workouttest.New()
	store := newFakeStore(repo)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	instr := metrics.NewTestInstrumentation()
	svc := workout.NewService(repo, log)
	return &testEnv{
		srv:   New(svc, store, Options{APIKey: testAPIKey, Instrumentation: instr}, log),
		store: store,
		instr: instr,
	}
}

func (e *testEnv) do(method, target, body string, header ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

var _ http.Handler = (*Server)(nil)
