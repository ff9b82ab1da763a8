// Package client talks to the LimitBeyond REST API. The MCP server uses it in
// remote mode and limitbeyondctl uses it for every command.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/limitbeyond/internal/importer"
	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/stats"
	"github.com/google/uuid"
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("client: %s returned %d: %s", e.Path, e.Code, e.Body)
}

// AccessDenied reports whether the server refused the credentials.
func (e *StatusError) AccessDenied() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// Client calls the REST API. The API key, when set, is sent on every request.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tiers      []Tier
}

// New creates a Client targeting baseURL.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tiers:      DefaultTiers,
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	if in == nil {
		return c.send(ctx, method, path, params, nil, "", out)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", path, err)
	}
	return c.send(ctx, method, path, params, bytes.NewReader(b), "application/json", out)
}

// send issues the request with a raw body of the given content type and
// decodes a JSON answer into out.
func (c *Client) send(ctx context.Context, method, path string, params url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("client: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, params, nil, out)
}

func rangeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("startDate", start.Format(time.RFC3339))
	v.Set("endDate", end.Format(time.RFC3339))
	return v
}

// ListWorkouts returns every workout of the caller.
func (c *Client) ListWorkouts(ctx context.Context) ([]models.Workout, error) {
	var out []models.Workout
	if err := c.get(ctx, "/api/v1/workouts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryWorkouts returns the caller's workouts dated in [start, end). The
// server resolves the user from the connection, so userID is not sent.
func (c *Client) QueryWorkouts(ctx context.Context, start, end time.Time, _ int) ([]models.Workout, error) {
	var out []models.Workout
	if err := c.get(ctx, "/api/v1/workouts/by-date-range", rangeParams(start, end), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWorkout returns one workout.
func (c *Client) GetWorkout(ctx context.Context, id uuid.UUID) (*models.Workout, error) {
	var out models.Workout
	if err := c.get(ctx, "/api/v1/workouts/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWorkout stores a new workout.
func (c *Client) CreateWorkout(ctx context.Context, req models.WorkoutRequest) (*models.Workout, error) {
	var out models.Workout
	if err := c.do(ctx, http.MethodPost, "/api/v1/workouts", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateWorkout replaces a workout's details and, when req.Sets is non-nil,
// its sets.
func (c *Client) UpdateWorkout(ctx context.Context, id uuid.UUID, req models.WorkoutRequest) (*models.Workout, error) {
	var out models.Workout
	if err := c.do(ctx, http.MethodPut, "/api/v1/workouts/"+id.String(), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportLog uploads a training log export. Warmup sets are kept when warmups is set.
func (c *Client) ImportLog(ctx context.Context, r io.Reader, warmups bool) (*importer.Result, error) {
	params := url.Values{}
	if warmups {
		params.Set("warmups", "true")
	}
	var out importer.Result
	if err := c.send(ctx, http.MethodPost, "/api/v1/workouts/import", params, r, "text/csv", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListImports returns the most recent import runs, newest first.
func (c *Client) ListImports(ctx context.Context, limit int) ([]models.ImportLog, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out []models.ImportLog
	if err := c.get(ctx, "/api/v1/imports", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStats returns the server-side aggregate over [start, end).
func (c *Client) GetStats(ctx context.Context, start, end time.Time) (stats.Summary, error) {
	var out stats.Summary
	if err := c.get(ctx, "/api/v1/workouts/stats", rangeParams(start, end), &out); err != nil {
		return stats.Summary{}, err
	}
	return out, nil
}

// ListMuscleGroups returns the muscle group catalog.
func (c *Client) ListMuscleGroups(ctx context.Context) ([]models.MuscleGroup, error) {
	var out []models.MuscleGroup
	if err := c.get(ctx, "/api/v1/muscle-groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ErrAccessDenied is returned when every exercise tier refused the request.
var ErrAccessDenied = errors.New("client: access denied by every exercise endpoint")

// Tier is one way of listing the exercise catalog.
type Tier struct {
	Name string
	Path string
}

// DefaultTiers tries the key-protected listing before the public one.
var DefaultTiers = []Tier{
	{Name: "authenticated", Path: "/api/v1/exercise-templates"},
	{Name: "public", Path: "/api/v1/exercise-templates/public"},
}

// Lookup is the outcome of ListExercisesTiered.
type Lookup struct {
	Exercises []models.Exercise
	// Tier names the tier that answered.
	Tier string
	// Denied lists the tiers that answered 401 or 403 before it.
	Denied []string
}

// ListExercisesTiered walks the tiers in order. A tier refusing access moves
// on to the next one; any other failure ends the lookup with that error.
func (c *Client) ListExercisesTiered(ctx context.Context) (Lookup, error) {
	var res Lookup
	for _, t := range c.tiers {
		var out []models.Exercise
		err := c.get(ctx, t.Path, nil, &out)
		if err == nil {
			res.Exercises = out
			res.Tier = t.Name
			return res, nil
		}
		var serr *StatusError
		if errors.As(err, &serr) && serr.AccessDenied() {
			res.Denied = append(res.Denied, t.Name)
			continue
		}
		return res, fmt.Errorf("listing exercises (%s): %w", t.Name, err)
	}
	return res, ErrAccessDenied
}

// ListExercises returns the exercise catalog from the first tier that allows it.
func (c *Client) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	res, err := c.ListExercisesTiered(ctx)
	if err != nil {
		return nil, err
	}
	return res.Exercises, nil
}
