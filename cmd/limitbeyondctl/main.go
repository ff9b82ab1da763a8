// Package main provides limitbeyondctl, a command line client for a running
// LimitBeyond server.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/claude/limitbeyond/internal/client"
	"github.com/claude/limitbeyond/internal/config"
	"github.com/claude/limitbeyond/internal/models"
	"github.com/claude/limitbeyond/internal/snapshot"
	"github.com/claude/limitbeyond/internal/stats"
	"github.com/claude/limitbeyond/internal/templates"
	"github.com/claude/limitbeyond/internal/workout"
)

const (
	defaultDays = 30
	defaultTop  = 4
)

var (
	serverURL string
	apiKey    string
	cachePath string

	statsSince   string
	statsUntil   string
	statsDays    int
	statsTop     int
	statsOffline bool

	workoutsSince string
	workoutsUntil string
	workoutsDays  int
	showOffline   bool

	editDate   string
	editRemove []int
	editAdd    []string

	copyDate string

	importWarmups bool
	importsLimit  int
)

// now is replaced in tests.
var now = time.Now

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg, err := config.LoadClient()
	if err != nil {
		logErrf("failed to load client settings: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:           "limitbeyondctl",
		Short:         "Workout statistics and plans from a LimitBeyond server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", cfg.BaseURL, "server base URL (env LIMITBEYOND_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", cfg.APIKey, "API key (env LIMITBEYOND_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", cfg.CachePath, "local snapshot file (env LIMITBEYOND_CACHE)")

	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newWorkoutsCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newImportsCmd())

	return rootCmd
}

func newClient() *client.Client {
	return client.New(serverURL, apiKey)
}

func openCache() (*snapshot.Store, error) {
	if cachePath == "" {
		return nil, errors.New("no cache path: set --cache or LIMITBEYOND_CACHE")
	}
	st, err := snapshot.Open(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return st, nil
}

// dateRange resolves --since/--until/--days into [start, end). until is
// inclusive, so end is the day after it.
func dateRange(since, until string, days int) (time.Time, time.Time, error) {
	today := now()
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)
	if until != "" {
		parsed, err := time.ParseInLocation(models.DateKeyLayout, until, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --until value: %w", err)
		}
		end = parsed.AddDate(0, 0, 1)
	}
	start := end.AddDate(0, 0, -days)
	if since != "" {
		parsed, err := time.ParseInLocation(models.DateKeyLayout, since, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --since value: %w", err)
		}
		start = parsed
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--since must not be after --until")
	}
	return start, end, nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show workout statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsUntil, "until", "", "end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsDays, "days", defaultDays, "days back from --until when --since is not set")
	cmd.Flags().IntVar(&statsTop, "top", defaultTop, "number of muscle groups to show")
	cmd.Flags().BoolVar(&statsOffline, "offline", false, "use the local snapshot instead of the server")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	start, end, err := dateRange(statsSince, statsUntil, statsDays)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var workouts []models.Workout
	source := serverURL
	if statsOffline {
		st, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache(st)
		workouts, err = st.Load(ctx, start, end)
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
		source = "snapshot"
		if synced, _, err := st.LastSync(ctx); err == nil {
			source = "snapshot of " + synced.Local().Format("2006-01-02 15:04")
		}
	} else {
		workouts, err = newClient().QueryWorkouts(ctx, start, end, 0)
		if err != nil {
			return fmt.Errorf("failed to fetch workouts: %w", err)
		}
	}

	summary, err := stats.Aggregate(workouts)
	if err != nil {
		return fmt.Errorf("failed to aggregate: %w", err)
	}

	out := cmd.OutOrStdout()
	title := fmt.Sprintf("Workouts %s to %s", start.Format(models.DateKeyLayout), end.AddDate(0, 0, -1).Format(models.DateKeyLayout))
	if _, err := fmt.Fprintln(out, titleStyle.Render(title)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintln(out, mutedStyle.Render("source: "+source)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, line := range stats.FormatReport(summary, statsTop) {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Store every workout in the local snapshot",
		Args:  cobra.NoArgs,
		RunE:  runSyncCmd,
	}
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	workouts, err := newClient().ListWorkouts(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch workouts: %w", err)
	}
	st, err := openCache()
	if err != nil {
		return err
	}
	defer closeCache(st)
	if err := st.Save(ctx, workouts); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored %d workouts in %s\n", len(workouts), cachePath)
	return err
}

func newWorkoutsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workouts",
		Short: "List workouts",
		Args:  cobra.NoArgs,
		RunE:  runWorkoutsCmd,
	}
	cmd.Flags().StringVar(&workoutsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&workoutsUntil, "until", "", "end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&workoutsDays, "days", 7, "days back from --until when --since is not set")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one workout with its sets",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkoutsShowCmd,
	}
	showCmd.Flags().BoolVar(&showOffline, "offline", false, "read the local snapshot instead of the server")
	cmd.AddCommand(showCmd)

	editCmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Reschedule a workout or change its sets",
		Long: "Reschedule a workout or change its sets. Sets are numbered as in `workouts show`.\n" +
			"Changing the set list clears the completion of every set.",
		Args: cobra.ExactArgs(1),
		RunE: runWorkoutsEditCmd,
	}
	editCmd.Flags().StringVar(&editDate, "date", "", "new scheduled date (YYYY-MM-DD)")
	editCmd.Flags().IntSliceVar(&editRemove, "remove", nil, "set number to remove (repeatable)")
	editCmd.Flags().StringArrayVar(&editAdd, "add", nil, `set to append as "exercise:reps[:weight]" (repeatable)`)
	cmd.AddCommand(editCmd)
	return cmd
}

func runWorkoutsCmd(cmd *cobra.Command, _ []string) error {
	start, end, err := dateRange(workoutsSince, workoutsUntil, workoutsDays)
	if err != nil {
		return err
	}
	workouts, err := newClient().QueryWorkouts(cmd.Context(), start, end, 0)
	if err != nil {
		return fmt.Errorf("failed to fetch workouts: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(workouts) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("No workouts in range"))
		return err
	}
	for _, w := range workouts {
		if _, err := fmt.Fprintln(out, workoutLine(w)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func workoutLine(w models.Workout) string {
	done := 0
	for _, s := range w.Sets {
		if s.Completed {
			done++
		}
	}
	status := pendingStyle.Render("planned")
	if w.Completed {
		status = doneStyle.Render("done")
	}
	return fmt.Sprintf("%s  %-30s %d/%d sets  %s", w.DateKey(), w.Name, done, len(w.Sets), status)
}

func parseWorkoutID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid workout id %q: %w", raw, err)
	}
	return id, nil
}

func runWorkoutsShowCmd(cmd *cobra.Command, args []string) error {
	id, err := parseWorkoutID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var w *models.Workout
	if showOffline {
		st, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache(st)
		w, err = st.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read snapshot: %w", err)
		}
	} else {
		w, err = newClient().GetWorkout(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to fetch workout: %w", err)
		}
	}
	return printWorkout(cmd.OutOrStdout(), w)
}

func printWorkout(out io.Writer, w *models.Workout) error {
	if _, err := fmt.Fprintln(out, workoutLine(*w)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for i, s := range w.Sets {
		name := "?"
		if s.Exercise != nil {
			name = s.Exercise.Name
		}
		load := fmt.Sprintf("%d reps", s.Reps)
		if s.Weight != nil && *s.Weight > 0 {
			load += fmt.Sprintf(" x %g kg", *s.Weight)
		}
		status := pendingStyle.Render("open")
		if s.Completed {
			status = doneStyle.Render("done")
		}
		if _, err := fmt.Fprintf(out, "  %2d. %-24s %-18s %s\n", i+1, name, load, status); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runWorkoutsEditCmd(cmd *cobra.Command, args []string) error {
	id, err := parseWorkoutID(args[0])
	if err != nil {
		return err
	}
	if editDate == "" && len(editRemove) == 0 && len(editAdd) == 0 {
		return errors.New("nothing to change: use --date, --remove or --add")
	}
	ctx := cmd.Context()
	c := newClient()

	w, err := c.GetWorkout(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch workout: %w", err)
	}
	draft := workout.DraftFrom(w)

	if editDate != "" {
		date, err := time.ParseInLocation(models.DateKeyLayout, editDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date value: %w", err)
		}
		draft = draft.WithSchedule(date)
	}

	// Remove from the back so earlier numbers stay valid.
	removes := lo.Uniq(editRemove)
	sort.Sort(sort.Reverse(sort.IntSlice(removes)))
	for _, n := range removes {
		if n < 1 || n > draft.Len() {
			return fmt.Errorf("--remove %d: workout has %d sets", n, len(w.Sets))
		}
		draft = draft.RemoveSet(n - 1)
	}

	if len(editAdd) > 0 {
		lookup, err := c.ListExercisesTiered(ctx)
		if err != nil {
			return fmt.Errorf("failed to load exercise catalog: %w", err)
		}
		for _, spec := range editAdd {
			set, err := parseSetSpec(spec, lookup.Exercises)
			if err != nil {
				return err
			}
			draft = draft.AddSet(set)
		}
	}

	req := draft.Request()
	if len(removes) == 0 && len(editAdd) == 0 {
		// Leave the sets, and their completion, untouched.
		req.Sets = nil
	}
	updated, err := c.UpdateWorkout(ctx, id, req)
	if err != nil {
		return fmt.Errorf("failed to update workout: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%d sets) for %s\n", updated.Name, len(updated.Sets), updated.DateKey())
	return err
}

// parseSetSpec reads "exercise:reps[:weight]", matching the exercise name
// case-insensitively against the catalog.
func parseSetSpec(spec string, catalog []models.Exercise) (models.WorkoutSetRequest, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return models.WorkoutSetRequest{}, fmt.Errorf("invalid --add %q: want exercise:reps[:weight]", spec)
	}
	name := strings.TrimSpace(parts[0])
	ex, ok := lo.Find(catalog, func(e models.Exercise) bool { return strings.EqualFold(e.Name, name) })
	if !ok {
		return models.WorkoutSetRequest{}, fmt.Errorf("invalid --add %q: %q is not in the exercise catalog", spec, name)
	}
	reps, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || reps < 0 {
		return models.WorkoutSetRequest{}, fmt.Errorf("invalid --add %q: bad rep count", spec)
	}
	set := models.WorkoutSetRequest{ExerciseID: ex.ID, Reps: reps}
	if len(parts) == 3 {
		weight, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || weight < 0 {
			return models.WorkoutSetRequest{}, fmt.Errorf("invalid --add %q: bad weight", spec)
		}
		set.Weight = &weight
	}
	return set, nil
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Built-in workout plans",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List plans and their days",
		Args:  cobra.NoArgs,
		RunE:  runTemplatesListCmd,
	})
	copyCmd := &cobra.Command{
		Use:   "copy <plan> <day>",
		Short: "Create a workout from a plan day",
		Args:  cobra.ExactArgs(2),
		RunE:  runTemplatesCopyCmd,
	}
	copyCmd.Flags().StringVar(&copyDate, "date", "", "scheduled date (YYYY-MM-DD, default today)")
	cmd.AddCommand(copyCmd)
	return cmd
}

func runTemplatesListCmd(cmd *cobra.Command, _ []string) error {
	plans, err := templates.All()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range plans {
		if _, err := fmt.Fprintf(out, "%s  %s\n", titleStyle.Render(p.ID), p.Name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		for _, d := range p.Days {
			names := make([]string, 0, len(d.Exercises))
			for _, e := range d.Exercises {
				names = append(names, e.Exercise)
			}
			if _, err := fmt.Fprintf(out, "  day %d  %s: %s\n", d.Day, d.Name, mutedStyle.Render(strings.Join(names, ", "))); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

func runTemplatesCopyCmd(cmd *cobra.Command, args []string) error {
	plan, err := templates.ByID(args[0])
	if err != nil {
		return err
	}
	day, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", args[1], err)
	}
	date := now()
	if copyDate != "" {
		date, err = time.ParseInLocation(models.DateKeyLayout, copyDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date value: %w", err)
		}
	}

	ctx := cmd.Context()
	c := newClient()
	lookup, err := c.ListExercisesTiered(ctx)
	if err != nil {
		return fmt.Errorf("failed to load exercise catalog: %w", err)
	}
	for _, tier := range lookup.Denied {
		logErrf("exercise catalog: %s access denied, trying next\n", tier)
	}

	draft, skipped, err := templates.Instantiate(plan, day, date, lookup.Exercises)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		logErrf("skipping %q: not in exercise catalog\n", name)
	}

	wo, err := c.CreateWorkout(ctx, draft.Request())
	if err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d sets) for %s\n", wo.Name, len(wo.Sets), wo.DateKey())
	return err
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Upload a training log export as completed workouts",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVar(&importWarmups, "warmups", false, "keep warmup sets")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer func() { _ = f.Close() }()

	res, err := newClient().ImportLog(cmd.Context(), f, importWarmups)
	if err != nil {
		return fmt.Errorf("failed to import log: %w", err)
	}
	for _, name := range res.UnknownExercises {
		logErrf("skipped %q: not in exercise catalog\n", name)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d sessions (%d sets, %d warmups skipped)\n",
		res.WorkoutsCreated, res.Sessions, res.SetsImported, res.WarmupsSkipped)
	return err
}

func newImportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imports",
		Short: "Show recent training log imports",
		Args:  cobra.NoArgs,
		RunE:  runImportsCmd,
	}
	cmd.Flags().IntVar(&importsLimit, "limit", 10, "number of imports to show")
	return cmd
}

func runImportsCmd(cmd *cobra.Command, _ []string) error {
	logs, err := newClient().ListImports(cmd.Context(), importsLimit)
	if err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, l := range logs {
		status := doneStyle.Render(l.Status)
		if l.Status != models.ImportSuccess {
			status = pendingStyle.Render(l.Status)
		}
		line := fmt.Sprintf("%s  %s  %d workouts, %d sets", l.CreatedAt.Local().Format("2006-01-02 15:04"), status, l.WorkoutsCreated, l.SetsImported)
		if l.ErrorMessage != nil {
			line += "  " + mutedStyle.Render(*l.ErrorMessage)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func closeCache(st *snapshot.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close cache: %v\n", cerr)
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
