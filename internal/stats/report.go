package stats

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatReport renders a summary as plain text lines: totals, the per-day
// series and the top muscle groups.
func FormatReport(s Summary, top int) []string {
	lines := []string{
		fmt.Sprintf("Total workouts:     %d", s.TotalWorkouts),
		fmt.Sprintf("Completed workouts: %d", s.CompletedWorkouts),
		fmt.Sprintf("Total volume:       %s kg", formatVolume(s.TotalVolume)),
	}

	if len(s.WorkoutsByDate) > 0 {
		rows := make([][]string, 0, len(s.WorkoutsByDate))
		for _, d := range s.WorkoutsByDate {
			rows = append(rows, []string{d.Date, formatVolume(d.Volume), strconv.Itoa(d.Count)})
		}
		lines = append(lines, "")
		lines = append(lines, formatTable([]string{"DATE", "VOLUME", "WORKOUTS"}, rows, map[int]bool{1: true, 2: true})...)
	}

	groups := TopMuscleGroups(s.MuscleGroupDistribution, top)
	if len(groups) > 0 {
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{g.MuscleGroup, strconv.Itoa(g.Count)})
		}
		lines = append(lines, "")
		lines = append(lines, formatTable([]string{"MUSCLE GROUP", "EXERCISES"}, rows, map[int]bool{1: true})...)
	}
	return lines
}

func formatVolume(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlign))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlign))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlign map[int]bool) string {
	var b strings.Builder
	for i, w := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		pad := strings.Repeat(" ", w-len(cell))
		if rightAlign[i] {
			b.WriteString(pad + cell)
		} else {
			b.WriteString(cell + pad)
		}
	}
	return strings.TrimRight(b.String(), " ")
}
