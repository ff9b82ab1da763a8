package importer

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Session is one workout of a training log export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []LoggedExercise
}

// LoggedExercise is one exercise block of a session.
type LoggedExercise struct {
	Position   int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []LoggedSet
}

// LoggedSet is a performed set. Weight is the added load for bodyweight
// exercises when PlusBodyweight is set.
type LoggedSet struct {
	Position       int
	Weight         float64
	PlusBodyweight bool
	Reps           int
	RIR            float64
	Warmup         bool
}

var (
	// "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Exercise · Equipment · 8 reps[· modifiers]"[;"warmups"]
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupPart = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	columnLine = regexp.MustCompile(`^#;KG;REPS;RIR$`)
)

// logParser accumulates sessions line by line.
type logParser struct {
	sessions []Session
	session  *Session
	exercise *LoggedExercise
}

func (p *logParser) closeExercise() {
	if p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
		p.exercise = nil
	}
}

func (p *logParser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

// ParseLog reads a semicolon separated training log export. Blank lines end a
// session; unrecognised lines are ignored.
func ParseLog(r io.Reader) ([]Session, error) {
	scanner := bufio.NewScanner(r)
	p := &logParser{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			p.closeSession()

		case columnLine.MatchString(line):

		case sessionLine.MatchString(line):
			m := sessionLine.FindStringSubmatch(line)
			p.closeSession()
			date, err := parseSessionTime(m[2])
			if err != nil {
				return nil, err
			}
			p.session = &Session{Name: m[1], Date: date, Duration: m[3]}

		case exerciseLine.MatchString(line):
			m := exerciseLine.FindStringSubmatch(line)
			if p.session == nil {
				return nil, fmt.Errorf("exercise outside a session: %q", line)
			}
			p.closeExercise()
			pos, _ := strconv.Atoi(m[1])
			target, _ := strconv.Atoi(m[4])
			p.exercise = &LoggedExercise{
				Position:   pos,
				Name:       strings.TrimSpace(m[2]),
				Equipment:  strings.TrimSpace(m[3]),
				TargetReps: target,
			}
			if m[6] != "" {
				p.exercise.Sets = append(p.exercise.Sets, parseWarmups(m[6])...)
			}

		case setLine.MatchString(line):
			m := setLine.FindStringSubmatch(line)
			if p.exercise == nil {
				return nil, fmt.Errorf("set outside an exercise: %q", line)
			}
			pos, _ := strconv.Atoi(m[1])
			weight, plus := parseLoad(m[2])
			reps, _ := strconv.Atoi(m[3])
			p.exercise.Sets = append(p.exercise.Sets, LoggedSet{
				Position:       pos,
				Weight:         weight,
				PlusBodyweight: plus,
				Reps:           reps,
				RIR:            parseDecimal(m[4]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	p.closeSession()
	return p.sessions, nil
}

// parseSessionTime accepts "2026-02-19 4:54" and "2026-02-19 16:54".
func parseSessionTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing session date %q", s)
}

// parseWarmups reads "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps".
func parseWarmups(s string) []LoggedSet {
	var sets []LoggedSet
	for _, part := range strings.Split(s, "<br>") {
		m := warmupPart.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		pos, _ := strconv.Atoi(m[1])
		weight, plus := parseLoad(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, LoggedSet{
			Position:       pos,
			Weight:         weight,
			PlusBodyweight: plus,
			Reps:           reps,
			Warmup:         true,
		})
	}
	return sets
}

// parseLoad reads "102,5" as 102.5 and "+35" as 35 on top of bodyweight.
func parseLoad(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseDecimal(rest), true
	}
	return parseDecimal(s), false
}

// parseDecimal accepts a comma as decimal separator.
func parseDecimal(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
