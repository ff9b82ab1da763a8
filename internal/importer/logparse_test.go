package importer

import (
	"strings"
	"testing"
)

const sampleLog = `
"Legs · Day 2 · Week 4 · Push-Pull-Legs";"2026-02-19 4:54 h";"1:02 hr"
"1. Hack Squats · Machine · 8 reps";"WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
#;KG;REPS;RIR
1;115;8;1
2;115;10;1
3;115;10;1
"2. Hyperextensions on Roman Chair · Bodyweight · 10 reps";"WU1 · +0 kg · 8 reps"
#;KG;REPS;RIR
1;+35;10;0
2;+35;9;1,5
"3. Hanging Leg Raises · Bodyweight · 12 reps · 2 dropsets"
#;KG;REPS;RIR
1;+0;12;1

"Push · Day 1 · Week 4 · Push-Pull-Legs";"2026-02-17 17:04 h";"1:12 hr"
"1. Bench Press · Barbell · 6 reps";"WU1 · 22,5 kg · 10 reps"
#;KG;REPS;RIR
1;102,5;6;0
2;100;6;0
`

// TestParseLogSessions covers the happy path: session headers, exercises,
// warmups and working sets across two sessions.
func TestParseLogSessions(t *testing.T) {
	sessions, err := ParseLog(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want 2", len(sessions))
	}

	legs := sessions[0]
	if legs.Name != "Legs · Day 2 · Week 4 · Push-Pull-Legs" || legs.Duration != "1:02 hr" {
		t.Errorf("legs = %q / %q", legs.Name, legs.Duration)
	}
	if got := legs.Date.Format("2006-01-02 15:04"); got != "2026-02-19 04:54" {
		t.Errorf("legs.Date = %s", got)
	}
	if len(legs.Exercises) != 3 {
		t.Fatalf("legs exercises = %d, want 3", len(legs.Exercises))
	}

	hack := legs.Exercises[0]
	if hack.Name != "Hack Squats" || hack.Equipment != "Machine" || hack.TargetReps != 8 {
		t.Errorf("hack = %+v", hack)
	}
	if len(hack.Sets) != 5 {
		t.Fatalf("hack sets = %d, want 2 warmups + 3 working", len(hack.Sets))
	}
	if !hack.Sets[0].Warmup || hack.Sets[0].Weight != 37.5 || hack.Sets[0].Reps != 9 {
		t.Errorf("first warmup = %+v", hack.Sets[0])
	}
	if hack.Sets[2].Warmup || hack.Sets[2].Weight != 115 {
		t.Errorf("first working set = %+v", hack.Sets[2])
	}

	raises := legs.Exercises[2]
	if raises.Name != "Hanging Leg Raises" || raises.Equipment != "Bodyweight" {
		t.Errorf("raises = %q / %q", raises.Name, raises.Equipment)
	}

	push := sessions[1]
	if got := push.Date.Format("15:04"); got != "17:04" {
		t.Errorf("push time = %s, want 17:04", got)
	}
	if push.Exercises[0].Sets[1].Weight != 102.5 {
		t.Errorf("decimal comma weight = %v, want 102.5", push.Exercises[0].Sets[1].Weight)
	}
}

// TestParseLogBodyweightPlus verifies "+N" loads and fractional RIR.
func TestParseLogBodyweightPlus(t *testing.T) {
	sessions, err := ParseLog(strings.NewReader(sampleLog))
	if err != nil {
		t.Fatal(err)
	}
	hyper := sessions[0].Exercises[1]
	warm := hyper.Sets[0]
	if !warm.Warmup || !warm.PlusBodyweight || warm.Weight != 0 {
		t.Errorf("warmup = %+v, want +0 bodyweight warmup", warm)
	}
	set := hyper.Sets[2]
	if !set.PlusBodyweight || set.Weight != 35 || set.RIR != 1.5 {
		t.Errorf("set = %+v, want +35 with RIR 1.5", set)
	}
}

func TestParseLogEmpty(t *testing.T) {
	sessions, err := ParseLog(strings.NewReader("\n\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 0 {
		t.Errorf("sessions = %d, want 0", len(sessions))
	}
}

func TestParseLogOrphans(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"exercise before session", `"1. Squats · Barbell · 5 reps"`},
		{"set before exercise", "\"Legs\";\"2026-01-01 9:00 h\";\"1:00 hr\"\n1;100;5;1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLog(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseLoad(t *testing.T) {
	tests := []struct {
		in       string
		want     float64
		wantPlus bool
	}{
		{"102,5", 102.5, false},
		{"0,5", 0.5, false},
		{"+35", 35, true},
		{"+0", 0, true},
		{"80", 80, false},
	}
	for _, tt := range tests {
		got, plus := parseLoad(tt.in)
		if got != tt.want || plus != tt.wantPlus {
			t.Errorf("parseLoad(%q) = %v, %v; want %v, %v", tt.in, got, plus, tt.want, tt.wantPlus)
		}
	}
}
