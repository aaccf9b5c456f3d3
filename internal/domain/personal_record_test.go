package domain

import "testing"

func TestExerciseKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Bench Press", "bench-press"},
		{"bench  press", "bench-press"},
		{"BENCH PRESS", "bench-press"},
		{"  Barbell Row!  ", "barbell-row"},
		{"5x5 Squat", "5x5-squat"},
		{"Lat Pull-Down", "lat-pull-down"},
		{"", ""},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := ExerciseKey(tt.name); got != tt.want {
			t.Errorf("ExerciseKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBeatenBy(t *testing.T) {
	record := &PersonalRecord{BestWeight: 100, BestReps: 8}

	tests := []struct {
		label  string
		weight float64
		reps   int
		want   bool
	}{
		{"heavier", 105, 0, true},
		{"heavier fewer reps", 101, 1, true},
		{"same weight more reps", 100, 9, true},
		{"same weight same reps", 100, 8, false},
		{"same weight fewer reps", 100, 7, false},
		{"lighter more reps", 99, 20, false},
	}
	for _, tt := range tests {
		if got := record.BeatenBy(tt.weight, tt.reps); got != tt.want {
			t.Errorf("%s: BeatenBy(%v, %d) = %v, want %v", tt.label, tt.weight, tt.reps, got, tt.want)
		}
	}
}

func TestBeatenByNilRecord(t *testing.T) {
	var record *PersonalRecord
	if !record.BeatenBy(20, 5) {
		t.Error("first attempt at an exercise should count as a record")
	}
}
