package models

import "testing"

func sampleProgram() *ProgramStructure {
	return &ProgramStructure{
		Title:         "Base Block",
		DurationWeeks: 2,
		Weeks: []Week{
			{WeekNumber: 1, Days: []Day{
				{DayNumber: 1, Exercises: []Exercise{{Name: "Squat"}, {Name: "Bench"}}},
				{DayNumber: 2, Exercises: []Exercise{{Name: "Row"}}},
			}},
			{WeekNumber: 2, Days: []Day{
				{DayNumber: 1, Exercises: []Exercise{{Name: "Squat"}, {Name: "Row"}}},
			}},
		},
	}
}

// TestExerciseNames verifies de-duplication in first-appearance order.
func TestExerciseNames(t *testing.T) {
	got := sampleProgram().ExerciseNames()
	want := []string{"Squat", "Bench", "Row"}
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names = %v, want %v", got, want)
		}
	}
}

// TestApplyExerciseID verifies the ID lands on every occurrence of the
// name and nowhere else.
func TestApplyExerciseID(t *testing.T) {
	p := sampleProgram()
	p.ApplyExerciseID("Squat", "ex-42")

	stamped := 0
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				switch {
				case e.Name == "Squat" && e.ExerciseID != "ex-42":
					t.Errorf("Squat occurrence missing ID: %+v", e)
				case e.Name == "Squat":
					stamped++
				case e.ExerciseID != "":
					t.Errorf("unexpected ID on %q", e.Name)
				}
			}
		}
	}
	if stamped != 2 {
		t.Errorf("stamped = %d, want 2", stamped)
	}
}
