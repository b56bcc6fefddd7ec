package models

// WorkoutType classifies what kind of training a day holds.
type WorkoutType string

const (
	WorkoutStrength WorkoutType = "Strength"
	WorkoutRunning  WorkoutType = "Running"
	WorkoutSwimming WorkoutType = "Swimming"
	WorkoutHyrox    WorkoutType = "HYROX"
	WorkoutRecovery WorkoutType = "Recovery"
	WorkoutMixed    WorkoutType = "Mixed"
)

// Intensity is the coarse effort level of a day.
type Intensity string

const (
	IntensityLow      Intensity = "Low"
	IntensityModerate Intensity = "Moderate"
	IntensityHigh     Intensity = "High"
	IntensityVeryHigh Intensity = "Very High"
)

// Difficulty is the overall program level.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
	DifficultyElite        Difficulty = "Elite"
)

// ReferenceLift names the one-rep-max a percentage weight is computed
// against.
type ReferenceLift string

const (
	RefSquat    ReferenceLift = "squat"
	RefBench    ReferenceLift = "bench"
	RefDeadlift ReferenceLift = "deadlift"
)

// ExerciseSet is a single prescribed set. Reps, weight and rest are kept
// as free text because programs encode them every way imaginable
// ("8-12", "AMRAP", "70%", "BW+25lbs", "90s").
type ExerciseSet struct {
	SetNumber int     `json:"setNumber"`
	Reps      string  `json:"reps,omitempty"`
	Weight    string  `json:"weight,omitempty"`
	RPE       float64 `json:"rpe,omitempty"`
	Rest      string  `json:"rest,omitempty"`
	Duration  string  `json:"duration,omitempty"`
	Distance  string  `json:"distance,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// Exercise is one movement in a day's workout. Name is the matching key;
// ExerciseID is filled in once the name has been reconciled against the
// canonical database.
type Exercise struct {
	Name           string        `json:"name"`
	NameNormalized string        `json:"nameNormalized,omitempty"`
	MuscleGroups   []string      `json:"muscleGroups,omitempty"`
	Sets           []ExerciseSet `json:"sets"`
	Superset       bool          `json:"superset,omitempty"`
	SupersetGroup  int           `json:"supersetGroup,omitempty"`
	EMOM           bool          `json:"emom,omitempty"`
	EMOMDuration   string        `json:"emomDuration,omitempty"`
	ReferenceLift  ReferenceLift `json:"referenceLift,omitempty"`
	Notes          string        `json:"notes,omitempty"`
	ExerciseID     string        `json:"exerciseId,omitempty"`
}

// Day is a single workout day. Depending on WorkoutType it is
// exercise-based, cardio-segment-based, or both.
type Day struct {
	DayNumber      int             `json:"dayNumber"`
	Name           string          `json:"name"`
	WorkoutType    WorkoutType     `json:"workoutType"`
	Intensity      Intensity       `json:"intensity,omitempty"`
	Exercises      []Exercise      `json:"exercises"`
	CardioSegments []CardioSegment `json:"cardioSegments,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// Week is one training week. WeekNumber ordering is significant.
type Week struct {
	WeekNumber int    `json:"weekNumber"`
	Phase      string `json:"phase,omitempty"`
	Days       []Day  `json:"days"`
	Notes      string `json:"notes,omitempty"`
}

// ProgramStructure is the root artifact produced by parsing a program
// PDF. Invariants: Title non-empty, DurationWeeks >= 1, Weeks non-empty.
// The structural validation lives in the parser; edits after review go
// through the methods below.
type ProgramStructure struct {
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	DurationWeeks int        `json:"durationWeeks"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
	Focus         []string   `json:"focus,omitempty"`
	Equipment     []string   `json:"equipment,omitempty"`
	Weeks         []Week     `json:"weeks"`
}

// ExerciseNames returns every exercise name across all weeks and days,
// de-duplicated, in first-appearance order.
func (p *ProgramStructure) ExerciseNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, w := range p.Weeks {
		for _, d := range w.Days {
			for _, e := range d.Exercises {
				if !seen[e.Name] {
					seen[e.Name] = true
					names = append(names, e.Name)
				}
			}
		}
	}
	return names
}

// ApplyExerciseID stamps the given canonical exercise ID onto every
// exercise whose name matches originalName.
func (p *ProgramStructure) ApplyExerciseID(originalName, exerciseID string) {
	for wi := range p.Weeks {
		for di := range p.Weeks[wi].Days {
			day := &p.Weeks[wi].Days[di]
			for ei := range day.Exercises {
				if day.Exercises[ei].Name == originalName {
					day.Exercises[ei].ExerciseID = exerciseID
				}
			}
		}
	}
}
