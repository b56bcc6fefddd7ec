package models

import "time"

// ExerciseRecord is a canonical exercise row from the database. The
// matching engine reads these and conditionally inserts auto-created
// ones; everything else about the table is owned by the store.
type ExerciseRecord struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	NameNormalized string    `json:"name_normalized"`
	MuscleGroups   []string  `json:"muscle_groups,omitempty"`
	ProviderSource string    `json:"provider_source,omitempty"`
	IsAutoCreated  bool      `json:"is_auto_created,omitempty"`
	AutoCreatedBy  string    `json:"auto_created_by,omitempty"`
	AutoCreatedAt  time.Time `json:"auto_created_at,omitempty"`
}

// ExerciseMatch is the result of reconciling one free-text exercise name
// against the canonical database.
//
// Confidence: 1.0 = exact match (or successful auto-create),
// 0.55-0.99 = fuzzy match, 0 = no match.
type ExerciseMatch struct {
	OriginalName    string          `json:"original_name"`
	MatchedExercise *ExerciseRecord `json:"matched_exercise"`
	Confidence      float64         `json:"confidence"`
	IsNew           bool            `json:"is_new"`
	ExerciseID      string          `json:"exercise_id,omitempty"`
	SuggestedName   string          `json:"suggested_name,omitempty"`
}

// ProgramStatus tracks a saved program's lifecycle.
type ProgramStatus string

const (
	ProgramDraft     ProgramStatus = "draft"
	ProgramPublished ProgramStatus = "published"
)

// ProgramRow is a saved program as persisted by the store.
type ProgramRow struct {
	ID        string            `json:"id"`
	CoachID   string            `json:"coach_id"`
	Title     string            `json:"title"`
	Status    ProgramStatus     `json:"status"`
	PDFURL    string            `json:"pdf_url,omitempty"`
	Structure *ProgramStructure `json:"structure"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
