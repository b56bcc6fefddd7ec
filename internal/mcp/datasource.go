package mcp

import (
	"context"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
	"github.com/claude/coachlift/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. *storage.DB
// satisfies it; tests substitute fakes.
type DataSource interface {
	SearchExercises(ctx context.Context, query string, limit int) ([]models.ExerciseRecord, error)
	ListPrograms(ctx context.Context, coachID string) ([]models.ProgramRow, error)
	GetProgram(ctx context.Context, programID, coachID string) (*models.ProgramRow, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

// NameResolver reconciles free-text exercise names against the
// canonical database.
type NameResolver interface {
	Resolve(ctx context.Context, name string, opts matching.Options) models.ExerciseMatch
}
