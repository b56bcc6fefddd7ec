package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/coachlift/internal/models"
)

// InsertProgram saves a parsed program as a draft and returns the
// stored row. The structure is persisted as JSONB verbatim.
func (db *DB) InsertProgram(ctx context.Context, coachID, title, pdfURL string, structure *models.ProgramStructure) (*models.ProgramRow, error) {
	now := time.Now().UTC()
	row := models.ProgramRow{
		ID:        uuid.NewString(),
		CoachID:   coachID,
		Title:     title,
		Status:    models.ProgramDraft,
		PDFURL:    pdfURL,
		Structure: structure,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO programs (id, coach_id, title, status, pdf_url, structure, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		row.ID, row.CoachID, row.Title, row.Status, row.PDFURL, row.Structure,
		row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting program: %w", err)
	}
	return &row, nil
}

// GetProgram retrieves a coach's program by ID, including its full
// structure. Returns nil when not found.
func (db *DB) GetProgram(ctx context.Context, programID, coachID string) (*models.ProgramRow, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT id, coach_id, title, status, pdf_url, structure, created_at, updated_at
		 FROM programs
		 WHERE id = $1 AND coach_id = $2`,
		programID, coachID)

	var p models.ProgramRow
	err := row.Scan(&p.ID, &p.CoachID, &p.Title, &p.Status, &p.PDFURL,
		&p.Structure, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying program: %w", err)
	}
	return &p, nil
}

// ListPrograms returns a coach's programs newest first. Structures are
// omitted; fetch a single program for the full payload.
func (db *DB) ListPrograms(ctx context.Context, coachID string) ([]models.ProgramRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, coach_id, title, status, pdf_url, created_at, updated_at
		 FROM programs
		 WHERE coach_id = $1
		 ORDER BY created_at DESC`,
		coachID)
	if err != nil {
		return nil, fmt.Errorf("querying programs: %w", err)
	}
	defer rows.Close()

	var result []models.ProgramRow
	for rows.Next() {
		var p models.ProgramRow
		if err := rows.Scan(&p.ID, &p.CoachID, &p.Title, &p.Status, &p.PDFURL,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning program: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// UpdateProgramStatus moves a program between draft and published.
// Returns false when the program does not exist or belongs to another
// coach.
func (db *DB) UpdateProgramStatus(ctx context.Context, programID, coachID string, status models.ProgramStatus) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE programs SET status = $1, updated_at = now()
		 WHERE id = $2 AND coach_id = $3`,
		status, programID, coachID)
	if err != nil {
		return false, fmt.Errorf("updating program status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteProgram removes a coach's program. Returns false when nothing
// matched.
func (db *DB) DeleteProgram(ctx context.Context, programID, coachID string) (bool, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM programs WHERE id = $1 AND coach_id = $2`,
		programID, coachID)
	if err != nil {
		return false, fmt.Errorf("deleting program: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
