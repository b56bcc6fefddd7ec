package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/coachlift/internal/matching"
	"github.com/claude/coachlift/internal/models"
)

// fuzzyLimit caps how many trigram candidates a similarity search
// returns. The resolver only ever looks at the top-ranked one; the rest
// exist for the interactive search endpoint.
const fuzzyLimit = 5

const exerciseColumns = `id, name, name_normalized, muscle_groups, provider_source,
	 is_auto_created, auto_created_by, auto_created_at`

// GetByNormalizedName returns the exercise with the exact normalized
// name, or nil when none exists.
func (db *DB) GetByNormalizedName(ctx context.Context, nameNormalized string) (*models.ExerciseRecord, error) {
	row := db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE name_normalized = $1`,
		nameNormalized)

	ex, err := scanExercise(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying exercise by normalized name: %w", err)
	}
	return ex, nil
}

// FuzzySearch returns trigram-similar exercises ranked by descending
// similarity. The % operator prefilters on the GIN index; callers apply
// their own acceptance threshold on top.
func (db *DB) FuzzySearch(ctx context.Context, nameNormalized string) ([]matching.FuzzyCandidate, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+`, similarity(name_normalized, $1) AS sim
		 FROM exercises
		 WHERE name_normalized % $1
		 ORDER BY sim DESC
		 LIMIT $2`,
		nameNormalized, fuzzyLimit)
	if err != nil {
		return nil, fmt.Errorf("fuzzy searching exercises: %w", err)
	}
	defer rows.Close()

	var result []matching.FuzzyCandidate
	for rows.Next() {
		var (
			c      matching.FuzzyCandidate
			autoAt *time.Time
		)
		e := &c.Exercise
		if err := rows.Scan(&e.ID, &e.Name, &e.NameNormalized, &e.MuscleGroups,
			&e.ProviderSource, &e.IsAutoCreated, &e.AutoCreatedBy, &autoAt,
			&c.Similarity); err != nil {
			return nil, fmt.Errorf("scanning fuzzy candidate: %w", err)
		}
		if autoAt != nil {
			e.AutoCreatedAt = *autoAt
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// CreateAutoExercise inserts an exercise discovered in a coach's upload.
// If a concurrent upload already created the same normalized name, the
// existing row wins and is returned instead.
func (db *DB) CreateAutoExercise(ctx context.Context, name, nameNormalized, coachID string) (*models.ExerciseRecord, error) {
	row := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, name, name_normalized, provider_source, is_auto_created, auto_created_by, auto_created_at)
		 VALUES ($1, $2, $3, $4, TRUE, $5, now())
		 ON CONFLICT (name_normalized) DO NOTHING
		 RETURNING `+exerciseColumns,
		uuid.NewString(), name, nameNormalized, matching.ProviderCoachUpload, coachID)

	ex, err := scanExercise(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race; fetch the winner.
		return db.GetByNormalizedName(ctx, nameNormalized)
	}
	if err != nil {
		return nil, fmt.Errorf("auto-creating exercise: %w", err)
	}
	return ex, nil
}

// SearchExercises serves the interactive search box: prefix and
// substring hits first, then trigram-similar names.
func (db *DB) SearchExercises(ctx context.Context, query string, limit int) ([]models.ExerciseRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	normalized := matching.Normalize(query)
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE name_normalized LIKE '%' || $1 || '%' OR name_normalized % $1
		 ORDER BY (name_normalized LIKE $1 || '%') DESC,
		          similarity(name_normalized, $1) DESC,
		          name ASC
		 LIMIT $2`,
		normalized, limit)
	if err != nil {
		return nil, fmt.Errorf("searching exercises: %w", err)
	}
	defer rows.Close()

	var result []models.ExerciseRecord
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, *ex)
	}
	return result, rows.Err()
}

func scanExercise(row pgx.Row) (*models.ExerciseRecord, error) {
	var (
		e      models.ExerciseRecord
		autoAt *time.Time
	)
	if err := row.Scan(&e.ID, &e.Name, &e.NameNormalized, &e.MuscleGroups,
		&e.ProviderSource, &e.IsAutoCreated, &e.AutoCreatedBy, &autoAt); err != nil {
		return nil, err
	}
	if autoAt != nil {
		e.AutoCreatedAt = *autoAt
	}
	return &e, nil
}
