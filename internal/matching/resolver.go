package matching

import (
	"context"
	"log/slog"

	"github.com/claude/coachlift/internal/models"
)

// Confidence thresholds. These are hard limits, not per-call tunables:
// a fuzzy candidate below FuzzyFloor is rejected, a fuzzy hit is clamped
// to FuzzyCeiling so 1.0 stays reserved for exact matches, and the UI
// flags anything below ReviewThreshold for manual review.
const (
	FuzzyFloor      = 0.55
	FuzzyCeiling    = 0.99
	ReviewThreshold = 0.70
)

// ProviderCoachUpload marks exercises auto-created during a coach's
// program upload.
const ProviderCoachUpload = "coach_upload"

// FuzzyCandidate is one ranked result from the store's similarity
// search.
type FuzzyCandidate struct {
	Exercise   models.ExerciseRecord
	Similarity float64
}

// ExerciseStore is the canonical exercise database as seen by the
// resolver: equality lookup, similarity search, conditional insert.
type ExerciseStore interface {
	// GetByNormalizedName returns the record with the exact normalized
	// name, or nil when none exists.
	GetByNormalizedName(ctx context.Context, nameNormalized string) (*models.ExerciseRecord, error)
	// FuzzySearch returns candidates ranked by descending similarity.
	FuzzySearch(ctx context.Context, nameNormalized string) ([]FuzzyCandidate, error)
	// CreateAutoExercise inserts an auto-created record and returns it.
	CreateAutoExercise(ctx context.Context, name, nameNormalized, coachID string) (*models.ExerciseRecord, error)
}

// Options control optional auto-creation of unmatched exercises.
type Options struct {
	AutoCreate bool
	CoachID    string
}

// Resolver reconciles free-text exercise names against the canonical
// store.
type Resolver struct {
	store ExerciseStore
	log   *slog.Logger
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store ExerciseStore, log *slog.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve matches a single name. It never returns an error: every
// failure path degrades to a lower-confidence result, bottoming out at
// an unmatched entry with confidence 0 and a suggested normalized name.
func (r *Resolver) Resolve(ctx context.Context, name string, opts Options) models.ExerciseMatch {
	nameNormalized := Normalize(name)

	// 1. Exact match on the normalized key.
	exact, err := r.store.GetByNormalizedName(ctx, nameNormalized)
	if err != nil {
		r.log.Warn("exact lookup failed", "name", name, "error", err)
	}
	if exact != nil {
		return models.ExerciseMatch{
			OriginalName:    name,
			MatchedExercise: exact,
			Confidence:      1.0,
			ExerciseID:      exact.ID,
		}
	}

	// 2. Fuzzy match via the similarity index.
	candidates, err := r.store.FuzzySearch(ctx, nameNormalized)
	if err != nil {
		r.log.Warn("fuzzy search failed", "name", name, "error", err)
	}
	if len(candidates) > 0 && candidates[0].Similarity >= FuzzyFloor {
		best := candidates[0]
		confidence := best.Similarity
		if confidence > FuzzyCeiling {
			confidence = FuzzyCeiling
		}
		ex := best.Exercise
		return models.ExerciseMatch{
			OriginalName:    name,
			MatchedExercise: &ex,
			Confidence:      confidence,
			ExerciseID:      ex.ID,
		}
	}

	// 3. No match: auto-create when enabled and owned, otherwise hand
	// back the normalized key for operator review.
	if opts.AutoCreate && opts.CoachID != "" {
		created, err := r.store.CreateAutoExercise(ctx, name, nameNormalized, opts.CoachID)
		if err != nil {
			r.log.Warn("auto-create failed", "name", name, "error", err)
		} else if created != nil {
			return models.ExerciseMatch{
				OriginalName:    name,
				MatchedExercise: created,
				Confidence:      1.0,
				IsNew:           true,
				ExerciseID:      created.ID,
			}
		}
	}

	return models.ExerciseMatch{
		OriginalName:  name,
		SuggestedName: nameNormalized,
	}
}

// MatchAll resolves a de-duplicated list of names sequentially. Output
// has 1:1 positional correspondence with the input; one name's failure
// never aborts the batch.
func (r *Resolver) MatchAll(ctx context.Context, names []string, opts Options) []models.ExerciseMatch {
	results := make([]models.ExerciseMatch, 0, len(names))
	for _, name := range names {
		results = append(results, r.Resolve(ctx, name, opts))
	}
	return results
}
