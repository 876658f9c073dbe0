package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

// GradeRangeRepository reads configured grade windows.
type GradeRangeRepository struct {
	db *sqlx.DB
}

// NewGradeRangeRepository constructs the repository.
func NewGradeRangeRepository(db *sqlx.DB) *GradeRangeRepository {
	return &GradeRangeRepository{db: db}
}

// ListBySchool returns a school's grade ranges ordered by descending min score.
func (r *GradeRangeRepository) ListBySchool(ctx context.Context, schoolID string) ([]models.GradeRange, error) {
	const query = `SELECT id, school_id, min_score, max_score, label, COALESCE(description, '') AS description
        FROM grade_ranges WHERE school_id = $1 ORDER BY min_score DESC`
	var ranges []models.GradeRange
	if err := r.db.SelectContext(ctx, &ranges, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grade ranges: %w", err)
	}
	return ranges, nil
}
