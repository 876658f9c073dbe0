package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

// ScoreRepository reads raw result rows for a class scope.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

type scoreRow struct {
	StudentID   string         `db:"student_id"`
	SubjectID   string         `db:"subject_id"`
	ComponentID sql.NullString `db:"component_id"`
	TotalScore  sql.NullString `db:"total_score"`
}

// ListScores returns every result row in scope. Scores are read as text so
// a corrupt value surfaces as ErrInvalidScore instead of a scan failure.
func (r *ScoreRepository) ListScores(ctx context.Context, scope models.ResultScope) ([]models.ScoreRecord, error) {
	clause, args := scopeClause(scope)
	query := fmt.Sprintf(`SELECT student_id, subject_id, component_id, total_score::text AS total_score
        FROM results WHERE %s ORDER BY subject_id, student_id, component_id NULLS FIRST`, clause)

	var rows []scoreRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}

	records := make([]models.ScoreRecord, 0, len(rows))
	for _, row := range rows {
		record := models.ScoreRecord{StudentID: row.StudentID, SubjectID: row.SubjectID}
		if row.ComponentID.Valid {
			component := row.ComponentID.String
			record.ComponentID = &component
		}
		if row.TotalScore.Valid {
			score, err := strconv.ParseFloat(strings.TrimSpace(row.TotalScore.String), 64)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInvalidScore.Code, appErrors.ErrInvalidScore.Status,
					fmt.Sprintf("invalid score %q for student %s in subject %s", row.TotalScore.String, row.StudentID, row.SubjectID))
			}
			record.TotalScore = &score
		}
		records = append(records, record)
	}
	return records, nil
}

// CountEnrolled returns the number of distinct students enrolled in scope.
func (r *ScoreRepository) CountEnrolled(ctx context.Context, scope models.ResultScope) (int, error) {
	clause, args := scopeClause(models.ResultScope{
		SchoolID:  scope.SchoolID,
		SessionID: scope.SessionID,
		ClassID:   scope.ClassID,
		ArmID:     scope.ArmID,
		SectionID: scope.SectionID,
	})
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT student_id) FROM student_enrollments WHERE %s`, clause)

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count enrolled students: %w", err)
	}
	return total, nil
}

// scopeClause renders the non-empty scope fields as positional conditions.
func scopeClause(scope models.ResultScope) (string, []interface{}) {
	fields := []struct {
		column string
		value  string
	}{
		{"school_id", scope.SchoolID},
		{"session_id", scope.SessionID},
		{"term_id", scope.TermID},
		{"class_id", scope.ClassID},
		{"arm_id", scope.ArmID},
		{"section_id", scope.SectionID},
	}

	var conditions []string
	var args []interface{}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		args = append(args, f.value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}
	if len(conditions) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conditions, " AND "), args
}
