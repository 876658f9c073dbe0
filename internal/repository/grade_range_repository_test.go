package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeRangeRepositoryListBySchool(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRangeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "school_id", "min_score", "max_score", "label", "description"}).
		AddRow("g-a", "sch-1", 70.0, 100.0, "A", "Excellent").
		AddRow("g-f", "sch-1", 0.0, 39.99, "F", "")
	mock.ExpectQuery(regexp.QuoteMeta("FROM grade_ranges WHERE school_id = $1 ORDER BY min_score DESC")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	ranges, err := repo.ListBySchool(context.Background(), "sch-1")
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, "A", ranges[0].Label)
	assert.Equal(t, 39.99, ranges[1].MaxScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRangeRepositoryListBySchoolError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRangeRepository(db)

	mock.ExpectQuery("FROM grade_ranges").WillReturnError(errors.New("boom"))

	_, err := repo.ListBySchool(context.Background(), "sch-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list grade ranges")
}
