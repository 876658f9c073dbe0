package service

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

func overallRow(student, subject string, score float64) models.ScoreRecord {
	return models.ScoreRecord{StudentID: student, SubjectID: subject, TotalScore: floatPtr(score)}
}

func componentRow(student, subject, component string, score float64) models.ScoreRecord {
	c := component
	return models.ScoreRecord{StudentID: student, SubjectID: subject, ComponentID: &c, TotalScore: floatPtr(score)}
}

func TestComputeSubjectStatisticsCompetitionRanking(t *testing.T) {
	rows := []models.ScoreRecord{
		overallRow("s1", "math", 90),
		overallRow("s2", "math", 90),
		overallRow("s3", "math", 80),
		overallRow("s4", "math", 70),
	}

	expected := map[string]int{"s1": 1, "s2": 1, "s3": 3, "s4": 4}
	for student, position := range expected {
		stats, err := ComputeSubjectStatistics(rows, student, SubjectOptions{TotalPossible: 100})
		require.NoError(t, err)
		require.Contains(t, stats, "math")
		require.NotNil(t, stats["math"].Position)
		assert.Equal(t, position, *stats["math"].Position, student)
	}

	stats, err := ComputeSubjectStatistics(rows, "s3", SubjectOptions{TotalPossible: 100})
	require.NoError(t, err)
	subject := stats["math"]
	assert.Equal(t, 82.5, *subject.Average)
	assert.Equal(t, 90.0, *subject.Highest)
	assert.Equal(t, 70.0, *subject.Lowest)
	assert.Equal(t, 80.0, *subject.StudentTotal)
	assert.Equal(t, 100.0, subject.TotalPossible)
	assert.Equal(t, 4, subject.RankedCount)
}

func TestComputeSubjectStatisticsPrefersOverallRow(t *testing.T) {
	rows := []models.ScoreRecord{
		overallRow("s1", "bio", 75),
		componentRow("s1", "bio", "ca1", 20),
		componentRow("s1", "bio", "ca2", 18),
		componentRow("s1", "bio", "exam", 36),
	}

	stats, err := ComputeSubjectStatistics(rows, "s1", SubjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 75.0, *stats["bio"].StudentTotal)
}

func TestComputeSubjectStatisticsSumsComponents(t *testing.T) {
	rows := []models.ScoreRecord{
		componentRow("s1", "chem", "ca1", 20),
		componentRow("s1", "chem", "ca2", 18),
		componentRow("s1", "chem", "exam", 55),
		{StudentID: "s1", SubjectID: "chem", ComponentID: strPtr("ca3")},
	}

	stats, err := ComputeSubjectStatistics(rows, "s1", SubjectOptions{})
	require.NoError(t, err)
	assert.Equal(t, 93.0, *stats["chem"].StudentTotal)
}

func TestComputeSubjectStatisticsSparseData(t *testing.T) {
	rows := []models.ScoreRecord{
		overallRow("s1", "math", 60),
		overallRow("s2", "math", 40),
		{StudentID: "s3", SubjectID: "math"},
		overallRow("s2", "art", 50),
	}

	stats, err := ComputeSubjectStatistics(rows, "s3", SubjectOptions{TotalPossible: 100})
	require.NoError(t, err)
	require.Len(t, stats, 1, "subjects without a row for the student are omitted")

	subject := stats["math"]
	assert.Nil(t, subject.StudentTotal)
	assert.Nil(t, subject.Position)
	assert.Equal(t, 2, subject.RankedCount, "students without a total stay out of the pool")
	assert.Equal(t, 50.0, *subject.Average)

	none, err := ComputeSubjectStatistics(rows, "ghost", SubjectOptions{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestComputeSubjectStatisticsRoundsSummaries(t *testing.T) {
	rows := []models.ScoreRecord{
		overallRow("s1", "eng", 70.005),
		overallRow("s2", "eng", 60),
		overallRow("s3", "eng", 55.333),
	}

	stats, err := ComputeSubjectStatistics(rows, "s1", SubjectOptions{})
	require.NoError(t, err)
	eng := stats["eng"]
	assert.Equal(t, 61.78, *eng.Average)
	assert.Equal(t, 55.33, *eng.Lowest)
	assert.Equal(t, 70.005, *eng.StudentTotal, "raw totals are not rounded")
}

func TestComputeSubjectStatisticsRejectsInvalidScore(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1)} {
		rows := []models.ScoreRecord{overallRow("s1", "math", bad)}
		_, err := ComputeSubjectStatistics(rows, "s1", SubjectOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, appErrors.ErrInvalidScore))
	}
}

func TestComputeOverallStatistics(t *testing.T) {
	rows := []models.ScoreRecord{
		overallRow("s1", "math", 90),
		overallRow("s1", "eng", 70),
		overallRow("s2", "math", 70),
		overallRow("s2", "eng", 50),
		overallRow("s3", "math", 80),
	}
	cohort, err := NewCohort(rows)
	require.NoError(t, err)

	subjects := cohort.SubjectStatistics("s2", 100)
	overall := ComputeOverallStatistics(subjects, cohort.OverallTotals(), "s2", 0)

	assert.Equal(t, 120.0, *overall.TotalObtained)
	assert.Equal(t, 200.0, overall.TotalPossible)
	assert.Equal(t, 60.0, *overall.Average)
	assert.Equal(t, 2, overall.SubjectCount)
	// math average 80, eng average 60
	assert.Equal(t, 70.0, *overall.ClassAverage)
	// totals: s1=160, s2=120, s3=80
	assert.Equal(t, 2, *overall.Position)
	assert.Equal(t, 3, overall.ClassSize)
}

func TestComputeOverallStatisticsAverageOfAverages(t *testing.T) {
	subjects := map[string]models.SubjectStatistics{
		"math": {SubjectID: "math", Average: floatPtr(80), StudentTotal: floatPtr(100), TotalPossible: 100},
		"eng":  {SubjectID: "eng", Average: floatPtr(60), StudentTotal: floatPtr(40), TotalPossible: 100},
	}
	overall := ComputeOverallStatistics(subjects, map[string]float64{"s1": 140}, "s1", 0)
	assert.Equal(t, 70.0, *overall.ClassAverage)
}

func TestComputeOverallStatisticsZeroSubjects(t *testing.T) {
	overall := ComputeOverallStatistics(map[string]models.SubjectStatistics{}, map[string]float64{}, "s1", 12)
	assert.Nil(t, overall.Average)
	assert.Nil(t, overall.TotalObtained)
	assert.Nil(t, overall.Position)
	assert.Nil(t, overall.ClassAverage)
	assert.Equal(t, 12, overall.ClassSize)
}

func TestComputeOverallStatisticsClassSizeNeverShrinks(t *testing.T) {
	totals := make(map[string]float64)
	for i := 0; i < 25; i++ {
		totals[string(rune('a'+i))] = float64(i)
	}

	assert.Equal(t, 30, ComputeOverallStatistics(nil, totals, "a", 30).ClassSize)
	assert.Equal(t, 25, ComputeOverallStatistics(nil, totals, "a", 10).ClassSize)
}

func TestResolveGrade(t *testing.T) {
	ranges := []models.GradeRange{
		{Label: "C", MinScore: 50, MaxScore: 64.99},
		{Label: "A", MinScore: 75, MaxScore: 100},
		{Label: "B", MinScore: 65, MaxScore: 74.99},
	}

	tests := []struct {
		score float64
		label string
	}{
		{score: 100, label: "A"},
		{score: 75, label: "A"},
		{score: 74.99, label: "B"},
		{score: 50, label: "C"},
	}
	for _, tc := range tests {
		grade := ResolveGrade(ranges, tc.score)
		require.NotNil(t, grade, tc.score)
		assert.Equal(t, tc.label, grade.Label)
	}

	assert.Nil(t, ResolveGrade(ranges, 49.5), "gaps resolve to no grade")
	assert.Nil(t, ResolveGrade(nil, 80))
	assert.Equal(t, "C", ranges[0].Label, "input order is untouched")
}

func strPtr(v string) *string { return &v }

func TestDecimalComponentTotalsTieRegardlessOfOrder(t *testing.T) {
	rows := []models.ScoreRecord{
		componentRow("a", "chem", "ca1", 10.1),
		componentRow("a", "chem", "ca2", 20.2),
		componentRow("a", "chem", "exam", 30.3),
		componentRow("b", "chem", "exam", 30.3),
		componentRow("b", "chem", "ca2", 20.2),
		componentRow("b", "chem", "ca1", 10.1),
		overallRow("a", "phy", 0.1),
		overallRow("b", "phy", 0.1),
	}

	cohort, err := NewCohort(rows)
	require.NoError(t, err)

	for _, student := range []string{"a", "b"} {
		stats := cohort.SubjectStatistics(student, 100)
		chem := stats["chem"]
		require.NotNil(t, chem.Position)
		assert.Equal(t, 1, *chem.Position, student)
		assert.Equal(t, 60.6, *chem.StudentTotal, student)

		overall := ComputeOverallStatistics(stats, cohort.OverallTotals(), student, 0)
		require.NotNil(t, overall.Position)
		assert.Equal(t, 1, *overall.Position, student)
		assert.Equal(t, 60.7, *overall.TotalObtained, student)
	}
	assert.Equal(t, cohort.OverallTotals()["a"], cohort.OverallTotals()["b"])
}
