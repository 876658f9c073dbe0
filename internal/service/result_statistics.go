package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

// SubjectTotals maps subject id to student id to the student's derived subject total.
type SubjectTotals map[string]map[string]float64

type studentSubject struct {
	studentID string
	subjectID string
}

// Cohort holds the derived totals of one class scope. It is read-only once built.
type Cohort struct {
	totals        SubjectTotals
	studentTotals map[string]float64
	subjectsOf    map[string]map[string]struct{}
	summaries     map[string]subjectSummary
}

type subjectSummary struct {
	scores  []float64
	average float64
	highest float64
	lowest  float64
}

// DeriveSubjectTotals reduces raw rows to one total per student and subject.
// The overall (nil component) row wins; otherwise component scores are summed.
// Rows without a score are skipped, so a student may have no total for a subject.
func DeriveSubjectTotals(rows []models.ScoreRecord) (SubjectTotals, error) {
	overall := make(map[studentSubject]float64)
	components := make(map[studentSubject]decimal.Decimal)

	for _, row := range rows {
		if row.TotalScore == nil {
			continue
		}
		score := *row.TotalScore
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore, fmt.Sprintf("invalid score for student %s in subject %s", row.StudentID, row.SubjectID))
		}
		key := studentSubject{studentID: row.StudentID, subjectID: row.SubjectID}
		if row.ComponentID == nil {
			overall[key] = score
			continue
		}
		components[key] = components[key].Add(decimal.NewFromFloat(score))
	}

	totals := make(SubjectTotals)
	put := func(key studentSubject, value float64) {
		bySubject, ok := totals[key.subjectID]
		if !ok {
			bySubject = make(map[string]float64)
			totals[key.subjectID] = bySubject
		}
		bySubject[key.studentID] = value
	}
	for key, value := range components {
		if _, ok := overall[key]; !ok {
			put(key, value.InexactFloat64())
		}
	}
	for key, value := range overall {
		put(key, value)
	}
	return totals, nil
}

// StudentTotals sums every student's subject totals.
func (t SubjectTotals) StudentTotals() map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, bySubject := range t {
		for studentID, total := range bySubject {
			sums[studentID] = sums[studentID].Add(decimal.NewFromFloat(total))
		}
	}
	out := make(map[string]float64, len(sums))
	for studentID, sum := range sums {
		out[studentID] = sum.InexactFloat64()
	}
	return out
}

// NewCohort derives totals and per-subject summaries for pre-filtered rows.
func NewCohort(rows []models.ScoreRecord) (*Cohort, error) {
	totals, err := DeriveSubjectTotals(rows)
	if err != nil {
		return nil, err
	}

	subjectsOf := make(map[string]map[string]struct{})
	for _, row := range rows {
		set, ok := subjectsOf[row.StudentID]
		if !ok {
			set = make(map[string]struct{})
			subjectsOf[row.StudentID] = set
		}
		set[row.SubjectID] = struct{}{}
	}

	summaries := make(map[string]subjectSummary, len(totals))
	for subjectID, bySubject := range totals {
		scores := make([]float64, 0, len(bySubject))
		for _, total := range bySubject {
			scores = append(scores, total)
		}
		sort.Float64s(scores)
		summaries[subjectID] = subjectSummary{
			scores:  scores,
			average: roundTwo(sumDecimal(scores).InexactFloat64() / float64(len(scores))),
			highest: roundTwo(scores[len(scores)-1]),
			lowest:  roundTwo(scores[0]),
		}
	}

	return &Cohort{
		totals:        totals,
		studentTotals: totals.StudentTotals(),
		subjectsOf:    subjectsOf,
		summaries:     summaries,
	}, nil
}

// Subjects returns every subject with at least one derived total, sorted.
func (c *Cohort) Subjects() []string {
	ids := make([]string, 0, len(c.totals))
	for id := range c.totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RankedStudents returns the students holding at least one subject total, sorted by id.
func (c *Cohort) RankedStudents() []string {
	ids := make([]string, 0, len(c.studentTotals))
	for id := range c.studentTotals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// OverallTotals returns a copy of the summed totals per ranked student.
func (c *Cohort) OverallTotals() map[string]float64 {
	out := make(map[string]float64, len(c.studentTotals))
	for id, total := range c.studentTotals {
		out[id] = total
	}
	return out
}

// TotalsFor returns the student's derived total per subject.
func (c *Cohort) TotalsFor(studentID string) map[string]float64 {
	out := make(map[string]float64)
	for subjectID, bySubject := range c.totals {
		if total, ok := bySubject[studentID]; ok {
			out[subjectID] = total
		}
	}
	return out
}

// SubjectStatistics computes statistics for every subject the student has rows in.
func (c *Cohort) SubjectStatistics(studentID string, totalPossible float64) map[string]models.SubjectStatistics {
	stats := make(map[string]models.SubjectStatistics)
	for subjectID := range c.subjectsOf[studentID] {
		stat := models.SubjectStatistics{SubjectID: subjectID, TotalPossible: totalPossible}

		if summary, ok := c.summaries[subjectID]; ok {
			stat.Average = floatPtr(summary.average)
			stat.Highest = floatPtr(summary.highest)
			stat.Lowest = floatPtr(summary.lowest)
			stat.RankedCount = len(summary.scores)

			if total, ok := c.totals[subjectID][studentID]; ok {
				stat.StudentTotal = floatPtr(total)
				stat.Position = intPtr(competitionRank(summary.scores, total))
			}
		}
		stats[subjectID] = stat
	}
	return stats
}

// SubjectOptions carries caller-supplied values for subject statistics.
type SubjectOptions struct {
	TotalPossible float64
}

// ComputeSubjectStatistics ranks studentID within each subject of the cohort
// described by rows. Subjects the student has no row for are omitted.
func ComputeSubjectStatistics(rows []models.ScoreRecord, studentID string, opts SubjectOptions) (map[string]models.SubjectStatistics, error) {
	cohort, err := NewCohort(rows)
	if err != nil {
		return nil, err
	}
	return cohort.SubjectStatistics(studentID, opts.TotalPossible), nil
}

// ComputeOverallStatistics aggregates subject statistics for studentID.
// class_average is the mean of the subject averages. class_size never drops
// below fallbackClassSize.
func ComputeOverallStatistics(subjectStats map[string]models.SubjectStatistics, overallTotalsByStudent map[string]float64, studentID string, fallbackClassSize int) models.OverallStatistics {
	var (
		totals       []float64
		possible     []float64
		averages     []float64
		subjectCount int
	)
	for _, stat := range subjectStats {
		if stat.Average != nil {
			averages = append(averages, *stat.Average)
		}
		if stat.StudentTotal == nil {
			continue
		}
		totals = append(totals, *stat.StudentTotal)
		possible = append(possible, stat.TotalPossible)
		subjectCount++
	}
	total := sumDecimal(totals).InexactFloat64()
	totalPossible := sumDecimal(possible).InexactFloat64()
	averageCount := len(averages)

	overall := models.OverallStatistics{
		TotalPossible: totalPossible,
		SubjectCount:  subjectCount,
		ClassSize:     fallbackClassSize,
	}
	if len(overallTotalsByStudent) > overall.ClassSize {
		overall.ClassSize = len(overallTotalsByStudent)
	}
	if averageCount > 0 {
		overall.ClassAverage = floatPtr(roundTwo(sumDecimal(averages).InexactFloat64() / float64(averageCount)))
	}
	if subjectCount > 0 {
		overall.TotalObtained = floatPtr(total)
		overall.Average = floatPtr(roundTwo(total / float64(maxInt(1, subjectCount))))
	}

	if studentTotal, ok := overallTotalsByStudent[studentID]; ok {
		scores := make([]float64, 0, len(overallTotalsByStudent))
		for _, value := range overallTotalsByStudent {
			scores = append(scores, value)
		}
		overall.Position = intPtr(competitionRank(scores, studentTotal))
	}

	return overall
}

// ResolveGrade returns the first range, by descending min score, containing score.
func ResolveGrade(ranges []models.GradeRange, score float64) *models.GradeRange {
	if len(ranges) == 0 {
		return nil
	}
	ordered := make([]models.GradeRange, len(ranges))
	copy(ordered, ranges)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].MinScore > ordered[j].MinScore })

	for i := range ordered {
		if ordered[i].MinScore <= score && score <= ordered[i].MaxScore {
			match := ordered[i]
			return &match
		}
	}
	return nil
}

// competitionRank counts strictly greater scores and adds one.
func competitionRank(scores []float64, target float64) int {
	greater := 0
	for _, s := range scores {
		if s > target {
			greater++
		}
	}
	return greater + 1
}

// sumDecimal adds scores in base 10 so equal decimal totals compare equal
// whatever order their parts arrive in.
func sumDecimal(values []float64) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	return sum
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
