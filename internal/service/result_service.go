package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/export"
)

const resultCacheNamespace = "results"

type scoreReader interface {
	ListScores(ctx context.Context, scope models.ResultScope) ([]models.ScoreRecord, error)
	CountEnrolled(ctx context.Context, scope models.ResultScope) (int, error)
}

type gradeRangeReader interface {
	ListBySchool(ctx context.Context, schoolID string) ([]models.GradeRange, error)
}

// BroadsheetExporter renders a tabular dataset into a downloadable file.
type BroadsheetExporter interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ResultServiceConfig tunes report computation.
type ResultServiceConfig struct {
	SubjectMaxScore float64
	CacheTTL        time.Duration
}

// ResultService loads cohort rows and runs the statistics engine over them.
type ResultService struct {
	scores    scoreReader
	grades    gradeRangeReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ResultServiceConfig
	group     singleflight.Group
}

// NewResultService constructs the service.
func NewResultService(scores scoreReader, grades gradeRangeReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ResultServiceConfig) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SubjectMaxScore <= 0 {
		cfg.SubjectMaxScore = 100
	}
	return &ResultService{
		scores:    scores,
		grades:    grades,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// StudentReport returns subject and overall statistics for studentID. The bool
// reports whether the payload came from cache.
func (s *ResultService) StudentReport(ctx context.Context, scope models.ResultScope, studentID string) (*models.StudentResultReport, bool, error) {
	if err := s.validateScope(scope); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(studentID) == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}

	key := reportCacheKey(scope, "report", studentID)
	var cached models.StudentResultReport
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		report, err := s.buildStudentReport(ctx, scope, studentID)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, key, report, s.cfg.CacheTTL)
		return report, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*models.StudentResultReport), false, nil
}

// ClassBroadsheet returns overall statistics for every ranked student in scope,
// ordered by position then student id.
func (s *ResultService) ClassBroadsheet(ctx context.Context, scope models.ResultScope) (*models.Broadsheet, bool, error) {
	if err := s.validateScope(scope); err != nil {
		return nil, false, err
	}

	key := reportCacheKey(scope, "broadsheet")
	var cached models.Broadsheet
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	value, err, _ := s.group.Do(key, func() (interface{}, error) {
		sheet, err := s.buildBroadsheet(ctx, scope)
		if err != nil {
			return nil, err
		}
		_ = s.cache.Set(ctx, key, sheet, s.cfg.CacheTTL)
		return sheet, nil
	})
	if err != nil {
		return nil, false, err
	}
	return value.(*models.Broadsheet), false, nil
}

// ExportBroadsheet renders the broadsheet with exporter and returns the payload and a file name.
func (s *ResultService) ExportBroadsheet(ctx context.Context, scope models.ResultScope, exporter BroadsheetExporter) ([]byte, string, error) {
	sheet, _, err := s.ClassBroadsheet(ctx, scope)
	if err != nil {
		return nil, "", err
	}

	columns := []export.Column{{Key: "student_id", Title: "Student"}}
	for _, subjectID := range sheet.Subjects {
		columns = append(columns, export.Column{Key: "subject:" + subjectID, Title: subjectID, Numeric: true})
	}
	columns = append(columns,
		export.Column{Key: "total", Title: "Total", Numeric: true},
		export.Column{Key: "average", Title: "Average", Numeric: true},
		export.Column{Key: "position", Title: "Position", Numeric: true},
		export.Column{Key: "grade", Title: "Grade"},
	)

	rows := make([]map[string]string, 0, len(sheet.Rows))
	for _, line := range sheet.Rows {
		row := map[string]string{
			"student_id": line.StudentID,
			"total":      export.FormatNumber(line.Overall.TotalObtained),
			"average":    export.FormatNumber(line.Overall.Average),
			"position":   export.FormatInt(line.Overall.Position),
		}
		for subjectID, total := range line.SubjectTotals {
			v := total
			row["subject:"+subjectID] = export.FormatNumber(&v)
		}
		if line.Grade != nil {
			row["grade"] = line.Grade.Label
		}
		rows = append(rows, row)
	}

	payload, err := exporter.Render(export.Dataset{Columns: columns, Rows: rows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render broadsheet")
	}
	filename := fmt.Sprintf("broadsheet_%s_%s_%s.%s", sanitizeFilePart(scope.ClassID), sanitizeFilePart(scope.SessionID), sanitizeFilePart(scope.TermID), exporter.Extension())
	return payload, filename, nil
}

// InvalidateScope drops every cached report and broadsheet of scope. An empty
// arm or section matches every arm or section of the class.
func (s *ResultService) InvalidateScope(ctx context.Context, scope models.ResultScope) error {
	if err := s.validateScope(scope); err != nil {
		return err
	}
	pattern := invalidationPattern(scope)
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate result cache")
	}
	s.logger.Info("result cache invalidated", zap.String("pattern", pattern))
	return nil
}

func (s *ResultService) validateScope(scope models.ResultScope) error {
	if err := s.validator.Struct(scope); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result scope")
	}
	return nil
}

type cohortInputs struct {
	cohort   *Cohort
	ranges   []models.GradeRange
	enrolled int
}

func (s *ResultService) loadCohort(ctx context.Context, scope models.ResultScope) (*cohortInputs, error) {
	start := time.Now()
	rows, err := s.scores.ListScores(ctx, scope)
	if err != nil {
		if errors.Is(err, appErrors.ErrInvalidScore) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	s.metrics.ObserveDBQuery("results_scores", time.Since(start))

	ranges, err := s.grades.ListBySchool(ctx, scope.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade ranges")
	}

	enrolled, err := s.scores.CountEnrolled(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrolled students")
	}

	cohort, err := NewCohort(rows)
	if err != nil {
		return nil, err
	}
	return &cohortInputs{cohort: cohort, ranges: ranges, enrolled: enrolled}, nil
}

func (s *ResultService) buildStudentReport(ctx context.Context, scope models.ResultScope, studentID string) (*models.StudentResultReport, error) {
	inputs, err := s.loadCohort(ctx, scope)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats := inputs.cohort.SubjectStatistics(studentID, s.cfg.SubjectMaxScore)
	overall := ComputeOverallStatistics(stats, inputs.cohort.OverallTotals(), studentID, inputs.enrolled)

	report := &models.StudentResultReport{
		StudentID: studentID,
		Scope:     scope,
		Subjects:  make([]models.SubjectResult, 0, len(stats)),
		Overall:   overall,
	}
	for _, stat := range stats {
		entry := models.SubjectResult{SubjectStatistics: stat}
		if stat.StudentTotal != nil {
			entry.Grade = ResolveGrade(inputs.ranges, *stat.StudentTotal)
		}
		report.Subjects = append(report.Subjects, entry)
	}
	sort.Slice(report.Subjects, func(i, j int) bool { return report.Subjects[i].SubjectID < report.Subjects[j].SubjectID })
	if overall.Average != nil {
		report.Grade = ResolveGrade(inputs.ranges, *overall.Average)
	}
	s.metrics.ObserveStatistics("student_report", time.Since(start))

	s.logger.Debug("student report computed",
		zap.String("student_id", studentID),
		zap.String("class_id", scope.ClassID),
		zap.Int("subjects", len(report.Subjects)),
	)
	return report, nil
}

func (s *ResultService) buildBroadsheet(ctx context.Context, scope models.ResultScope) (*models.Broadsheet, error) {
	inputs, err := s.loadCohort(ctx, scope)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cohort := inputs.cohort
	totals := cohort.OverallTotals()
	sheet := &models.Broadsheet{Scope: scope, Subjects: cohort.Subjects()}
	for _, studentID := range cohort.RankedStudents() {
		stats := cohort.SubjectStatistics(studentID, s.cfg.SubjectMaxScore)
		overall := ComputeOverallStatistics(stats, totals, studentID, inputs.enrolled)
		row := models.BroadsheetRow{
			StudentID:     studentID,
			SubjectTotals: cohort.TotalsFor(studentID),
			Overall:       overall,
		}
		if overall.Average != nil {
			row.Grade = ResolveGrade(inputs.ranges, *overall.Average)
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	sort.SliceStable(sheet.Rows, func(i, j int) bool {
		pi, pj := sheet.Rows[i].Overall.Position, sheet.Rows[j].Overall.Position
		if pi != nil && pj != nil && *pi != *pj {
			return *pi < *pj
		}
		return sheet.Rows[i].StudentID < sheet.Rows[j].StudentID
	})
	s.metrics.ObserveStatistics("broadsheet", time.Since(start))
	return sheet, nil
}

func reportCacheKey(scope models.ResultScope, parts ...string) string {
	keyParts := append([]string{scope.SchoolID, scope.SessionID, scope.TermID, scope.ClassID, scope.ArmID, scope.SectionID}, parts...)
	return cacheKey(resultCacheNamespace, keyParts...)
}

func invalidationPattern(scope models.ResultScope) string {
	wide := scope
	if wide.ArmID == "" {
		wide.ArmID = "*"
	}
	if wide.SectionID == "" {
		wide.SectionID = "*"
	}
	return reportCacheKey(wide, "*")
}

func sanitizeFilePart(raw string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, raw)
}
