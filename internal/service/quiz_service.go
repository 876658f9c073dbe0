package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/jobs"
)

type quizRepository interface {
	FindQuiz(ctx context.Context, id string) (*models.Quiz, error)
	FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error)
	FindResult(ctx context.Context, attemptID string) (*models.QuizResult, error)
	ListGradableAttemptIDs(ctx context.Context, quizID string) ([]string, error)
	SaveGrading(ctx context.Context, attempt *models.QuizAttempt, result *models.QuizResult) error
}

// RegradeEnqueuer hands attempt ids to background workers.
type RegradeEnqueuer interface {
	Enqueue(job jobs.Job[string]) error
}

// QuizService grades quiz attempts and persists their results.
type QuizService struct {
	repo    quizRepository
	queue   RegradeEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
}

// NewQuizService constructs the service. A nil queue makes RegradeQuiz synchronous.
func NewQuizService(repo quizRepository, metrics *MetricsService, logger *zap.Logger) *QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuizService{repo: repo, metrics: metrics, logger: logger}
}

// UseQueue routes RegradeQuiz through background workers.
func (s *QuizService) UseQueue(queue RegradeEnqueuer) {
	s.queue = queue
}

// GradeAttempt scores a submitted attempt and stores the result. Grading an
// already graded attempt recomputes and overwrites the same result row.
func (s *QuizService) GradeAttempt(ctx context.Context, attemptID string) (*models.QuizResult, error) {
	if strings.TrimSpace(attemptID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attempt id is required")
	}

	attempt, err := s.repo.FindAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attempt not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	if attempt.Status == models.AttemptInProgress {
		return nil, appErrors.Clone(appErrors.ErrAttemptNotSubmitted, "attempt is still in progress")
	}

	quiz, err := s.repo.FindQuiz(ctx, attempt.QuizID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	result, err := CalculateAttemptScore(quiz, attempt)
	if err != nil {
		s.metrics.RecordGrading(nil)
		s.logger.Warn("attempt not gradable", zap.String("attempt_id", attemptID), zap.Error(err))
		return nil, err
	}

	if err := s.repo.SaveGrading(ctx, attempt, result); err != nil {
		s.metrics.RecordGrading(nil)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save grading")
	}
	s.metrics.RecordGrading(result)

	s.logger.Info("attempt graded",
		zap.String("attempt_id", attemptID),
		zap.String("quiz_id", quiz.ID),
		zap.Float64("percentage", result.Percentage),
		zap.String("grade", result.Grade),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// Result returns the stored result of an attempt.
func (s *QuizService) Result(ctx context.Context, attemptID string) (*models.QuizResult, error) {
	result, err := s.repo.FindResult(ctx, attemptID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz result not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz result")
	}
	return result, nil
}

// RegradeQuiz re-grades every submitted or graded attempt of a quiz.
func (s *QuizService) RegradeQuiz(ctx context.Context, quizID string) (*dto.RegradeResponse, error) {
	if _, err := s.repo.FindQuiz(ctx, quizID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	ids, err := s.repo.ListGradableAttemptIDs(ctx, quizID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attempts")
	}
	summary := &dto.RegradeResponse{QuizID: quizID, Attempts: len(ids)}

	if s.queue == nil {
		for _, id := range ids {
			if _, err := s.GradeAttempt(ctx, id); err != nil {
				return nil, err
			}
		}
		return summary, nil
	}

	for i, id := range ids {
		if err := s.queue.Enqueue(jobs.Job[string]{ID: quizID + ":" + id, Payload: id}); err != nil {
			s.metrics.RecordRegradeEnqueued(i)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue re-grade")
		}
	}
	s.metrics.RecordRegradeEnqueued(len(ids))
	summary.Queued = true
	s.logger.Info("quiz re-grade queued", zap.String("quiz_id", quizID), zap.Int("attempts", len(ids)))
	return summary, nil
}

// HandleRegradeJob is the queue handler for re-grade jobs. Invalid attempts are
// logged and dropped rather than retried.
func (s *QuizService) HandleRegradeJob(ctx context.Context, job jobs.Job[string]) error {
	_, err := s.GradeAttempt(ctx, job.Payload)
	if err == nil {
		return nil
	}
	if appErr := appErrors.FromError(err); appErr.Status < 500 {
		s.logger.Warn("dropping re-grade job", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	return err
}
