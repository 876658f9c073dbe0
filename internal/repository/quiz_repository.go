package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-results-api/internal/models"
)

// QuizRepository persists quizzes, attempts and their graded results.
type QuizRepository struct {
	db *sqlx.DB
}

// NewQuizRepository constructs the repository.
func NewQuizRepository(db *sqlx.DB) *QuizRepository {
	return &QuizRepository{db: db}
}

// FindQuiz loads a quiz with its questions and options.
func (r *QuizRepository) FindQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	const quizQuery = `SELECT id, title, passing_score, created_at FROM quizzes WHERE id = $1`
	var quiz models.Quiz
	if err := r.db.GetContext(ctx, &quiz, quizQuery, id); err != nil {
		return nil, err
	}

	const questionQuery = `SELECT id, quiz_id, question_type, marks, COALESCE(match_mode, '') AS match_mode,
        accepted_answers, keywords, position
        FROM quiz_questions WHERE quiz_id = $1 ORDER BY position, id`
	if err := r.db.SelectContext(ctx, &quiz.Questions, questionQuery, id); err != nil {
		return nil, fmt.Errorf("list quiz questions: %w", err)
	}

	const optionQuery = `SELECT o.id, o.question_id, o.label, o.is_correct
        FROM quiz_options o JOIN quiz_questions q ON q.id = o.question_id
        WHERE q.quiz_id = $1 ORDER BY o.question_id, o.position`
	var options []models.QuizOption
	if err := r.db.SelectContext(ctx, &options, optionQuery, id); err != nil {
		return nil, fmt.Errorf("list quiz options: %w", err)
	}

	byQuestion := make(map[string][]models.QuizOption, len(quiz.Questions))
	for _, opt := range options {
		byQuestion[opt.QuestionID] = append(byQuestion[opt.QuestionID], opt)
	}
	for i := range quiz.Questions {
		quiz.Questions[i].Options = byQuestion[quiz.Questions[i].ID]
	}
	return &quiz, nil
}

// FindAttempt loads an attempt with its submitted answers.
func (r *QuizRepository) FindAttempt(ctx context.Context, id string) (*models.QuizAttempt, error) {
	const attemptQuery = `SELECT id, quiz_id, student_id, status, submitted_at, graded_at FROM quiz_attempts WHERE id = $1`
	var attempt models.QuizAttempt
	if err := r.db.GetContext(ctx, &attempt, attemptQuery, id); err != nil {
		return nil, err
	}

	const answerQuery = `SELECT id, attempt_id, question_id, selected_option_id, selected_option_ids, answer_text, is_correct, marks_obtained
        FROM quiz_answers WHERE attempt_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &attempt.Answers, answerQuery, id); err != nil {
		return nil, fmt.Errorf("list quiz answers: %w", err)
	}
	return &attempt, nil
}

// ListGradableAttemptIDs returns submitted or graded attempts of a quiz.
func (r *QuizRepository) ListGradableAttemptIDs(ctx context.Context, quizID string) ([]string, error) {
	const query = `SELECT id FROM quiz_attempts WHERE quiz_id = $1 AND status IN ($2, $3) ORDER BY id`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, quizID, models.AttemptSubmitted, models.AttemptGraded); err != nil {
		return nil, fmt.Errorf("list gradable attempts: %w", err)
	}
	return ids, nil
}

// FindResult returns the stored result of an attempt.
func (r *QuizRepository) FindResult(ctx context.Context, attemptID string) (*models.QuizResult, error) {
	const query = `SELECT id, attempt_id, quiz_id, student_id, total_questions, attempted_questions, correct_answers,
        total_marks, marks_obtained, percentage, grade, status, created_at, updated_at
        FROM quiz_results WHERE attempt_id = $1`
	var result models.QuizResult
	if err := r.db.GetContext(ctx, &result, query, attemptID); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveGrading writes answer outcomes, upserts the attempt's result and marks
// the attempt graded in one transaction. The unique attempt_id keeps a single
// result row per attempt; the stored id and created_at are read back into result.
func (r *QuizRepository) SaveGrading(ctx context.Context, attempt *models.QuizAttempt, result *models.QuizResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grading tx: %w", err)
	}

	const answerQuery = `UPDATE quiz_answers SET is_correct = $1, marks_obtained = $2 WHERE id = $3`
	for _, answer := range attempt.Answers {
		if _, err := tx.ExecContext(ctx, answerQuery, answer.IsCorrect, answer.MarksObtained, answer.ID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update quiz answer %s: %w", answer.ID, err)
		}
	}

	now := time.Now().UTC()
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.UpdatedAt = now
	const resultQuery = `INSERT INTO quiz_results (id, attempt_id, quiz_id, student_id, total_questions, attempted_questions,
        correct_answers, total_marks, marks_obtained, percentage, grade, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
        ON CONFLICT (attempt_id) DO UPDATE SET
            total_questions = EXCLUDED.total_questions,
            attempted_questions = EXCLUDED.attempted_questions,
            correct_answers = EXCLUDED.correct_answers,
            total_marks = EXCLUDED.total_marks,
            marks_obtained = EXCLUDED.marks_obtained,
            percentage = EXCLUDED.percentage,
            grade = EXCLUDED.grade,
            status = EXCLUDED.status,
            updated_at = EXCLUDED.updated_at
        RETURNING id, created_at`
	err = tx.QueryRowxContext(ctx, resultQuery,
		result.ID, result.AttemptID, result.QuizID, result.StudentID, result.TotalQuestions, result.AttemptedQuestions,
		result.CorrectAnswers, result.TotalMarks, result.MarksObtained, result.Percentage, result.Grade, result.Status, now,
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("upsert quiz result: %w", err)
	}

	const attemptQuery = `UPDATE quiz_attempts SET status = $1, graded_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, attemptQuery, models.AttemptGraded, now, attempt.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("mark attempt graded: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading: %w", err)
	}
	attempt.Status = models.AttemptGraded
	attempt.GradedAt = &now
	return nil
}
