package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/models"
)

func TestQuizRepositoryFindQuiz(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, passing_score, created_at FROM quizzes WHERE id = $1")).
		WithArgs("quiz-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "passing_score", "created_at"}).
			AddRow("quiz-1", "Biology", 50.0, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM quiz_questions WHERE quiz_id = $1")).
		WithArgs("quiz-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "question_type", "marks", "match_mode", "accepted_answers", "keywords", "position"}).
			AddRow("q1", "quiz-1", "single_choice", 2.0, "", "{}", "{}", 1).
			AddRow("q2", "quiz-1", "free_text", 4.0, "keywords", "{}", "{mitochondria,powerhouse}", 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM quiz_options o JOIN quiz_questions q")).
		WithArgs("quiz-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "question_id", "label", "is_correct"}).
			AddRow("o1", "q1", "Cell", false).
			AddRow("o2", "q1", "Nucleus", true))

	quiz, err := repo.FindQuiz(context.Background(), "quiz-1")
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 2)
	assert.Len(t, quiz.Questions[0].Options, 2)
	assert.Empty(t, quiz.Questions[1].Options)
	assert.Equal(t, []string{"mitochondria", "powerhouse"}, []string(quiz.Questions[1].Keywords))
	assert.Equal(t, models.MatchKeywords, quiz.Questions[1].MatchMode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryFindAttemptNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery("FROM quiz_attempts WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindAttempt(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestQuizRepositoryFindAttempt(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	submitted := time.Now()
	mock.ExpectQuery("FROM quiz_attempts WHERE id = \\$1").
		WithArgs("att-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "quiz_id", "student_id", "status", "submitted_at", "graded_at"}).
			AddRow("att-1", "quiz-1", "stu-1", "submitted", submitted, nil))
	mock.ExpectQuery("FROM quiz_answers WHERE attempt_id = \\$1").
		WithArgs("att-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "attempt_id", "question_id", "selected_option_id", "selected_option_ids", "answer_text", "is_correct", "marks_obtained"}).
			AddRow("a1", "att-1", "q1", "o2", nil, nil, nil, nil))

	attempt, err := repo.FindAttempt(context.Background(), "att-1")
	require.NoError(t, err)
	assert.Equal(t, models.AttemptSubmitted, attempt.Status)
	require.Len(t, attempt.Answers, 1)
	assert.Equal(t, "o2", *attempt.Answers[0].SelectedOptionID)
	assert.Nil(t, attempt.Answers[0].IsCorrect)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositorySaveGrading(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	correct := true
	marks := 2.0
	attempt := &models.QuizAttempt{
		ID:      "att-1",
		Status:  models.AttemptGraded,
		Answers: []models.QuizAnswer{{ID: "a1", IsCorrect: &correct, MarksObtained: &marks}},
	}
	result := &models.QuizResult{AttemptID: "att-1", QuizID: "quiz-1", StudentID: "stu-1", TotalMarks: 2, MarksObtained: 2, Percentage: 100, Grade: "A", Status: models.ResultPass}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quiz_answers SET is_correct = $1, marks_obtained = $2 WHERE id = $3")).
		WithArgs(true, 2.0, "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO quiz_results")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing-id", created))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quiz_attempts SET status = $1, graded_at = $2 WHERE id = $3")).
		WithArgs("graded", sqlmock.AnyArg(), "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveGrading(context.Background(), attempt, result))
	assert.Equal(t, "existing-id", result.ID, "conflicting upsert keeps the stored row id")
	assert.Equal(t, created, result.CreatedAt)
	assert.NotNil(t, attempt.GradedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositorySaveGradingRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	attempt := &models.QuizAttempt{ID: "att-1", Answers: []models.QuizAnswer{{ID: "a1"}}}
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE quiz_answers").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.SaveGrading(context.Background(), attempt, &models.QuizResult{AttemptID: "att-1"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizRepositoryListGradableAttemptIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewQuizRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM quiz_attempts WHERE quiz_id = $1 AND status IN ($2, $3)")).
		WithArgs("quiz-1", "submitted", "graded").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("att-1").AddRow("att-2"))

	ids, err := repo.ListGradableAttemptIDs(context.Background(), "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"att-1", "att-2"}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}
