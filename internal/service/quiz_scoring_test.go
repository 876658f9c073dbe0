package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

func sampleQuiz() *models.Quiz {
	return &models.Quiz{
		ID:           "quiz-1",
		PassingScore: 50,
		Questions: []models.QuizQuestion{
			{
				ID: "q1", Type: models.QuestionSingleChoice, Marks: 2,
				Options: []models.QuizOption{{ID: "q1a"}, {ID: "q1b", IsCorrect: true}},
			},
			{
				ID: "q2", Type: models.QuestionTrueFalse, Marks: 1,
				Options: []models.QuizOption{{ID: "true", IsCorrect: true}, {ID: "false"}},
			},
			{
				ID: "q3", Type: models.QuestionMultiSelect, Marks: 3,
				Options: []models.QuizOption{{ID: "A", IsCorrect: true}, {ID: "B", IsCorrect: true}, {ID: "C", IsCorrect: true}, {ID: "D"}},
			},
			{
				ID: "q4", Type: models.QuestionFreeText, Marks: 4, MatchMode: models.MatchKeywords,
				Keywords: []string{"mitochondria", "powerhouse"},
			},
		},
	}
}

func TestKindOf(t *testing.T) {
	quiz := sampleQuiz()

	kind, err := KindOf(quiz.Questions[0])
	require.NoError(t, err)
	assert.Equal(t, SingleChoice{CorrectOptionID: "q1b"}, kind)

	kind, err = KindOf(quiz.Questions[2])
	require.NoError(t, err)
	assert.Equal(t, MultiSelect{CorrectOptionIDs: []string{"A", "B", "C"}}, kind)

	kind, err = KindOf(models.QuizQuestion{ID: "q", Type: models.QuestionFreeText})
	require.NoError(t, err)
	assert.Equal(t, models.MatchExact, kind.(FreeText).Mode)

	_, err = KindOf(models.QuizQuestion{ID: "q", Type: "essay"})
	assert.True(t, errors.Is(err, appErrors.ErrUnknownQuestionType))

	_, err = KindOf(models.QuizQuestion{ID: "q", Type: models.QuestionFreeText, MatchMode: "fuzzy"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestEvaluateAnswerChoice(t *testing.T) {
	assert.True(t, EvaluateAnswer(SingleChoice{CorrectOptionID: "b"}, models.QuizAnswer{SelectedOptionID: strPtr("b")}))
	assert.False(t, EvaluateAnswer(SingleChoice{CorrectOptionID: "b"}, models.QuizAnswer{SelectedOptionID: strPtr("a")}))
	assert.False(t, EvaluateAnswer(SingleChoice{CorrectOptionID: "b"}, models.QuizAnswer{}))
	assert.False(t, EvaluateAnswer(TrueFalse{}, models.QuizAnswer{SelectedOptionID: strPtr("")}), "no designated option is never correct")
	assert.True(t, EvaluateAnswer(TrueFalse{CorrectOptionID: "true"}, models.QuizAnswer{SelectedOptionID: strPtr("true")}))
}

func TestEvaluateAnswerMultiSelect(t *testing.T) {
	kind := MultiSelect{CorrectOptionIDs: []string{"A", "B", "C"}}

	tests := []struct {
		name   string
		answer models.QuizAnswer
		want   bool
	}{
		{name: "subset", answer: models.QuizAnswer{SelectedOptionIDs: strPtr(`["A","B"]`)}, want: false},
		{name: "exact set", answer: models.QuizAnswer{SelectedOptionIDs: strPtr(`["A","B","C"]`)}, want: true},
		{name: "order independent", answer: models.QuizAnswer{SelectedOptionIDs: strPtr(`["C","A","B"]`)}, want: true},
		{name: "superset", answer: models.QuizAnswer{SelectedOptionIDs: strPtr(`["A","B","C","D"]`)}, want: false},
		{name: "malformed list falls back to single", answer: models.QuizAnswer{SelectedOptionIDs: strPtr(`A,B`), SelectedOptionID: strPtr("A")}, want: false},
		{name: "nothing selected", answer: models.QuizAnswer{}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateAnswer(kind, tc.answer))
		})
	}

	single := MultiSelect{CorrectOptionIDs: []string{"A"}}
	assert.True(t, EvaluateAnswer(single, models.QuizAnswer{SelectedOptionIDs: strPtr("not json"), SelectedOptionID: strPtr("A")}))
	assert.False(t, EvaluateAnswer(MultiSelect{}, models.QuizAnswer{SelectedOptionIDs: strPtr(`[]`)}), "no correct options is unscorable")
}

func TestEvaluateAnswerFreeText(t *testing.T) {
	tests := []struct {
		name   string
		kind   FreeText
		answer string
		want   bool
	}{
		{
			name:   "keywords all present",
			kind:   FreeText{Mode: models.MatchKeywords, Keywords: []string{"mitochondria", "powerhouse"}},
			answer: "The mitochondria is the powerhouse of the cell",
			want:   true,
		},
		{
			name:   "keyword missing",
			kind:   FreeText{Mode: models.MatchKeywords, Keywords: []string{"mitochondria", "powerhouse"}},
			answer: "the mitochondria is part of the cell",
			want:   false,
		},
		{
			name:   "exact ignores case and punctuation",
			kind:   FreeText{Mode: models.MatchExact, AcceptedAnswers: []string{"Abuja"}},
			answer: "  abuja!! ",
			want:   true,
		},
		{
			name:   "exact rejects extra words",
			kind:   FreeText{Mode: models.MatchExact, AcceptedAnswers: []string{"Abuja"}},
			answer: "abuja city",
			want:   false,
		},
		{
			name:   "contains phrase",
			kind:   FreeText{Mode: models.MatchContains, AcceptedAnswers: []string{"photo synthesis", "photosynthesis"}},
			answer: "It happens through Photosynthesis.",
			want:   true,
		},
		{
			name:   "keywords mode without keywords uses accepted answers",
			kind:   FreeText{Mode: models.MatchKeywords, AcceptedAnswers: []string{"H2O"}},
			answer: "h2o",
			want:   true,
		},
		{
			name:   "exact mode without accepted answers uses keywords",
			kind:   FreeText{Mode: models.MatchExact, Keywords: []string{"newton"}},
			answer: "Isaac Newton",
			want:   true,
		},
		{
			name:   "unscorable",
			kind:   FreeText{Mode: models.MatchContains, Keywords: []string{" ", "?"}},
			answer: "anything",
			want:   false,
		},
		{
			name:   "empty answer",
			kind:   FreeText{Mode: models.MatchExact, AcceptedAnswers: []string{""}},
			answer: "!!!",
			want:   false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EvaluateAnswer(tc.kind, models.QuizAnswer{AnswerText: strPtr(tc.answer)}))
		})
	}

	assert.False(t, EvaluateAnswer(FreeText{Mode: models.MatchExact, AcceptedAnswers: []string{"x"}}, models.QuizAnswer{}))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "dont stop me_now 42", normalizeText("  Don't   STOP, me_now... 42\t"))
}

func TestCalculateAttemptScore(t *testing.T) {
	quiz := sampleQuiz()
	attempt := &models.QuizAttempt{
		ID:        "att-1",
		QuizID:    "quiz-1",
		StudentID: "stu-1",
		Status:    models.AttemptSubmitted,
		Answers: []models.QuizAnswer{
			{ID: "a1", QuestionID: "q1", SelectedOptionID: strPtr("q1b")},
			{ID: "a2", QuestionID: "q2", SelectedOptionID: strPtr("false")},
			{ID: "a4", QuestionID: "q4", AnswerText: strPtr("the mitochondria is the powerhouse of the cell")},
		},
	}

	result, err := CalculateAttemptScore(quiz, attempt)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 3, result.AttemptedQuestions)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 7.0, result.TotalMarks)
	assert.Equal(t, 6.0, result.MarksObtained)
	assert.Equal(t, 85.71, result.Percentage)
	assert.Equal(t, "B", result.Grade)
	assert.Equal(t, models.ResultPass, result.Status)
	assert.Equal(t, "att-1", result.AttemptID)
	assert.Equal(t, "stu-1", result.StudentID)
	assert.Equal(t, models.AttemptGraded, attempt.Status)

	require.NotNil(t, attempt.Answers[1].IsCorrect)
	assert.False(t, *attempt.Answers[1].IsCorrect)
	assert.Equal(t, 0.0, *attempt.Answers[1].MarksObtained)
	assert.Equal(t, 4.0, *attempt.Answers[2].MarksObtained)

	again, err := CalculateAttemptScore(quiz, attempt)
	require.NoError(t, err)
	assert.Equal(t, result.Percentage, again.Percentage)
	assert.Equal(t, models.AttemptGraded, attempt.Status)
}

func TestCalculateAttemptScoreNoAnswers(t *testing.T) {
	attempt := &models.QuizAttempt{ID: "att", Status: models.AttemptSubmitted}
	result, err := CalculateAttemptScore(sampleQuiz(), attempt)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Percentage)
	assert.Equal(t, "F", result.Grade)
	assert.Equal(t, models.ResultFail, result.Status)
}

func TestCalculateAttemptScoreInvalidInput(t *testing.T) {
	_, err := CalculateAttemptScore(sampleQuiz(), &models.QuizAttempt{ID: "att", Status: models.AttemptInProgress})
	assert.True(t, errors.Is(err, appErrors.ErrAttemptNotSubmitted))

	_, err = CalculateAttemptScore(sampleQuiz(), &models.QuizAttempt{
		ID:      "att",
		Status:  models.AttemptSubmitted,
		Answers: []models.QuizAnswer{{ID: "x", QuestionID: "missing"}},
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = CalculateAttemptScore(sampleQuiz(), &models.QuizAttempt{
		ID:     "att",
		Status: models.AttemptSubmitted,
		Answers: []models.QuizAnswer{
			{ID: "a", QuestionID: "q1"},
			{ID: "b", QuestionID: "q1"},
		},
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = CalculateAttemptScore(nil, nil)
	assert.Error(t, err)
}

func TestLetterGradeBoundaries(t *testing.T) {
	tests := map[float64]string{
		100:   "A",
		90:    "A",
		89.99: "B",
		80:    "B",
		79.99: "C",
		70:    "C",
		60:    "D",
		59.99: "F",
		0:     "F",
	}
	for pct, grade := range tests {
		assert.Equal(t, grade, LetterGrade(pct), pct)
	}
}
