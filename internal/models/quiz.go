package models

import (
	"time"

	"github.com/lib/pq"
)

// QuestionType is the stored type tag of a quiz question.
type QuestionType string

const (
	QuestionSingleChoice QuestionType = "single_choice"
	QuestionTrueFalse    QuestionType = "true_false"
	QuestionMultiSelect  QuestionType = "multi_select"
	QuestionFreeText     QuestionType = "free_text"
)

// MatchMode controls how free-text answers are compared.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchContains MatchMode = "contains"
	MatchKeywords MatchMode = "keywords"
)

// AttemptStatus tracks the attempt lifecycle: in_progress -> submitted -> graded.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
)

// ResultStatus is the pass/fail outcome of a graded attempt.
type ResultStatus string

const (
	ResultPass ResultStatus = "pass"
	ResultFail ResultStatus = "fail"
)

// Quiz is a quiz definition with its questions.
type Quiz struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	PassingScore float64        `db:"passing_score" json:"passing_score"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	Questions    []QuizQuestion `db:"-" json:"questions"`
}

// QuizQuestion is a stored question row plus its options.
type QuizQuestion struct {
	ID              string         `db:"id" json:"id"`
	QuizID          string         `db:"quiz_id" json:"quiz_id"`
	Type            QuestionType   `db:"question_type" json:"question_type"`
	Marks           float64        `db:"marks" json:"marks"`
	MatchMode       MatchMode      `db:"match_mode" json:"match_mode,omitempty"`
	AcceptedAnswers pq.StringArray `db:"accepted_answers" json:"accepted_answers,omitempty"`
	Keywords        pq.StringArray `db:"keywords" json:"keywords,omitempty"`
	Position        int            `db:"position" json:"position"`
	Options         []QuizOption   `db:"-" json:"options,omitempty"`
}

// QuizOption is a selectable option of a choice question.
type QuizOption struct {
	ID         string `db:"id" json:"id"`
	QuestionID string `db:"question_id" json:"question_id"`
	Label      string `db:"label" json:"label"`
	IsCorrect  bool   `db:"is_correct" json:"is_correct"`
}

// QuizAttempt is one student's sitting of a quiz.
type QuizAttempt struct {
	ID          string        `db:"id" json:"id"`
	QuizID      string        `db:"quiz_id" json:"quiz_id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Status      AttemptStatus `db:"status" json:"status"`
	SubmittedAt *time.Time    `db:"submitted_at" json:"submitted_at,omitempty"`
	GradedAt    *time.Time    `db:"graded_at" json:"graded_at,omitempty"`
	Answers     []QuizAnswer  `db:"-" json:"answers"`
}

// QuizAnswer is a submitted answer. SelectedOptionIDs holds a JSON list for
// multi-select questions.
type QuizAnswer struct {
	ID                string   `db:"id" json:"id"`
	AttemptID         string   `db:"attempt_id" json:"attempt_id"`
	QuestionID        string   `db:"question_id" json:"question_id"`
	SelectedOptionID  *string  `db:"selected_option_id" json:"selected_option_id,omitempty"`
	SelectedOptionIDs *string  `db:"selected_option_ids" json:"selected_option_ids,omitempty"`
	AnswerText        *string  `db:"answer_text" json:"answer_text,omitempty"`
	IsCorrect         *bool    `db:"is_correct" json:"is_correct"`
	MarksObtained     *float64 `db:"marks_obtained" json:"marks_obtained"`
}

// QuizResult is the persisted outcome of grading an attempt. One per attempt.
type QuizResult struct {
	ID                 string       `db:"id" json:"id"`
	AttemptID          string       `db:"attempt_id" json:"attempt_id"`
	QuizID             string       `db:"quiz_id" json:"quiz_id"`
	StudentID          string       `db:"student_id" json:"student_id"`
	TotalQuestions     int          `db:"total_questions" json:"total_questions"`
	AttemptedQuestions int          `db:"attempted_questions" json:"attempted_questions"`
	CorrectAnswers     int          `db:"correct_answers" json:"correct_answers"`
	TotalMarks         float64      `db:"total_marks" json:"total_marks"`
	MarksObtained      float64      `db:"marks_obtained" json:"marks_obtained"`
	Percentage         float64      `db:"percentage" json:"percentage"`
	Grade              string       `db:"grade" json:"grade"`
	Status             ResultStatus `db:"status" json:"status"`
	CreatedAt          time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at" json:"updated_at"`
}
