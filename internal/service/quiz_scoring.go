package service

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/noah-isme/sma-results-api/internal/models"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

// QuestionKind is the closed set of scorable question variants.
type QuestionKind interface {
	questionKind()
}

// SingleChoice is correct when the selected option is the designated one.
type SingleChoice struct {
	CorrectOptionID string
}

// TrueFalse behaves like SingleChoice over two options.
type TrueFalse struct {
	CorrectOptionID string
}

// MultiSelect is correct when the selection equals the correct set exactly.
type MultiSelect struct {
	CorrectOptionIDs []string
}

// FreeText compares normalised text using Mode.
type FreeText struct {
	Mode            models.MatchMode
	AcceptedAnswers []string
	Keywords        []string
}

func (SingleChoice) questionKind() {}
func (TrueFalse) questionKind()    {}
func (MultiSelect) questionKind()  {}
func (FreeText) questionKind()     {}

// KindOf maps a stored question onto its scoring variant.
func KindOf(q models.QuizQuestion) (QuestionKind, error) {
	switch q.Type {
	case models.QuestionSingleChoice:
		return SingleChoice{CorrectOptionID: firstCorrectOption(q.Options)}, nil
	case models.QuestionTrueFalse:
		return TrueFalse{CorrectOptionID: firstCorrectOption(q.Options)}, nil
	case models.QuestionMultiSelect:
		var ids []string
		for _, opt := range q.Options {
			if opt.IsCorrect {
				ids = append(ids, opt.ID)
			}
		}
		return MultiSelect{CorrectOptionIDs: ids}, nil
	case models.QuestionFreeText:
		mode := q.MatchMode
		switch mode {
		case "":
			mode = models.MatchExact
		case models.MatchExact, models.MatchContains, models.MatchKeywords:
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s has unknown match mode %q", q.ID, q.MatchMode))
		}
		return FreeText{Mode: mode, AcceptedAnswers: q.AcceptedAnswers, Keywords: q.Keywords}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrUnknownQuestionType, fmt.Sprintf("question %s has unknown type %q", q.ID, q.Type))
	}
}

func firstCorrectOption(options []models.QuizOption) string {
	for _, opt := range options {
		if opt.IsCorrect {
			return opt.ID
		}
	}
	return ""
}

// EvaluateAnswer reports whether answer satisfies kind.
func EvaluateAnswer(kind QuestionKind, answer models.QuizAnswer) bool {
	switch k := kind.(type) {
	case SingleChoice:
		return matchesOption(k.CorrectOptionID, answer.SelectedOptionID)
	case TrueFalse:
		return matchesOption(k.CorrectOptionID, answer.SelectedOptionID)
	case MultiSelect:
		return sameSet(selectedOptions(answer), k.CorrectOptionIDs)
	case FreeText:
		if answer.AnswerText == nil {
			return false
		}
		return matchFreeText(k, *answer.AnswerText)
	default:
		return false
	}
}

func matchesOption(correct string, selected *string) bool {
	return correct != "" && selected != nil && *selected == correct
}

// selectedOptions reads the JSON list of option ids, falling back to the single selection.
func selectedOptions(answer models.QuizAnswer) []string {
	if answer.SelectedOptionIDs != nil && strings.TrimSpace(*answer.SelectedOptionIDs) != "" {
		var ids []string
		if err := json.Unmarshal([]byte(*answer.SelectedOptionIDs), &ids); err == nil && len(ids) > 0 {
			return ids
		}
	}
	if answer.SelectedOptionID != nil && *answer.SelectedOptionID != "" {
		return []string{*answer.SelectedOptionID}
	}
	return nil
}

func sameSet(selected, correct []string) bool {
	if len(correct) == 0 || len(selected) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(correct))
	for _, id := range correct {
		want[id] = struct{}{}
	}
	got := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := want[id]; !ok {
			return false
		}
		got[id] = struct{}{}
	}
	return len(got) == len(want)
}

func matchFreeText(k FreeText, raw string) bool {
	text := normalizeText(raw)
	if text == "" {
		return false
	}
	accepted := normalizeAll(k.AcceptedAnswers)
	keywords := normalizeAll(k.Keywords)

	switch k.Mode {
	case models.MatchKeywords:
		if len(keywords) > 0 {
			return containsAll(text, keywords)
		}
		return equalsAny(text, accepted)
	case models.MatchContains:
		if len(accepted) > 0 {
			return containsAny(text, accepted)
		}
		return containsAll(text, keywords)
	default:
		if len(accepted) > 0 {
			return equalsAny(text, accepted)
		}
		return containsAll(text, keywords)
	}
}

// normalizeText lowercases, drops punctuation and collapses whitespace.
func normalizeText(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := normalizeText(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func equalsAny(text string, candidates []string) bool {
	for _, c := range candidates {
		if text == c {
			return true
		}
	}
	return false
}

func containsAny(text string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

func containsAll(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

// CalculateAttemptScore grades every answer of attempt against quiz. It sets
// each answer's correctness and marks and moves the attempt to graded.
func CalculateAttemptScore(quiz *models.Quiz, attempt *models.QuizAttempt) (*models.QuizResult, error) {
	if quiz == nil || attempt == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "quiz and attempt are required")
	}
	switch attempt.Status {
	case models.AttemptSubmitted, models.AttemptGraded:
	case models.AttemptInProgress:
		return nil, appErrors.Clone(appErrors.ErrAttemptNotSubmitted, fmt.Sprintf("attempt %s is still in progress", attempt.ID))
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("attempt %s has unknown status %q", attempt.ID, attempt.Status))
	}
	if attempt.QuizID != "" && attempt.QuizID != quiz.ID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attempt does not belong to quiz")
	}

	questions := make(map[string]models.QuizQuestion, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}

	result := &models.QuizResult{
		AttemptID:      attempt.ID,
		QuizID:         quiz.ID,
		StudentID:      attempt.StudentID,
		TotalQuestions: len(quiz.Questions),
	}

	seen := make(map[string]struct{}, len(attempt.Answers))
	for i := range attempt.Answers {
		answer := &attempt.Answers[i]
		question, ok := questions[answer.QuestionID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("answer %s references unknown question %s", answer.ID, answer.QuestionID))
		}
		if _, dup := seen[answer.QuestionID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("question %s answered more than once", answer.QuestionID))
		}
		seen[answer.QuestionID] = struct{}{}

		kind, err := KindOf(question)
		if err != nil {
			return nil, err
		}

		correct := EvaluateAnswer(kind, *answer)
		marks := 0.0
		if correct {
			marks = question.Marks
			result.CorrectAnswers++
		}
		answer.IsCorrect = &correct
		answer.MarksObtained = &marks

		if hasResponse(*answer) {
			result.AttemptedQuestions++
		}
		result.TotalMarks += question.Marks
		result.MarksObtained += marks
	}

	if result.TotalMarks > 0 {
		result.Percentage = math.Round(result.MarksObtained/result.TotalMarks*10000) / 100
	}
	result.Grade = LetterGrade(result.Percentage)
	result.Status = models.ResultFail
	if result.Percentage >= quiz.PassingScore {
		result.Status = models.ResultPass
	}

	attempt.Status = models.AttemptGraded
	return result, nil
}

func hasResponse(a models.QuizAnswer) bool {
	nonEmpty := func(v *string) bool { return v != nil && strings.TrimSpace(*v) != "" }
	return nonEmpty(a.SelectedOptionID) || nonEmpty(a.SelectedOptionIDs) || nonEmpty(a.AnswerText)
}

// LetterGrade maps a quiz percentage onto the fixed A-F scale.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
