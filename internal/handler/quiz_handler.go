package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type quizService interface {
	GradeAttempt(ctx context.Context, attemptID string) (*models.QuizResult, error)
	Result(ctx context.Context, attemptID string) (*models.QuizResult, error)
	RegradeQuiz(ctx context.Context, quizID string) (*dto.RegradeResponse, error)
}

// QuizHandler exposes quiz grading endpoints.
type QuizHandler struct {
	quizzes quizService
}

// NewQuizHandler constructs the handler.
func NewQuizHandler(quizzes quizService) *QuizHandler {
	return &QuizHandler{quizzes: quizzes}
}

// GradeAttempt godoc
// @Summary Grade a submitted quiz attempt
// @Tags Quizzes
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /quizzes/attempts/{id}/grade [post]
func (h *QuizHandler) GradeAttempt(c *gin.Context) {
	result, err := h.quizzes.GradeAttempt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Result godoc
// @Summary Stored result of a graded attempt
// @Tags Quizzes
// @Produce json
// @Param id path string true "Attempt ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quizzes/attempts/{id}/result [get]
func (h *QuizHandler) Result(c *gin.Context) {
	result, err := h.quizzes.Result(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// RegradeQuiz godoc
// @Summary Re-grade every submitted attempt of a quiz
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 202 {object} response.Envelope
// @Router /quizzes/{id}/regrade [post]
func (h *QuizHandler) RegradeQuiz(c *gin.Context) {
	summary, err := h.quizzes.RegradeQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if summary.Queued {
		response.Accepted(c, summary)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
