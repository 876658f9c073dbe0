package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-results-api/internal/dto"
	"github.com/noah-isme/sma-results-api/internal/middleware"
	"github.com/noah-isme/sma-results-api/internal/models"
	"github.com/noah-isme/sma-results-api/internal/service"
	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
	"github.com/noah-isme/sma-results-api/pkg/export"
	"github.com/noah-isme/sma-results-api/pkg/response"
)

type resultService interface {
	StudentReport(ctx context.Context, scope models.ResultScope, studentID string) (*models.StudentResultReport, bool, error)
	ClassBroadsheet(ctx context.Context, scope models.ResultScope) (*models.Broadsheet, bool, error)
	ExportBroadsheet(ctx context.Context, scope models.ResultScope, exporter service.BroadsheetExporter) ([]byte, string, error)
	InvalidateScope(ctx context.Context, scope models.ResultScope) error
}

// ResultHandler exposes term result statistics.
type ResultHandler struct {
	results   resultService
	exporters map[string]service.BroadsheetExporter
}

// NewResultHandler constructs the handler with CSV and XLSX exporters.
func NewResultHandler(results resultService) *ResultHandler {
	return &ResultHandler{
		results: results,
		exporters: map[string]service.BroadsheetExporter{
			dto.ExportFormatCSV:  export.NewCSVExporter(),
			dto.ExportFormatXLSX: export.NewXLSXExporter("Broadsheet"),
		},
	}
}

// StudentReport godoc
// @Summary Student term result statistics
// @Tags Results
// @Produce json
// @Param id path string true "Student ID"
// @Param school_id query string true "School ID"
// @Param session_id query string true "Session ID"
// @Param term_id query string true "Term ID"
// @Param class_id query string true "Class ID"
// @Param arm_id query string false "Arm ID"
// @Param section_id query string false "Section ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /results/students/{id} [get]
func (h *ResultHandler) StudentReport(c *gin.Context) {
	var query dto.ScopeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	report, hit, err := h.results.StudentReport(c.Request.Context(), query.Scope(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, report, nil, middleware.ExtractMeta(c))
}

// Broadsheet godoc
// @Summary Class broadsheet ranked by overall position
// @Tags Results
// @Produce json
// @Param school_id query string true "School ID"
// @Param session_id query string true "Session ID"
// @Param term_id query string true "Term ID"
// @Param class_id query string true "Class ID"
// @Param arm_id query string false "Arm ID"
// @Param section_id query string false "Section ID"
// @Success 200 {object} response.Envelope
// @Router /results/broadsheet [get]
func (h *ResultHandler) Broadsheet(c *gin.Context) {
	var query dto.ScopeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	sheet, hit, err := h.results.ClassBroadsheet(c.Request.Context(), query.Scope())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, sheet, nil, middleware.ExtractMeta(c))
}

// ExportBroadsheet godoc
// @Summary Download the class broadsheet
// @Tags Results
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param school_id query string true "School ID"
// @Param session_id query string true "Session ID"
// @Param term_id query string true "Term ID"
// @Param class_id query string true "Class ID"
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Router /results/broadsheet/export [get]
func (h *ResultHandler) ExportBroadsheet(c *gin.Context) {
	var query dto.BroadsheetExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	format := strings.ToLower(query.Format)
	if format == "" {
		format = dto.ExportFormatCSV
	}
	exporter, ok := h.exporters[format]
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or xlsx"))
		return
	}

	payload, filename, err := h.results.ExportBroadsheet(c.Request.Context(), query.Scope(), exporter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, exporter.ContentType(), payload)
}

// InvalidateCache godoc
// @Summary Drop cached reports for a scope after scores change
// @Tags Results
// @Accept json
// @Param payload body dto.InvalidateCacheRequest true "Scope"
// @Success 204
// @Router /results/cache/invalidate [post]
func (h *ResultHandler) InvalidateCache(c *gin.Context) {
	var req dto.InvalidateCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.results.InvalidateScope(c.Request.Context(), req.Scope()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
