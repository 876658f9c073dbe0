package dto

import "github.com/noah-isme/sma-results-api/internal/models"

// Export formats accepted by the broadsheet export endpoint.
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ScopeQuery binds a result scope from query parameters.
type ScopeQuery struct {
	SchoolID  string `form:"school_id"`
	SessionID string `form:"session_id"`
	TermID    string `form:"term_id"`
	ClassID   string `form:"class_id"`
	ArmID     string `form:"arm_id"`
	SectionID string `form:"section_id"`
}

// Scope converts the query into a result scope.
func (q ScopeQuery) Scope() models.ResultScope {
	return models.ResultScope{
		SchoolID:  q.SchoolID,
		SessionID: q.SessionID,
		TermID:    q.TermID,
		ClassID:   q.ClassID,
		ArmID:     q.ArmID,
		SectionID: q.SectionID,
	}
}

// BroadsheetExportQuery selects the scope and file format of an export.
type BroadsheetExportQuery struct {
	ScopeQuery
	Format string `form:"format"`
}

// InvalidateCacheRequest names the scope whose cached reports should be dropped.
type InvalidateCacheRequest struct {
	SchoolID  string `json:"school_id"`
	SessionID string `json:"session_id"`
	TermID    string `json:"term_id"`
	ClassID   string `json:"class_id"`
	ArmID     string `json:"arm_id"`
	SectionID string `json:"section_id"`
}

// Scope converts the request into a result scope.
func (r InvalidateCacheRequest) Scope() models.ResultScope {
	return models.ResultScope(r)
}
