package models

// ScoreRecord is one raw result row. A nil ComponentID marks the subject's
// overall total; other rows hold a single assessment component's score.
type ScoreRecord struct {
	StudentID   string   `db:"student_id" json:"student_id"`
	SubjectID   string   `db:"subject_id" json:"subject_id"`
	ComponentID *string  `db:"component_id" json:"component_id,omitempty"`
	TotalScore  *float64 `db:"total_score" json:"total_score"`
}

// ResultScope identifies the cohort a set of results belongs to.
type ResultScope struct {
	SchoolID  string `form:"school_id" json:"school_id" validate:"required"`
	SessionID string `form:"session_id" json:"session_id" validate:"required"`
	TermID    string `form:"term_id" json:"term_id" validate:"required"`
	ClassID   string `form:"class_id" json:"class_id" validate:"required"`
	ArmID     string `form:"arm_id" json:"arm_id,omitempty"`
	SectionID string `form:"section_id" json:"section_id,omitempty"`
}

// SubjectStatistics describes one subject from the perspective of a single student.
type SubjectStatistics struct {
	SubjectID     string   `json:"subject_id"`
	Average       *float64 `json:"average"`
	Highest       *float64 `json:"highest"`
	Lowest        *float64 `json:"lowest"`
	Position      *int     `json:"position"`
	TotalPossible float64  `json:"total_possible"`
	StudentTotal  *float64 `json:"total_obtained_by_student"`
	RankedCount   int      `json:"ranked_count"`
}

// OverallStatistics aggregates a student's results across subjects.
type OverallStatistics struct {
	TotalObtained *float64 `json:"total_obtained"`
	TotalPossible float64  `json:"total_possible"`
	Average       *float64 `json:"average"`
	ClassAverage  *float64 `json:"class_average"`
	Position      *int     `json:"position"`
	ClassSize     int      `json:"class_size"`
	SubjectCount  int      `json:"subject_count"`
}

// GradeRange is a configured grading window, inclusive on both ends.
type GradeRange struct {
	ID          string  `db:"id" json:"id"`
	SchoolID    string  `db:"school_id" json:"school_id"`
	MinScore    float64 `db:"min_score" json:"min_score"`
	MaxScore    float64 `db:"max_score" json:"max_score"`
	Label       string  `db:"label" json:"label"`
	Description string  `db:"description" json:"description"`
}

// SubjectResult pairs subject statistics with the grade resolved for the student's total.
type SubjectResult struct {
	SubjectStatistics
	Grade *GradeRange `json:"grade"`
}

// StudentResultReport is the rendered statistics for one student in one scope.
type StudentResultReport struct {
	StudentID string            `json:"student_id"`
	Scope     ResultScope       `json:"scope"`
	Subjects  []SubjectResult   `json:"subjects"`
	Overall   OverallStatistics `json:"overall"`
	Grade     *GradeRange       `json:"grade"`
}

// BroadsheetRow is one student's line on the class broadsheet.
type BroadsheetRow struct {
	StudentID     string             `json:"student_id"`
	SubjectTotals map[string]float64 `json:"subject_totals"`
	Overall       OverallStatistics  `json:"overall"`
	Grade         *GradeRange        `json:"grade"`
}

// Broadsheet lists every ranked student in a scope.
type Broadsheet struct {
	Scope    ResultScope     `json:"scope"`
	Subjects []string        `json:"subjects"`
	Rows     []BroadsheetRow `json:"rows"`
}
