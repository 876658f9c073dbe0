package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Results API",
        "description": "Term result statistics and quiz grading",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Results", "description": "Subject and overall statistics, broadsheets"},
        {"name": "Quizzes", "description": "Attempt grading and results"},
        {"name": "Operations", "description": "Probes and metrics"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Operations"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Operations"],
                "summary": "Readiness check against postgres and redis",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "A dependency is unreachable"}
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": ["Operations"],
                "summary": "Prometheus metrics",
                "produces": ["text/plain"],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/api/v1/metrics/summary": {
            "get": {
                "tags": ["Operations"],
                "summary": "Process metrics snapshot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/students/{id}": {
            "get": {
                "tags": ["Results"],
                "summary": "Student result report with subject and overall statistics",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"$ref": "#/parameters/SchoolID"},
                    {"$ref": "#/parameters/SessionID"},
                    {"$ref": "#/parameters/TermID"},
                    {"$ref": "#/parameters/ClassID"},
                    {"$ref": "#/parameters/ArmID"},
                    {"$ref": "#/parameters/SectionID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/StudentResultReportEnvelope"}},
                    "400": {"description": "Invalid scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid stored score", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/broadsheet": {
            "get": {
                "tags": ["Results"],
                "summary": "Class broadsheet ordered by position",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"$ref": "#/parameters/SchoolID"},
                    {"$ref": "#/parameters/SessionID"},
                    {"$ref": "#/parameters/TermID"},
                    {"$ref": "#/parameters/ClassID"},
                    {"$ref": "#/parameters/ArmID"},
                    {"$ref": "#/parameters/SectionID"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/broadsheet/export": {
            "get": {
                "tags": ["Results"],
                "summary": "Download the class broadsheet",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"$ref": "#/parameters/SchoolID"},
                    {"$ref": "#/parameters/SessionID"},
                    {"$ref": "#/parameters/TermID"},
                    {"$ref": "#/parameters/ClassID"},
                    {"$ref": "#/parameters/ArmID"},
                    {"$ref": "#/parameters/SectionID"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unsupported format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/results/cache/invalidate": {
            "post": {
                "tags": ["Results"],
                "summary": "Drop cached reports for a scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResultScope"}}
                ],
                "responses": {
                    "204": {"description": "Invalidated"}
                }
            }
        },
        "/api/v1/quizzes/attempts/{id}/grade": {
            "post": {
                "tags": ["Quizzes"],
                "summary": "Grade a submitted attempt",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/QuizResultEnvelope"}},
                    "404": {"description": "Attempt not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Attempt not submitted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/quizzes/attempts/{id}/result": {
            "get": {
                "tags": ["Quizzes"],
                "summary": "Stored result of a graded attempt",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/QuizResultEnvelope"}},
                    "404": {"description": "Not graded yet", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/api/v1/quizzes/{id}/regrade": {
            "post": {
                "tags": ["Quizzes"],
                "summary": "Re-grade every submitted or graded attempt of a quiz",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Graded synchronously", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "SchoolID": {"name": "school_id", "in": "query", "required": true, "type": "string"},
        "SessionID": {"name": "session_id", "in": "query", "required": true, "type": "string"},
        "TermID": {"name": "term_id", "in": "query", "required": true, "type": "string"},
        "ClassID": {"name": "class_id", "in": "query", "required": true, "type": "string"},
        "ArmID": {"name": "arm_id", "in": "query", "type": "string"},
        "SectionID": {"name": "section_id", "in": "query", "type": "string"}
    },
    "definitions": {
        "ResultScope": {
            "type": "object",
            "required": ["school_id", "session_id", "term_id", "class_id"],
            "properties": {
                "school_id": {"type": "string"},
                "session_id": {"type": "string"},
                "term_id": {"type": "string"},
                "class_id": {"type": "string"},
                "arm_id": {"type": "string"},
                "section_id": {"type": "string"}
            }
        },
        "GradeRange": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "min_score": {"type": "number"},
                "max_score": {"type": "number"},
                "label": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "SubjectResult": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "average": {"type": "number", "x-nullable": true},
                "highest": {"type": "number", "x-nullable": true},
                "lowest": {"type": "number", "x-nullable": true},
                "position": {"type": "integer", "x-nullable": true},
                "total_possible": {"type": "number"},
                "total_obtained_by_student": {"type": "number", "x-nullable": true},
                "ranked_count": {"type": "integer"},
                "grade": {"$ref": "#/definitions/GradeRange"}
            }
        },
        "OverallStatistics": {
            "type": "object",
            "properties": {
                "total_obtained": {"type": "number", "x-nullable": true},
                "total_possible": {"type": "number"},
                "average": {"type": "number", "x-nullable": true},
                "class_average": {"type": "number", "x-nullable": true},
                "position": {"type": "integer", "x-nullable": true},
                "class_size": {"type": "integer"},
                "subject_count": {"type": "integer"}
            }
        },
        "StudentResultReport": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "scope": {"$ref": "#/definitions/ResultScope"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/SubjectResult"}},
                "overall": {"$ref": "#/definitions/OverallStatistics"},
                "grade": {"$ref": "#/definitions/GradeRange"}
            }
        },
        "StudentResultReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/StudentResultReport"},
                "meta": {"type": "object"}
            }
        },
        "QuizResult": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "attempt_id": {"type": "string"},
                "quiz_id": {"type": "string"},
                "student_id": {"type": "string"},
                "total_questions": {"type": "integer"},
                "attempted_questions": {"type": "integer"},
                "correct_answers": {"type": "integer"},
                "total_marks": {"type": "number"},
                "marks_obtained": {"type": "number"},
                "percentage": {"type": "number"},
                "grade": {"type": "string", "enum": ["A", "B", "C", "D", "F"]},
                "status": {"type": "string", "enum": ["pass", "fail"]},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "QuizResultEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/QuizResult"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
