package migrations

import _ "embed"

//go:embed 20240901000002_create_quizzes.up.sql
var createQuizzesUp string

//go:embed 20240901000002_create_quizzes.down.sql
var createQuizzesDown string

func init() {
	Migrations.MustRegister(sqlStep(createQuizzesUp), sqlStep(createQuizzesDown))
}
