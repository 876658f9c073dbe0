package migrations

import _ "embed"

//go:embed 20240901000001_create_results.up.sql
var createResultsUp string

//go:embed 20240901000001_create_results.down.sql
var createResultsDown string

func init() {
	Migrations.MustRegister(sqlStep(createResultsUp), sqlStep(createResultsDown))
}
