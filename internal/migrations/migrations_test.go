package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsRegistered(t *testing.T) {
	sorted := Migrations.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "20240901000001", sorted[0].Name)
	assert.Equal(t, "20240901000002", sorted[1].Name)
	assert.NotNil(t, sorted[1].Up)
	assert.NotNil(t, sorted[1].Down)
}

func TestStatementsSplitsAndTrims(t *testing.T) {
	script := "CREATE TABLE a (id INT);\n--bun:split\n\n--bun:split\n  DROP TABLE b;  "
	assert.Equal(t, []string{"CREATE TABLE a (id INT);", "DROP TABLE b;"}, statements(script))
}

func TestUpScriptsDefineUniqueKeys(t *testing.T) {
	assert.Contains(t, createResultsUp, "WHERE component_id IS NULL")
	assert.Contains(t, createQuizzesUp, "attempt_id TEXT NOT NULL UNIQUE")
	assert.Len(t, statements(createResultsDown), 3)
	assert.Len(t, statements(createQuizzesDown), 6)
}
