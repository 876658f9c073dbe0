package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds every schema change, registered by the numbered files in this package.
var Migrations = migrate.NewMigrations()

// sqlStep returns a migration func that executes each statement of a
// "--bun:split" separated script inside a single transaction.
func sqlStep(script string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range statements(script) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("exec migration statement: %w", err)
				}
			}
			return nil
		})
	}
}

func statements(script string) []string {
	parts := strings.Split(script, "--bun:split")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
