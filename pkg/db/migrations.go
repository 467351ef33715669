// pkg/db/migrations.go
package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed migrations/schema.sql
var schemaSQL string

// SchemaStatements splits the embedded schema into individual statements.
func SchemaStatements() []Statement {
	var out []Statement
	for _, part := range strings.Split(schemaSQL, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, Statement{SQL: part})
	}
	return out
}

// Migrate applies the schema in one transaction. Every statement is idempotent.
func Migrate(ctx context.Context, d *DB) error {
	if err := d.Transaction(ctx, SchemaStatements()); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
