package schema

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var ddl string

// DDL returns the embedded schema.
func DDL() string { return ddl }

// Apply creates missing tables and indexes. It is safe to run repeatedly.
func Apply(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
