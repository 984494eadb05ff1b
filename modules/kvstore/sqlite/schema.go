package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// timestampFormat matches strftime('%Y-%m-%dT%H:%M:%fZ') so stored
// timestamps compare correctly as text.
const timestampFormat = "2006-01-02T15:04:05.000Z"

// schemaStatements are executed in order; all are idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS records (
		collection TEXT NOT NULL,
		key        TEXT NOT NULL,
		data       TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		PRIMARY KEY (collection, key)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_records_updated ON records(collection, updated_at)`,
}

// migrate brings the schema to schemaVersion.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)"); err != nil {
		return fmt.Errorf("sqlite: create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}
	if current >= schemaVersion {
		return nil
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migrate: %w\nstatement: %s", err, stmt)
		}
	}

	if _, err := db.ExecContext(ctx, "INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("sqlite: record schema version: %w", err)
	}
	return nil
}
