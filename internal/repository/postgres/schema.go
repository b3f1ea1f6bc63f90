package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id          UUID PRIMARY KEY,
		title       TEXT NOT NULL CHECK (title <> ''),
		description TEXT NOT NULL CHECK (description <> ''),
		event_type  TEXT NOT NULL CHECK (event_type <> ''),
		date        TIMESTAMPTZ NOT NULL,
		location    TEXT NOT NULL CHECK (location <> ''),
		image       TEXT NOT NULL CHECK (image <> ''),
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS events_date_idx ON events (date DESC)`,
}

// Migrate creates the events table and its indexes when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
