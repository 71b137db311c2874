// Package sqlite provides an embedded store backed by modernc.org/sqlite
// (pure Go, no cgo). It implements the same repository contracts as the
// postgres store and is intended for single-node and development
// deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Schema is applied on open; sqlite deployments do not run a separate
// migration step.
const Schema = `
CREATE TABLE IF NOT EXISTS roles (
    name        TEXT PRIMARY KEY,
    description TEXT NOT NULL DEFAULT '',
    parent_name TEXT REFERENCES roles(name),
    created_at  TIMESTAMP NOT NULL,
    updated_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_roles_parent_name ON roles(parent_name);

CREATE TABLE IF NOT EXISTS role_grants (
    role_name   TEXT NOT NULL REFERENCES roles(name) ON DELETE CASCADE,
    action_name TEXT NOT NULL,
    granted_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (role_name, action_name)
);
`

// DB wraps the sqlite connection
type DB struct {
	db *sql.DB
}

// New opens (or creates) a sqlite database at path and applies the
// schema. Use ":memory:" for an ephemeral database.
func New(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// SQLite handles a single writer; the stdlib pool must not open
	// competing write connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}
