package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Schema creates the quota service tables
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS project_quotas (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL UNIQUE,
	secrets        INTEGER,
	orders         INTEGER,
	containers     INTEGER,
	transport_keys INTEGER,
	consumers      INTEGER,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_project_quotas_created_at ON project_quotas (created_at, id);
`

// Open opens the database at path and creates the schema when ensureSchema is set.
// Writes are serialised through a single connection.
func Open(ctx context.Context, path string, ensureSchema bool) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if ensureSchema {
		if err := EnsureSchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// EnsureSchema creates the quota service tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
