package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema creates the tables owned by the quota service. Resource tables
// (secrets, orders, ...) belong to the services that create them.
const Schema = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS project_quotas (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL UNIQUE,
	secrets        INTEGER,
	orders         INTEGER,
	containers     INTEGER,
	transport_keys INTEGER,
	consumers      INTEGER,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_project_quotas_created_at ON project_quotas (created_at, id);
`

// EnsureSchema creates the quota service tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
