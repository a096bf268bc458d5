package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// ProjectRepository maps external project identifiers to internal ids
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetOrCreateProject returns the project with the given external id,
// creating it on first sight
func (r *ProjectRepository) GetOrCreateProject(ctx context.Context, externalID string) (quotas.Project, error) {
	if externalID == "" {
		return quotas.Project{}, quotas.ErrInvalidProject
	}

	// the no-op update makes RETURNING yield the existing row on conflict
	query := `
		INSERT INTO projects (id, external_id, created_at)
		VALUES ($1, $2, now())
		ON CONFLICT (external_id) DO UPDATE SET external_id = EXCLUDED.external_id
		RETURNING id, external_id
	`

	var project quotas.Project
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), externalID).
		Scan(&project.ID, &project.ExternalID)
	if err != nil {
		return quotas.Project{}, fmt.Errorf("failed to get or create project: %w", err)
	}
	return project, nil
}
