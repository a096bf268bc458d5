package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

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

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO projects (id, external_id, created_at) VALUES (?, ?, ?) ON CONFLICT (external_id) DO NOTHING",
		uuid.New().String(), externalID, time.Now().UTC(),
	)
	if err != nil {
		return quotas.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	var project quotas.Project
	err = r.db.QueryRowContext(ctx, "SELECT id, external_id FROM projects WHERE external_id = ?", externalID).
		Scan(&project.ID, &project.ExternalID)
	if err != nil {
		return quotas.Project{}, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}
