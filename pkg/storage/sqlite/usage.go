package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/keyquota/pkg/quotas"
	"github.com/platinummonkey/keyquota/pkg/storage/postgres"
)

// UsageCounter counts live resources owned by a project
type UsageCounter struct {
	db *sql.DB
}

// NewUsageCounter creates a usage counter
func NewUsageCounter(db *sql.DB) *UsageCounter {
	return &UsageCounter{db: db}
}

// CountByProject returns the number of resource rows owned by the internal project id
func (u *UsageCounter) CountByProject(ctx context.Context, projectID string, resource quotas.ResourceType) (int, error) {
	table, err := postgres.UsageTable(resource)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE project_id = ? AND deleted = 0", table)

	var count int
	if err := u.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", resource, err)
	}
	return count, nil
}
