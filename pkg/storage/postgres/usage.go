package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// usageTables maps each resource type to the table holding its rows
var usageTables = map[quotas.ResourceType]string{
	quotas.ResourceSecrets:       "secrets",
	quotas.ResourceOrders:        "orders",
	quotas.ResourceContainers:    "containers",
	quotas.ResourceTransportKeys: "transport_keys",
	quotas.ResourceConsumers:     "container_consumer_metadata",
}

// UsageTable returns the table counted for a resource type
func UsageTable(resource quotas.ResourceType) (string, error) {
	table, ok := usageTables[resource]
	if !ok {
		return "", fmt.Errorf("%w: %q", quotas.ErrUnknownResource, resource)
	}
	return table, nil
}

// UsageCounter counts live (not soft-deleted) resources owned by a project
type UsageCounter struct {
	db *sql.DB
}

// NewUsageCounter creates a usage counter. It must read from the primary so
// that counts include rows written just before the check.
func NewUsageCounter(db *sql.DB) *UsageCounter {
	return &UsageCounter{db: db}
}

// CountByProject returns the number of resource rows owned by the internal project id
func (u *UsageCounter) CountByProject(ctx context.Context, projectID string, resource quotas.ResourceType) (int, error) {
	table, err := UsageTable(resource)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE project_id = $1 AND deleted = false", table)

	var count int
	if err := u.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", resource, err)
	}
	return count, nil
}
