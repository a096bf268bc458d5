package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

const quotaColumns = "id, project_id, secrets, orders, containers, transport_keys, consumers, created_at, updated_at"

// ProjectQuotasRepository stores project quota records in SQLite
type ProjectQuotasRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProjectQuotasRepository creates a new repository
func NewProjectQuotasRepository(db *sql.DB) *ProjectQuotasRepository {
	return &ProjectQuotasRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// UpsertByProjectID inserts or replaces all quota columns of a project
func (r *ProjectQuotasRepository) UpsertByProjectID(ctx context.Context, projectID string, q quotas.ProjectQuotas) error {
	query := `
		INSERT INTO project_quotas (id, project_id, secrets, orders, containers, transport_keys, consumers, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (project_id) DO UPDATE SET
			secrets = excluded.secrets,
			orders = excluded.orders,
			containers = excluded.containers,
			transport_keys = excluded.transport_keys,
			consumers = excluded.consumers,
			updated_at = excluded.updated_at
	`

	now := r.now()
	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		projectID,
		nullableInt(q.Secrets),
		nullableInt(q.Orders),
		nullableInt(q.Containers),
		nullableInt(q.TransportKeys),
		nullableInt(q.Consumers),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project quotas: %w", err)
	}
	return nil
}

// GetByProjectID returns the quota record of a project
func (r *ProjectQuotasRepository) GetByProjectID(ctx context.Context, projectID string) (*quotas.ProjectQuotasRecord, error) {
	query := "SELECT " + quotaColumns + " FROM project_quotas WHERE project_id = ?"

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, projectID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", projectID, quotas.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project quotas: %w", err)
	}
	return record, nil
}

// ListByCreateDate returns a page of records ordered by creation time and the total count
func (r *ProjectQuotasRepository) ListByCreateDate(ctx context.Context, offset, limit int) ([]*quotas.ProjectQuotasRecord, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM project_quotas").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count project quotas: %w", err)
	}

	query := "SELECT " + quotaColumns + " FROM project_quotas ORDER BY created_at, id LIMIT ? OFFSET ?"
	rows, err := tx.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list project quotas: %w", err)
	}
	defer rows.Close()

	records := make([]*quotas.ProjectQuotasRecord, 0, limit)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project quotas: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate project quotas: %w", err)
	}

	return records, total, tx.Commit()
}

// DeleteByProjectID removes the quota record of a project
func (r *ProjectQuotasRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM project_quotas WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete project quotas: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("project %s: %w", projectID, quotas.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*quotas.ProjectQuotasRecord, error) {
	var (
		record quotas.ProjectQuotasRecord
		values [5]sql.NullInt64
	)

	err := row.Scan(
		&record.ID,
		&record.ProjectID,
		&values[0],
		&values[1],
		&values[2],
		&values[3],
		&values[4],
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// column order matches quotas.Resources()
	for i, r := range quotas.Resources() {
		if values[i].Valid {
			v := int(values[i].Int64)
			if err := record.Quotas.Set(r, &v); err != nil {
				return nil, err
			}
		}
	}
	return &record, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}
