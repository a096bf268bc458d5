package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

const quotaColumns = "id, project_id, secrets, orders, containers, transport_keys, consumers, created_at, updated_at"

// ProjectQuotasRepository stores project quota records in PostgreSQL
type ProjectQuotasRepository struct {
	db     *sql.DB
	reader func() *sql.DB
}

// NewProjectQuotasRepository creates a repository that reads and writes through db
func NewProjectQuotasRepository(db *sql.DB) *ProjectQuotasRepository {
	return &ProjectQuotasRepository{
		db:     db,
		reader: func() *sql.DB { return db },
	}
}

// NewProjectQuotasRepositoryWithReplicas serves listings from replicas and
// everything else from the primary
func NewProjectQuotasRepositoryWithReplicas(cm *ConnectionManager) *ProjectQuotasRepository {
	return &ProjectQuotasRepository{
		db:     cm.Primary(),
		reader: cm.Replica,
	}
}

// UpsertByProjectID inserts or replaces all quota columns of a project in one statement
func (r *ProjectQuotasRepository) UpsertByProjectID(ctx context.Context, projectID string, q quotas.ProjectQuotas) error {
	query := `
		INSERT INTO project_quotas (id, project_id, secrets, orders, containers, transport_keys, consumers, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		ON CONFLICT (project_id) DO UPDATE SET
			secrets = EXCLUDED.secrets,
			orders = EXCLUDED.orders,
			containers = EXCLUDED.containers,
			transport_keys = EXCLUDED.transport_keys,
			consumers = EXCLUDED.consumers,
			updated_at = now()
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(),
		projectID,
		nullableInt(q.Secrets),
		nullableInt(q.Orders),
		nullableInt(q.Containers),
		nullableInt(q.TransportKeys),
		nullableInt(q.Consumers),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project quotas: %w", err)
	}
	return nil
}

// GetByProjectID returns the quota record of a project
func (r *ProjectQuotasRepository) GetByProjectID(ctx context.Context, projectID string) (*quotas.ProjectQuotasRecord, error) {
	query := "SELECT " + quotaColumns + " FROM project_quotas WHERE project_id = $1"

	record, err := scanRecord(r.db.QueryRowContext(ctx, query, projectID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", projectID, quotas.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project quotas: %w", err)
	}
	return record, nil
}

// ListByCreateDate returns a page of records ordered by creation time and the total count.
// Both reads run in one read-only transaction so the page and total agree.
func (r *ProjectQuotasRepository) ListByCreateDate(ctx context.Context, offset, limit int) ([]*quotas.ProjectQuotasRecord, int, error) {
	tx, err := r.reader().BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM project_quotas").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count project quotas: %w", err)
	}

	query := "SELECT " + quotaColumns + " FROM project_quotas ORDER BY created_at, id LIMIT $1 OFFSET $2"
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

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return records, total, nil
}

// DeleteByProjectID removes the quota record of a project
func (r *ProjectQuotasRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM project_quotas WHERE project_id = $1", projectID)
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
		record                                                quotas.ProjectQuotasRecord
		secrets, orders, containers, transportKeys, consumers sql.NullInt64
	)

	err := row.Scan(
		&record.ID,
		&record.ProjectID,
		&secrets,
		&orders,
		&containers,
		&transportKeys,
		&consumers,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Quotas = quotas.ProjectQuotas{
		Secrets:       intFromNull(secrets),
		Orders:        intFromNull(orders),
		Containers:    intFromNull(containers),
		TransportKeys: intFromNull(transportKeys),
		Consumers:     intFromNull(consumers),
	}
	return &record, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
