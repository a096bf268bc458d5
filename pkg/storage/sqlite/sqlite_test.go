package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/keyquota/pkg/quotas"
)

// resourceTablesDDL stands in for the tables owned by the resource services
const resourceTablesDDL = `
CREATE TABLE secrets (id INTEGER PRIMARY KEY, project_id TEXT NOT NULL, deleted BOOLEAN NOT NULL DEFAULT 0);
CREATE TABLE orders (id INTEGER PRIMARY KEY, project_id TEXT NOT NULL, deleted BOOLEAN NOT NULL DEFAULT 0);
CREATE TABLE containers (id INTEGER PRIMARY KEY, project_id TEXT NOT NULL, deleted BOOLEAN NOT NULL DEFAULT 0);
CREATE TABLE transport_keys (id INTEGER PRIMARY KEY, project_id TEXT NOT NULL, deleted BOOLEAN NOT NULL DEFAULT 0);
CREATE TABLE container_consumer_metadata (id INTEGER PRIMARY KEY, project_id TEXT NOT NULL, deleted BOOLEAN NOT NULL DEFAULT 0);
`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:", true)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// steppedClock returns a clock advancing one second per call
func steppedClock() func() time.Time {
	next := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		next = next.Add(time.Second)
		return next
	}
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, EnsureSchema(context.Background(), db))
}

func TestProjectQuotasRepository_RoundTrip(t *testing.T) {
	repo := NewProjectQuotasRepository(newTestDB(t))
	ctx := context.Background()

	in := quotas.ProjectQuotas{
		Secrets:   quotas.IntPtr(0),
		Orders:    quotas.IntPtr(2),
		Consumers: quotas.IntPtr(-1),
	}
	require.NoError(t, repo.UpsertByProjectID(ctx, "P", in))

	record, err := repo.GetByProjectID(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, "P", record.ProjectID)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, in, record.Quotas)
	assert.False(t, record.CreatedAt.IsZero())
}

func TestProjectQuotasRepository_UpsertReplaces(t *testing.T) {
	repo := NewProjectQuotasRepository(newTestDB(t))
	repo.now = steppedClock()
	ctx := context.Background()

	require.NoError(t, repo.UpsertByProjectID(ctx, "P", quotas.ProjectQuotas{Orders: quotas.IntPtr(2), Secrets: quotas.IntPtr(9)}))
	first, err := repo.GetByProjectID(ctx, "P")
	require.NoError(t, err)

	require.NoError(t, repo.UpsertByProjectID(ctx, "P", quotas.ProjectQuotas{Containers: quotas.IntPtr(4)}))
	second, err := repo.GetByProjectID(ctx, "P")
	require.NoError(t, err)

	assert.Equal(t, quotas.ProjectQuotas{Containers: quotas.IntPtr(4)}, second.Quotas)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	_, total, err := repo.ListByCreateDate(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestProjectQuotasRepository_NotFound(t *testing.T) {
	repo := NewProjectQuotasRepository(newTestDB(t))

	_, err := repo.GetByProjectID(context.Background(), "missing")
	assert.ErrorIs(t, err, quotas.ErrNotFound)

	err = repo.DeleteByProjectID(context.Background(), "missing")
	assert.ErrorIs(t, err, quotas.ErrNotFound)
}

func TestProjectQuotasRepository_ListByCreateDate(t *testing.T) {
	repo := NewProjectQuotasRepository(newTestDB(t))
	repo.now = steppedClock()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.UpsertByProjectID(ctx, fmt.Sprintf("p%d", i), quotas.ProjectQuotas{Orders: quotas.IntPtr(i)}))
	}

	records, total, err := repo.ListByCreateDate(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0].ProjectID)
	assert.Equal(t, "p2", records[1].ProjectID)
	assert.Equal(t, 2, *records[1].Quotas.Orders)

	records, total, err = repo.ListByCreateDate(ctx, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestProjectQuotasRepository_Delete(t *testing.T) {
	repo := NewProjectQuotasRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.UpsertByProjectID(ctx, "P", quotas.ProjectQuotas{}))
	require.NoError(t, repo.DeleteByProjectID(ctx, "P"))
	assert.ErrorIs(t, repo.DeleteByProjectID(ctx, "P"), quotas.ErrNotFound)
}

func TestStore_OnSQLite(t *testing.T) {
	store := quotas.NewStore(NewProjectQuotasRepository(newTestDB(t)), quotas.Defaults{
		Secrets: -1, Orders: 5, Containers: -1, TransportKeys: -1, Consumers: -1,
	})
	ctx := context.Background()

	got, err := store.GetProjectQuotas(ctx, "P")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SetProjectQuotas(ctx, "P", quotas.ProjectQuotas{Orders: quotas.IntPtr(2)}))

	eq, err := store.GetEffectiveQuotas(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, 2, eq[quotas.ResourceOrders])
	assert.Equal(t, -1, eq[quotas.ResourceSecrets])
}

func TestGetOrCreateProject(t *testing.T) {
	repo := NewProjectRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.GetOrCreateProject(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "acme", first.ExternalID)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ExternalID, first.ID)

	again, err := repo.GetOrCreateProject(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = repo.GetOrCreateProject(ctx, "")
	assert.ErrorIs(t, err, quotas.ErrInvalidProject)
}

func TestUsageCounter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, resourceTablesDDL)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO orders (project_id, deleted) VALUES ('internal-1', 0), ('internal-1', 0), ('internal-1', 1), ('other', 0);
		INSERT INTO container_consumer_metadata (project_id) VALUES ('internal-1');
	`)
	require.NoError(t, err)

	counter := NewUsageCounter(db)

	count, err := counter.CountByProject(ctx, "internal-1", quotas.ResourceOrders)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = counter.CountByProject(ctx, "internal-1", quotas.ResourceConsumers)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = counter.CountByProject(ctx, "internal-1", quotas.ResourceSecrets)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = counter.CountByProject(ctx, "internal-1", "widgets")
	assert.ErrorIs(t, err, quotas.ErrUnknownResource)
}

func TestEnforcer_OnSQLite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := db.ExecContext(ctx, resourceTablesDDL)
	require.NoError(t, err)

	project, err := NewProjectRepository(db).GetOrCreateProject(ctx, "acme")
	require.NoError(t, err)

	store := quotas.NewStore(NewProjectQuotasRepository(db), quotas.UnlimitedDefaults())
	require.NoError(t, store.SetProjectQuotas(ctx, "acme", quotas.ProjectQuotas{Containers: quotas.IntPtr(1)}))

	enforcer := quotas.NewEnforcer(store, NewUsageCounter(db))
	require.NoError(t, enforcer.Enforce(ctx, project, quotas.ResourceContainers))

	_, err = db.ExecContext(ctx, "INSERT INTO containers (project_id) VALUES (?)", project.ID)
	require.NoError(t, err)

	err = enforcer.Enforce(ctx, project, quotas.ResourceContainers)
	assert.True(t, quotas.IsQuotaReached(err))
	assert.NoError(t, enforcer.Enforce(ctx, project, quotas.ResourceOrders))
}
