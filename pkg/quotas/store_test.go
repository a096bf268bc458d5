package quotas

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioDefaults() Defaults {
	return Defaults{Secrets: -1, Orders: 5, Containers: -1, TransportKeys: -1, Consumers: -1}
}

func newTestStore(repo Repository, rec Recorder) *Store {
	opts := []Option{WithLogger(discardLogger)}
	if rec != nil {
		opts = append(opts, WithRecorder(rec))
	}
	return NewStore(repo, scenarioDefaults(), opts...)
}

func TestStore_EffectiveQuotasWithoutRecord(t *testing.T) {
	store := newTestStore(newMemRepository(), nil)

	eq, err := store.GetEffectiveQuotas(context.Background(), "P")
	require.NoError(t, err)
	assert.Equal(t, EffectiveQuotas{
		ResourceSecrets:       -1,
		ResourceOrders:        5,
		ResourceContainers:    -1,
		ResourceTransportKeys: -1,
		ResourceConsumers:     -1,
	}, eq)
}

func TestStore_EffectiveQuotasMergesConfigured(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newMemRepository(), nil)

	require.NoError(t, store.SetProjectQuotas(ctx, "P", ProjectQuotas{Orders: IntPtr(2)}))

	eq, err := store.GetEffectiveQuotas(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, 2, eq[ResourceOrders])
	for _, r := range Resources() {
		if r == ResourceOrders {
			continue
		}
		assert.Equal(t, scenarioDefaults().Get(r), eq[r], r)
	}
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newMemRepository(), nil)

	in := ProjectQuotas{
		Secrets:       IntPtr(10),
		Orders:        IntPtr(0),
		Containers:    IntPtr(-1),
		TransportKeys: nil,
		Consumers:     IntPtr(-3),
	}
	require.NoError(t, store.SetProjectQuotas(ctx, "P", in))

	got, err := store.GetProjectQuotas(ctx, "P")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, *got)
}

func TestStore_SetReplacesWholeRecord(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newMemRepository(), nil)

	require.NoError(t, store.SetProjectQuotas(ctx, "P", ProjectQuotas{Secrets: IntPtr(1), Orders: IntPtr(2)}))
	require.NoError(t, store.SetProjectQuotas(ctx, "P", ProjectQuotas{Orders: IntPtr(3)}))

	got, err := store.GetProjectQuotas(ctx, "P")
	require.NoError(t, err)
	assert.Nil(t, got.Secrets, "omitted resources are cleared on replace")
	assert.Equal(t, 3, *got.Orders)
}

func TestStore_SetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepository()
	store := newTestStore(repo, nil)

	q := ProjectQuotas{Containers: IntPtr(7)}
	require.NoError(t, store.SetProjectQuotas(ctx, "P", q))
	require.NoError(t, store.SetProjectQuotas(ctx, "P", q))

	page, err := store.ListProjectQuotas(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestStore_SetRejectsEmptyProject(t *testing.T) {
	store := newTestStore(newMemRepository(), nil)
	err := store.SetProjectQuotas(context.Background(), "", ProjectQuotas{})
	assert.ErrorIs(t, err, ErrInvalidProject)
}

func TestStore_SetDoesNotAliasCallerValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newMemRepository(), nil)

	v := 5
	require.NoError(t, store.SetProjectQuotas(ctx, "P", ProjectQuotas{Orders: &v}))
	v = 50

	got, err := store.GetProjectQuotas(ctx, "P")
	require.NoError(t, err)
	assert.Equal(t, 5, *got.Orders)
}

func TestStore_GetProjectQuotasAbsent(t *testing.T) {
	store := newTestStore(newMemRepository(), nil)

	got, err := store.GetProjectQuotas(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newMemRepository(), nil)

	t.Run("missing record", func(t *testing.T) {
		err := store.DeleteProjectQuotas(ctx, "P")
		assert.True(t, IsNotFound(err))
	})

	t.Run("existing record", func(t *testing.T) {
		require.NoError(t, store.SetProjectQuotas(ctx, "P", ProjectQuotas{Orders: IntPtr(1)}))
		require.NoError(t, store.DeleteProjectQuotas(ctx, "P"))

		got, err := store.GetProjectQuotas(ctx, "P")
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.ErrorIs(t, store.DeleteProjectQuotas(ctx, "P"), ErrNotFound)
	})
}

func TestStore_ListEmpty(t *testing.T) {
	store := newTestStore(newMemRepository(), nil)

	page, err := store.ListProjectQuotas(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
	assert.Equal(t, 0, page.Total)
}

func TestStore_ListOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newMemRepository(), nil)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SetProjectQuotas(ctx, fmt.Sprintf("p%d", i), ProjectQuotas{Orders: IntPtr(i)}))
	}
	// updating an old project keeps its position
	require.NoError(t, store.SetProjectQuotas(ctx, "p0", ProjectQuotas{Orders: IntPtr(99)}))

	page, err := store.ListProjectQuotas(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 2, page.Limit)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "p1", page.Records[0].ProjectID)
	assert.Equal(t, "p2", page.Records[1].ProjectID)

	page, err = store.ListProjectQuotas(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "p0", page.Records[0].ProjectID)
	assert.Equal(t, 99, *page.Records[0].Quotas.Orders)

	t.Run("offset past the end", func(t *testing.T) {
		page, err := store.ListProjectQuotas(ctx, 50, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Records)
		assert.Equal(t, 5, page.Total)
	})
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name                  string
		offset, limit         int
		wantOffset, wantLimit int
	}{
		{"defaults", 0, 0, 0, DefaultPageLimit},
		{"negative offset", -3, 5, 0, 5},
		{"negative limit", 2, -1, 2, DefaultPageLimit},
		{"capped limit", 0, 1000, 0, MaxPageLimit},
		{"in range", 20, 50, 20, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := NormalizePage(tt.offset, tt.limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestStore_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepository()
	repo.err = errors.New("connection reset")
	rec := &recordingRecorder{}
	store := newTestStore(repo, rec)

	assert.Error(t, store.SetProjectQuotas(ctx, "P", ProjectQuotas{}))

	_, err := store.GetProjectQuotas(ctx, "P")
	assert.Error(t, err)

	_, err = store.ListProjectQuotas(ctx, 0, 10)
	assert.Error(t, err)

	_, err = store.GetEffectiveQuotas(ctx, "P")
	assert.ErrorContains(t, err, "connection reset")

	assert.False(t, IsNotFound(store.DeleteProjectQuotas(ctx, "P")))

	assert.Equal(t, []string{"set:error", "get:error", "list:error", "effective:error", "delete:error"}, rec.operations)
}

func TestStore_Defaults(t *testing.T) {
	store := newTestStore(newMemRepository(), nil)
	assert.Equal(t, scenarioDefaults(), store.Defaults())
}
