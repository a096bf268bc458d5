package quotas

import "context"

// Repository persists ProjectQuotasRecords keyed by project id.
//
// Implementations must return an error wrapping ErrNotFound from
// GetByProjectID and DeleteByProjectID when no record exists.
type Repository interface {
	// UpsertByProjectID atomically inserts or replaces the project's record
	UpsertByProjectID(ctx context.Context, projectID string, q ProjectQuotas) error
	GetByProjectID(ctx context.Context, projectID string) (*ProjectQuotasRecord, error)
	// ListByCreateDate returns a page ordered by creation time and the total count
	ListByCreateDate(ctx context.Context, offset, limit int) ([]*ProjectQuotasRecord, int, error)
	DeleteByProjectID(ctx context.Context, projectID string) error
}

// UsageCounter reports how many resources of a type a project owns
type UsageCounter interface {
	CountByProject(ctx context.Context, projectID string, resource ResourceType) (int, error)
}

// Locker serialises callers holding the same key
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// EffectiveQuotaSource resolves the effective quotas of a project
type EffectiveQuotaSource interface {
	GetEffectiveQuotas(ctx context.Context, projectID string) (EffectiveQuotas, error)
}
