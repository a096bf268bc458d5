package quotas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/platinummonkey/keyquota/pkg/observability"
)

var discardLogger = observability.NewLogger(observability.ErrorLevel, io.Discard)

// memRepository is an in-memory Repository
type memRepository struct {
	mu      sync.Mutex
	records map[string]*ProjectQuotasRecord
	seq     int
	err     error
}

func newMemRepository() *memRepository {
	return &memRepository{records: make(map[string]*ProjectQuotasRecord)}
}

func (m *memRepository) UpsertByProjectID(ctx context.Context, projectID string, q ProjectQuotas) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	now := time.Now()
	if rec, ok := m.records[projectID]; ok {
		rec.Quotas = *q.Clone()
		rec.UpdatedAt = now
		return nil
	}

	m.seq++
	m.records[projectID] = &ProjectQuotasRecord{
		ID:        fmt.Sprintf("rec-%d", m.seq),
		ProjectID: projectID,
		Quotas:    *q.Clone(),
		CreatedAt: now.Add(time.Duration(m.seq) * time.Millisecond),
		UpdatedAt: now,
	}
	return nil
}

func (m *memRepository) GetByProjectID(ctx context.Context, projectID string) (*ProjectQuotasRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}

	rec, ok := m.records[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	out := *rec
	out.Quotas = *rec.Quotas.Clone()
	return &out, nil
}

func (m *memRepository) ListByCreateDate(ctx context.Context, offset, limit int) ([]*ProjectQuotasRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}

	all := make([]*ProjectQuotasRecord, 0, len(m.records))
	for _, rec := range m.records {
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, len(all), ErrNotFound
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *memRepository) DeleteByProjectID(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}

	if _, ok := m.records[projectID]; !ok {
		return fmt.Errorf("project %s: %w", projectID, ErrNotFound)
	}
	delete(m.records, projectID)
	return nil
}

// memUsage counts resources per internal project id
type memUsage struct {
	mu     sync.Mutex
	counts map[string]int
	calls  int
	err    error
}

func newMemUsage() *memUsage {
	return &memUsage{counts: make(map[string]int)}
}

func usageKey(projectID string, r ResourceType) string {
	return projectID + "/" + string(r)
}

func (u *memUsage) set(projectID string, r ResourceType, n int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[usageKey(projectID, r)] = n
}

func (u *memUsage) add(projectID string, r ResourceType) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.counts[usageKey(projectID, r)]++
}

func (u *memUsage) CountByProject(ctx context.Context, projectID string, r ResourceType) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls++
	if u.err != nil {
		return 0, u.err
	}
	return u.counts[usageKey(projectID, r)], nil
}

// keyedMutexLocker is an in-process Locker
type keyedMutexLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
	err   error
}

func newKeyedMutexLocker() *keyedMutexLocker {
	return &keyedMutexLocker{locks: make(map[string]chan struct{})}
}

func (l *keyedMutexLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}

	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// recordingRecorder captures Recorder calls
type recordingRecorder struct {
	mu           sync.Mutex
	operations   []string
	enforcements []string
}

func (r *recordingRecorder) StoreOperation(operation string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	} else if err != nil {
		status = "not_found"
	}
	r.operations = append(r.operations, operation+":"+status)
}

func (r *recordingRecorder) Enforcement(resource string, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enforcements = append(r.enforcements, resource+":"+result)
}
