package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/platinummonkey/keyquota/pkg/observability"
)

const (
	lockMinBackoff = 5 * time.Millisecond
	lockMaxBackoff = 100 * time.Millisecond
)

// AdvisoryLocker serialises quota reservations with session-level
// PostgreSQL advisory locks. Each held lock pins one connection of db, so db
// should be a pool of its own (see ConnectionManager.LockPool).
type AdvisoryLocker struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewAdvisoryLocker creates a locker taking its sessions from db
func NewAdvisoryLocker(db *sql.DB, logger *observability.Logger) *AdvisoryLocker {
	return &AdvisoryLocker{db: db, logger: logger}
}

// Lock polls pg_try_advisory_lock until the lock for key is held or ctx is
// done. Waiters hand their connection back to the pool between attempts.
func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	backoff := lockMinBackoff

	for {
		conn, err := l.tryLock(ctx, key)
		if err != nil {
			return nil, err
		}
		if conn != nil {
			return l.unlockFunc(conn, key), nil
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("failed to acquire advisory lock %s: %w", key, ctx.Err())
		case <-timer.C:
		}

		backoff *= 2
		if backoff > lockMaxBackoff {
			backoff = lockMaxBackoff
		}
	}
}

// tryLock returns the session holding the lock, or nil when another session has it
func (l *AdvisoryLocker) tryLock(ctx context.Context, key string) (*sql.Conn, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock(hashtext($1))", key).Scan(&acquired); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !acquired {
		conn.Close()
		return nil, nil
	}
	return conn, nil
}

func (l *AdvisoryLocker) unlockFunc(conn *sql.Conn, key string) func() {
	return func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if _, err := conn.ExecContext(unlockCtx, "SELECT pg_advisory_unlock(hashtext($1))", key); err != nil {
			// discarding the session releases the lock server-side
			l.logger.WithError(err).WithField("key", key).Warn("failed to release advisory lock")
			_ = conn.Raw(func(interface{}) error { return driver.ErrBadConn })
		}
		conn.Close()
	}
}
