// Package lock provides advisory locking on the source database to enforce
// "only one active run per table". Concurrent runs on the same table would
// race on the watermark write, so the run command takes a named lock before
// starting a cycle.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dbsmedya/golake/internal/sqlutil"
)

// ErrLockHeld is returned when another instance is already running a cycle
// for the same table.
var ErrLockHeld = errors.New("run lock is held by another instance")

// RunLock is an advisory lock scoped to one table's incremental runs.
// MySQL uses GET_LOCK/RELEASE_LOCK with the generated name; PostgreSQL uses
// pg_try_advisory_lock keyed by a hash of the same name. Either way the lock
// is released explicitly or when the holding connection closes.
type RunLock struct {
	dialect  sqlutil.Dialect
	lockName string
	conn     *sql.Conn
	held     bool
}

// NewRunLock creates an advisory lock for a table's runs. The lock is not
// acquired until Acquire is called.
func NewRunLock(dialect sqlutil.Dialect, table string) *RunLock {
	return &RunLock{
		dialect:  dialect,
		lockName: LockName(table),
	}
}

// Acquire attempts to take the lock without waiting. It pins a dedicated
// connection so the session-scoped lock survives pool recycling.
// Returns ErrLockHeld when another instance holds the lock.
func (l *RunLock) Acquire(ctx context.Context, db *sqlx.DB) error {
	if l.held {
		return nil
	}

	conn, err := db.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to open lock connection: %w", err)
	}

	acquired, err := l.tryAcquire(ctx, conn)
	if err != nil {
		conn.Close()
		return err
	}
	if !acquired {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrLockHeld, l.lockName)
	}

	l.conn = conn
	l.held = true
	return nil
}

func (l *RunLock) tryAcquire(ctx context.Context, conn *sql.Conn) (bool, error) {
	if l.dialect == sqlutil.DialectPostgres {
		var acquired bool
		err := conn.QueryRowContext(ctx,
			"SELECT pg_try_advisory_lock($1)", l.key()).Scan(&acquired)
		if err != nil {
			return false, fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
		}
		return acquired, nil
	}

	// MySQL GET_LOCK returns 1 on success, 0 on timeout, NULL on error.
	var result sql.NullInt64
	err := conn.QueryRowContext(ctx,
		"SELECT GET_LOCK(?, ?)", l.lockName, 0).Scan(&result)
	if err != nil {
		return false, fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		return false, fmt.Errorf("GET_LOCK returned NULL for lock %q", l.lockName)
	}
	return result.Int64 == 1, nil
}

// Release releases the lock and closes the pinned connection.
// Releasing an unheld lock is a no-op.
func (l *RunLock) Release(ctx context.Context) error {
	if !l.held {
		return nil
	}
	defer func() {
		l.conn.Close()
		l.conn = nil
		l.held = false
	}()

	if l.dialect == sqlutil.DialectPostgres {
		var released bool
		err := l.conn.QueryRowContext(ctx,
			"SELECT pg_advisory_unlock($1)", l.key()).Scan(&released)
		if err != nil {
			return fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
		}
		return nil
	}

	var result sql.NullInt64
	err := l.conn.QueryRowContext(ctx,
		"SELECT RELEASE_LOCK(?)", l.lockName).Scan(&result)
	if err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	return nil
}

// IsHeld returns true if this lock is currently held by this instance.
func (l *RunLock) IsHeld() bool {
	return l.held
}

// Name returns the generated lock name.
func (l *RunLock) Name() string {
	return l.lockName
}

// key derives the PostgreSQL advisory lock key from the lock name.
func (l *RunLock) key() int64 {
	h := fnv.New64a()
	h.Write([]byte(l.lockName))
	return int64(h.Sum64())
}

// LockName creates a consistent lock name for a table's runs.
// Lock names follow the format: "golake:run:{table}".
func LockName(table string) string {
	// Sanitize to prevent lock name conflicts from odd characters.
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, table)

	return fmt.Sprintf("golake:run:%s", sanitized)
}

// WithRunLock executes fn while holding the table's run lock, releasing it
// even if fn panics.
func WithRunLock(ctx context.Context, db *sqlx.DB, dialect sqlutil.Dialect, table string, fn func() error) error {
	l := NewRunLock(dialect, table)
	if err := l.Acquire(ctx, db); err != nil {
		return err
	}
	defer l.Release(context.WithoutCancel(ctx))

	return fn()
}
