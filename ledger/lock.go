package ledger

import (
	"context"
	"database/sql"
	"hash/fnv"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

const DefaultLockKey = "arnie_migrations"
const DefaultLockSeconds = 3

// Locker guards a whole migration run against concurrent runners sharing
// the same database. Locks are taken and released on a dedicated connection
// that stays open for the duration of the run.
type Locker interface {
	Lock(ctx context.Context, conn *sqlx.Conn) error
	Unlock(ctx context.Context, conn *sqlx.Conn) error
}

type mysqlLocker struct {
	lockKey string
	lockFor int
}

func MySQLLocker(lockKey string, lockFor int) Locker {
	return &mysqlLocker{lockKey: lockKey, lockFor: lockFor}
}

func (l *mysqlLocker) Lock(ctx context.Context, conn *sqlx.Conn) error {
	// GET_LOCK answers 1 when acquired, 0 on timeout and NULL on error,
	// none of which surface as a query error
	var acquired sql.NullInt64
	if err := conn.QueryRowxContext(ctx, "SELECT GET_LOCK(?, ?)", l.lockKey, l.lockFor).Scan(&acquired); err != nil {
		return errors.Wrapf(err, "could not obtain [%s] exclusive MySQL DB lock", l.lockKey)
	}

	if !acquired.Valid || acquired.Int64 != 1 {
		return errors.Errorf("could not obtain [%s] exclusive MySQL DB lock within [%d] seconds", l.lockKey, l.lockFor)
	}

	return nil
}

func (l *mysqlLocker) Unlock(ctx context.Context, conn *sqlx.Conn) error {
	if _, err := conn.ExecContext(ctx, "SELECT RELEASE_LOCK(?)", l.lockKey); err != nil {
		return errors.Wrapf(err, "could not release [%s] exclusive MySQL DB lock", l.lockKey)
	}

	return nil
}

type postgresLocker struct {
	lockKey string
}

func PostgresLocker(lockKey string) Locker {
	return &postgresLocker{lockKey: lockKey}
}

func (l *postgresLocker) Lock(ctx context.Context, conn *sqlx.Conn) error {
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID(l.lockKey)); err != nil {
		return errors.Wrapf(err, "could not obtain [%s] exclusive Postgres advisory lock", l.lockKey)
	}

	return nil
}

func (l *postgresLocker) Unlock(ctx context.Context, conn *sqlx.Conn) error {
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID(l.lockKey)); err != nil {
		return errors.Wrapf(err, "could not release [%s] exclusive Postgres advisory lock", l.lockKey)
	}

	return nil
}

// advisoryLockID folds a string key into the bigint Postgres advisory
// locks are keyed by.
func advisoryLockID(key string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum32())
}

type nullLocker struct{}

// NullLocker locks nothing. SQLite runs use it, and so do databases where
// the caller serializes runs externally.
func NullLocker() Locker {
	return nullLocker{}
}

func (nullLocker) Lock(_ context.Context, _ *sqlx.Conn) error { return nil }

func (nullLocker) Unlock(_ context.Context, _ *sqlx.Conn) error { return nil }
