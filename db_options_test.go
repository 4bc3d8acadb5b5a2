package arnie

import (
	"testing"
	"time"

	"github.com/arnie-db/arnie/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseMySQL(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		m := new(Migrator)

		checkerRuns := 0
		checker := func(opts *mysqlOptions, connectOpts *ledger.ConnectOptions) {
			assert.Equal(t, ledger.DefaultLockKey, opts.lockKey)
			assert.Equal(t, ledger.DefaultLockSeconds, opts.lockFor)
			assert.False(t, opts.noLock)
			assert.Equal(t, 60, connectOpts.MaxAttempts)
			checkerRuns++
		}

		// options never execute SQL, so any live handle will do
		err := UseMySQL(newSqliteDB(t), checker)(m)
		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)

		assert.NotNil(t, m.conn)
		assert.Equal(t, ledger.MySQL(), m.dialect)
		assert.Equal(t, ledger.MySQLLocker(ledger.DefaultLockKey, ledger.DefaultLockSeconds), m.locker)
	})

	t.Run("custom lock and connect options", func(t *testing.T) {
		m := new(Migrator)

		checkerRuns := 0
		checker := func(opts *mysqlOptions, connectOpts *ledger.ConnectOptions) {
			assert.Equal(t, "foo", opts.lockKey)
			assert.Equal(t, 5, opts.lockFor)
			assert.Equal(t, 2, connectOpts.MaxAttempts)
			assert.Equal(t, 10*time.Second, connectOpts.MaxTimeout)
			checkerRuns++
		}

		err := UseMySQL(
			newSqliteDB(t),
			WithMySQLLockKey("foo"),
			WithMySQLLockFor(5),
			WithMySQLMaxConnectionAttempts(2),
			WithMySQLConnectionTimeout(10*time.Second),
			checker,
		)(m)
		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)
	})

	t.Run("no lock", func(t *testing.T) {
		m := new(Migrator)

		err := UseMySQL(newSqliteDB(t), WithMySQLNoLock())(m)
		require.NoError(t, err)
		assert.Equal(t, ledger.NullLocker(), m.locker)
	})
}

func TestUsePostgres(t *testing.T) {
	t.Run("default options", func(t *testing.T) {
		m := new(Migrator)

		checkerRuns := 0
		checker := func(opts *postgresOptions, _ *ledger.ConnectOptions) {
			assert.Equal(t, ledger.DefaultLockKey, opts.lockKey)
			assert.False(t, opts.noLock)
			checkerRuns++
		}

		err := UsePostgres(newSqliteDB(t), checker)(m)
		require.NoError(t, err)
		require.Equal(t, 1, checkerRuns)

		assert.Equal(t, ledger.Postgres(), m.dialect)
		assert.Equal(t, ledger.PostgresLocker(ledger.DefaultLockKey), m.locker)
	})

	t.Run("no lock wins over a custom key", func(t *testing.T) {
		m := new(Migrator)

		err := UsePostgres(newSqliteDB(t), WithPostgresLockKey("bar"), WithPostgresNoLock())(m)
		require.NoError(t, err)
		assert.Equal(t, ledger.NullLocker(), m.locker)
	})
}

func TestUseSqlite(t *testing.T) {
	m := new(Migrator)

	err := UseSqlite(newSqliteDB(t))(m)
	require.NoError(t, err)

	assert.NotNil(t, m.db)
	assert.NotNil(t, m.conn)
	assert.Equal(t, ledger.SQLite(), m.dialect)
	assert.Equal(t, ledger.NullLocker(), m.locker)
}
