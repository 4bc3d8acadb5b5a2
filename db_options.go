package arnie

import (
	"database/sql"
	"time"

	"github.com/arnie-db/arnie/ledger"
	"github.com/jmoiron/sqlx"
)

type (
	MySQLOptionFunc    func(*mysqlOptions, *ledger.ConnectOptions)
	SqliteOptionFunc   func(*ledger.ConnectOptions)
	PostgresOptionFunc func(*postgresOptions, *ledger.ConnectOptions)

	mysqlOptions struct {
		lockKey string
		lockFor int
		noLock  bool
	}

	postgresOptions struct {
		lockKey string
		noLock  bool
	}
)

// UseMySQL attaches an open MySQL handle. Runs are guarded by a GET_LOCK
// advisory lock unless disabled. Open the handle with parseTime=true, the
// ledger scans applied_on into time.Time.
func UseMySQL(db *sql.DB, options ...MySQLOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		mysqlOpts := &mysqlOptions{
			lockKey: ledger.DefaultLockKey,
			lockFor: ledger.DefaultLockSeconds,
		}
		connectOpts := ledger.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(mysqlOpts, connectOpts)
		}

		dbx := sqlx.NewDb(db, "mysql")
		conn, err := ledger.Connect(dbx, connectOpts)
		if err != nil {
			return err
		}

		m.db = dbx
		m.conn = conn
		m.dialect = ledger.MySQL()

		if mysqlOpts.noLock {
			m.locker = ledger.NullLocker()
		} else {
			m.locker = ledger.MySQLLocker(mysqlOpts.lockKey, mysqlOpts.lockFor)
		}

		return nil
	}
}

// UseSqlite attaches an open SQLite handle. SQLite serializes writers on
// its own, so runs take no advisory lock.
func UseSqlite(db *sql.DB, options ...SqliteOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		connectOpts := ledger.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(connectOpts)
		}

		dbx := sqlx.NewDb(db, "sqlite3")
		conn, err := ledger.Connect(dbx, connectOpts)
		if err != nil {
			return err
		}

		m.db = dbx
		m.conn = conn
		m.dialect = ledger.SQLite()
		m.locker = ledger.NullLocker()

		return nil
	}
}

// UsePostgres attaches an open PostgreSQL handle. Runs are guarded by an
// advisory lock unless disabled.
func UsePostgres(db *sql.DB, options ...PostgresOptionFunc) OptionFunc {
	return func(m *Migrator) error {
		pgOpts := &postgresOptions{
			lockKey: ledger.DefaultLockKey,
		}
		connectOpts := ledger.NewDefaultConnectOptions()

		for _, oFunc := range options {
			oFunc(pgOpts, connectOpts)
		}

		dbx := sqlx.NewDb(db, "postgres")
		conn, err := ledger.Connect(dbx, connectOpts)
		if err != nil {
			return err
		}

		m.db = dbx
		m.conn = conn
		m.dialect = ledger.Postgres()

		if pgOpts.noLock {
			m.locker = ledger.NullLocker()
		} else {
			m.locker = ledger.PostgresLocker(pgOpts.lockKey)
		}

		return nil
	}
}

func WithMySQLLockKey(key string) MySQLOptionFunc {
	return func(opts *mysqlOptions, _ *ledger.ConnectOptions) {
		opts.lockKey = key
	}
}

func WithMySQLLockFor(seconds int) MySQLOptionFunc {
	return func(opts *mysqlOptions, _ *ledger.ConnectOptions) {
		opts.lockFor = seconds
	}
}

func WithMySQLNoLock() MySQLOptionFunc {
	return func(opts *mysqlOptions, _ *ledger.ConnectOptions) {
		opts.noLock = true
	}
}

func WithMySQLConnectionTimeout(timeout time.Duration) MySQLOptionFunc {
	return func(_ *mysqlOptions, connectOpts *ledger.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithMySQLMaxConnectionAttempts(attempts int) MySQLOptionFunc {
	return func(_ *mysqlOptions, connectOpts *ledger.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithSqliteConnectionTimeout(timeout time.Duration) SqliteOptionFunc {
	return func(connectOpts *ledger.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithSqliteMaxConnectionAttempts(attempts int) SqliteOptionFunc {
	return func(connectOpts *ledger.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}

func WithPostgresLockKey(key string) PostgresOptionFunc {
	return func(opts *postgresOptions, _ *ledger.ConnectOptions) {
		opts.lockKey = key
	}
}

func WithPostgresNoLock() PostgresOptionFunc {
	return func(opts *postgresOptions, _ *ledger.ConnectOptions) {
		opts.noLock = true
	}
}

func WithPostgresConnectionTimeout(timeout time.Duration) PostgresOptionFunc {
	return func(_ *postgresOptions, connectOpts *ledger.ConnectOptions) {
		connectOpts.MaxTimeout = timeout
	}
}

func WithPostgresMaxConnectionAttempts(attempts int) PostgresOptionFunc {
	return func(_ *postgresOptions, connectOpts *ledger.ConnectOptions) {
		connectOpts.MaxAttempts = attempts
	}
}
