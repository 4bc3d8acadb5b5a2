package cli

import (
	"database/sql"
	"log"
	"os"

	"github.com/arnie-db/arnie"
	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/xo/dburl"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

type (
	migratorFactory    func(db *sql.DB, cfg Config, noColor bool) (*arnie.Migrator, arnie.CloserFunc, error)
	migratorFactoryMap map[string]migratorFactory
)

var factories = migratorFactoryMap{
	"mysql":    createMySQLMigrator,
	"sqlite3":  createSqliteMigrator,
	"postgres": createPostgresMigrator,
}

// createMigrator resolves the database url to a driver factory and
// assembles a migrator over a freshly opened handle. The returned closer
// releases the handle as well.
func createMigrator(cfg Config, noColor bool) (*arnie.Migrator, arnie.CloserFunc, error) {
	u, err := dburl.Parse(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not parse database url")
	}

	factory, ok := factories[u.Driver]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnsupportedDriver, "[%s]", u.Driver)
	}

	dsn, err := normalizeDSN(u.Driver, u.DSN)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(u.Driver, dsn)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not open [%s] database", u.Driver)
	}

	m, closer, err := factory(db, cfg, noColor)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	appCloser := func() error {
		err := closer()
		if closeErr := db.Close(); closeErr != nil && err == nil {
			return closeErr
		}

		return err
	}

	return m, appCloser, nil
}

// normalizeDSN fills in driver options the url form cannot carry. The
// mysql driver hands TIMESTAMP columns back as raw bytes unless parseTime
// is set, and the ledger scans applied_on into time.Time.
func normalizeDSN(driver, dsn string) (string, error) {
	if driver != "mysql" {
		return dsn, nil
	}

	mysqlCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "could not parse mysql dsn")
	}

	mysqlCfg.ParseTime = true

	return mysqlCfg.FormatDSN(), nil
}

func createMySQLMigrator(db *sql.DB, cfg Config, noColor bool) (*arnie.Migrator, arnie.CloserFunc, error) {
	return arnie.New(assembleOptions(arnie.UseMySQL(db), cfg, noColor)...)
}

func createSqliteMigrator(db *sql.DB, cfg Config, noColor bool) (*arnie.Migrator, arnie.CloserFunc, error) {
	return arnie.New(assembleOptions(arnie.UseSqlite(db), cfg, noColor)...)
}

func createPostgresMigrator(db *sql.DB, cfg Config, noColor bool) (*arnie.Migrator, arnie.CloserFunc, error) {
	return arnie.New(assembleOptions(arnie.UsePostgres(db), cfg, noColor)...)
}

func assembleOptions(driver arnie.OptionFunc, cfg Config, noColor bool) []arnie.OptionFunc {
	opts := []arnie.OptionFunc{
		driver,
		arnie.UseDir(cfg.MigrationsFolder),
	}

	if cfg.LedgerTable != "" {
		opts = append(opts, arnie.UseLedgerTable(cfg.LedgerTable))
	}

	printer := log.New(os.Stdout, "", 0)
	if noColor {
		opts = append(opts, arnie.UseLogger(printer, true, true))
	} else {
		opts = append(opts, arnie.UseColorLogger(printer, true, true))
	}

	return opts
}
