package ledger

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// DefaultTable is the ledger table name used unless overridden.
const DefaultTable = "migration"

// Dialect supplies the vendor-specific corners of the ledger: schema DDL,
// the bounded single-row delete, and the placeholder format the shared
// squirrel-built queries must use.
type Dialect interface {
	Name() string
	Placeholder() sq.PlaceholderFormat
	CreateTableQuery(table string) string
	// CreateIndexQuery returns "" when the name index is created inline
	// with the table.
	CreateIndexQuery(table string) string
	// DeleteOneQuery removes at most one row matching the name argument.
	DeleteOneQuery(table string) string
}

type mysqlDialect struct{}
type sqliteDialect struct{}
type postgresDialect struct{}

func MySQL() Dialect    { return mysqlDialect{} }
func SQLite() Dialect   { return sqliteDialect{} }
func Postgres() Dialect { return postgresDialect{} }

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (mysqlDialect) CreateTableQuery(table string) string {
	// MySQL has no CREATE INDEX IF NOT EXISTS, so the name index is part
	// of the table definition.
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			migration VARCHAR(255) NOT NULL,
			ordinal BIGINT NOT NULL,
			applied_on TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			INDEX idx_%s_migration (migration)
		) ENGINE=INNODB;
	`, table, table)
}

func (mysqlDialect) CreateIndexQuery(_ string) string { return "" }

func (mysqlDialect) DeleteOneQuery(table string) string {
	return fmt.Sprintf("DELETE FROM %s WHERE migration = ? LIMIT 1;", table)
}

func (sqliteDialect) Name() string { return "sqlite3" }

func (sqliteDialect) Placeholder() sq.PlaceholderFormat { return sq.Question }

func (sqliteDialect) CreateTableQuery(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			migration VARCHAR(255) NOT NULL,
			ordinal BIGINT NOT NULL,
			applied_on TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`, table)
}

func (sqliteDialect) CreateIndexQuery(table string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_migration ON %s (migration);", table, table)
}

func (sqliteDialect) DeleteOneQuery(table string) string {
	return fmt.Sprintf(
		"DELETE FROM %s WHERE id = (SELECT id FROM %s WHERE migration = ? LIMIT 1);",
		table, table,
	)
}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func (postgresDialect) CreateTableQuery(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL NOT NULL,
			migration VARCHAR(255) NOT NULL,
			ordinal BIGINT NOT NULL,
			applied_on TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (id)
		);
	`, table)
}

func (postgresDialect) CreateIndexQuery(table string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_migration ON %s (migration);", table, table)
}

func (postgresDialect) DeleteOneQuery(table string) string {
	return fmt.Sprintf(
		"DELETE FROM %s WHERE id = (SELECT id FROM %s WHERE migration = $1 LIMIT 1);",
		table, table,
	)
}
