package ledger

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/arnie-db/arnie/internal/logger"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Record is one ledger row: a migration that is currently applied.
type Record struct {
	ID        int64     `db:"id"`
	Name      string    `db:"migration"`
	Ordinal   int64     `db:"ordinal"`
	AppliedOn time.Time `db:"applied_on"`
}

// Ledger maintains the persisted table of applied migrations. Reads go
// through the pool it owns; mutations take an explicit executor so the
// engine can run them inside the transaction that also ran the unit.
type Ledger struct {
	db      *sqlx.DB
	table   string
	dialect Dialect
	lg      logger.Logger
}

func New(db *sqlx.DB, d Dialect, table string, lg logger.Logger) *Ledger {
	if table == "" {
		table = DefaultTable
	}

	if lg == nil {
		lg = &logger.NullLogger{}
	}

	return &Ledger{db: db, table: table, dialect: d, lg: lg}
}

func (l *Ledger) Table() string { return l.table }

// EnsureSchema creates the ledger table and its name index when absent,
// inside one transaction. Safe to call on every run.
func (l *Ledger) EnsureSchema(ctx context.Context) error {
	tx, err := l.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "could not begin ledger schema transaction")
	}

	createTable := l.dialect.CreateTableQuery(l.table)
	l.lg.SQL(createTable)
	if _, err := tx.ExecContext(ctx, createTable); err != nil {
		return rollbackOn(errors.Wrapf(err, "could not create ledger table [%s]", l.table), tx)
	}

	if createIndex := l.dialect.CreateIndexQuery(l.table); createIndex != "" {
		l.lg.SQL(createIndex)
		if _, err := tx.ExecContext(ctx, createIndex); err != nil {
			return rollbackOn(errors.Wrapf(err, "could not create ledger index on [%s]", l.table), tx)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit ledger schema transaction")
	}

	return nil
}

// HasApplied reports whether a row for name exists. The lookup is bounded,
// so externally introduced duplicates still read as applied.
func (l *Ledger) HasApplied(ctx context.Context, name string) (bool, error) {
	query, args, err := sq.Select("id").
		From(l.table).
		Where(sq.Eq{"migration": name}).
		Limit(1).
		PlaceholderFormat(l.dialect.Placeholder()).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "could not build ledger lookup query")
	}

	l.lg.SQL(query, args...)

	var id int64
	if err := sqlx.GetContext(ctx, l.db, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, errors.Wrapf(err, "could not check whether migration [%s] is applied", name)
	}

	return true, nil
}

// LatestApplied returns the most recently applied migration, nil when the
// ledger is empty. Recency is numeric ordinal order, with the name as a
// deterministic tie-break.
func (l *Ledger) LatestApplied(ctx context.Context) (*Record, error) {
	query, args, err := sq.Select("id", "migration", "ordinal", "applied_on").
		From(l.table).
		OrderBy("ordinal DESC", "migration DESC").
		Limit(1).
		PlaceholderFormat(l.dialect.Placeholder()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "could not build latest applied query")
	}

	l.lg.SQL(query, args...)

	var rec Record
	if err := sqlx.GetContext(ctx, l.db, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "could not read latest applied migration")
	}

	return &rec, nil
}

// Applied returns every ledger row in canonical order.
func (l *Ledger) Applied(ctx context.Context) ([]Record, error) {
	query, args, err := sq.Select("id", "migration", "ordinal", "applied_on").
		From(l.table).
		OrderBy("ordinal ASC", "migration ASC").
		PlaceholderFormat(l.dialect.Placeholder()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "could not build applied migrations query")
	}

	l.lg.SQL(query, args...)

	var records []Record
	if err := sqlx.SelectContext(ctx, l.db, &records, query, args...); err != nil {
		return nil, errors.Wrap(err, "could not read applied migrations")
	}

	return records, nil
}

// RecordApplied inserts a ledger row for name. The executor may be the pool
// or the transaction that just ran the unit.
func (l *Ledger) RecordApplied(ctx context.Context, ex sqlx.ExtContext, name string, ordinal int64) error {
	query, args, err := sq.Insert(l.table).
		Columns("migration", "ordinal").
		Values(name, ordinal).
		PlaceholderFormat(l.dialect.Placeholder()).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "could not build ledger insert query")
	}

	l.lg.SQL(query, args...)

	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(err, "could not record migration [%s] in ledger table [%s]", name, l.table)
	}

	return nil
}

// RecordReverted removes exactly one ledger row for name.
func (l *Ledger) RecordReverted(ctx context.Context, ex sqlx.ExtContext, name string) error {
	query := l.dialect.DeleteOneQuery(l.table)

	l.lg.SQL(query, name)

	if _, err := ex.ExecContext(ctx, query, name); err != nil {
		return errors.Wrapf(err, "could not remove migration [%s] from ledger table [%s]", name, l.table)
	}

	return nil
}

func rollbackOn(err error, tx *sqlx.Tx) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return errors.Wrap(err, rollbackErr.Error())
	}

	return err
}
