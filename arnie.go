package arnie

import (
	"context"
	"database/sql"

	"github.com/arnie-db/arnie/catalog"
	"github.com/arnie-db/arnie/internal/logger"
	"github.com/arnie-db/arnie/ledger"
	"github.com/arnie-db/arnie/migration"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var ErrNoDatabase = errors.New("database has not been initialized")
var ErrNoSource = errors.New("migration source has not been initialized")
var ErrDirectionNotFound = errors.New("direction not found")
var ErrUnknownMigration = errors.New("ledger references a migration missing from the catalog")

type CloserFunc func() error

// Direction of a run: up applies pending migrations, down reverts applied
// ones.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Source yields the ordered catalog of migration units and loads a single
// unit on demand. Loading is lazy: it happens only when a unit is actually
// about to execute, so faked and skipped units are never loaded. The
// engine treats the returned entries as read-only, a Source may hand out
// a shared slice.
type Source interface {
	Entries(ctx context.Context) ([]catalog.Entry, error)
	Load(ctx context.Context, name string) (*migration.Unit, error)
}

// Migrator walks the migration sequence up or down, reconciling the catalog
// of known units with the ledger of applied ones. It is an explicit value:
// all of its collaborators arrive through options, none through globals.
type Migrator struct {
	lg      logger.Logger
	db      *sqlx.DB
	conn    *sqlx.Conn
	src     Source
	dialect ledger.Dialect
	locker  ledger.Locker
	table   string
	ldg     *ledger.Ledger
}

// New assembles a Migrator from options. At minimum a database and a unit
// source must be configured.
func New(opts ...OptionFunc) (*Migrator, CloserFunc, error) {
	m := new(Migrator)
	m.lg = &logger.NullLogger{}
	m.table = ledger.DefaultTable
	m.locker = ledger.NullLocker()

	for _, oFunc := range opts {
		if err := oFunc(m); err != nil {
			return nil, nil, err
		}
	}

	if m.db == nil || m.dialect == nil {
		return nil, nil, ErrNoDatabase
	}

	if m.src == nil {
		return nil, nil, ErrNoSource
	}

	m.ldg = ledger.New(m.db, m.dialect, m.table, m.lg)

	return m, m.close, nil
}

// Up applies pending migrations in catalog order.
func (m *Migrator) Up(ctx context.Context, cfs ...ActionConfigurator) (Report, error) {
	act := new(action)
	for _, f := range cfs {
		f(act)
	}

	return m.run(ctx, DirectionUp, act)
}

// Down reverts applied migrations in reverse catalog order.
func (m *Migrator) Down(ctx context.Context, cfs ...ActionConfigurator) (Report, error) {
	act := new(action)
	for _, f := range cfs {
		f(act)
	}

	return m.run(ctx, DirectionDown, act)
}

// Status reports the latest applied migration, nil when the ledger is
// empty.
func (m *Migrator) Status(ctx context.Context) (*ledger.Record, error) {
	if err := m.ldg.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	return m.ldg.LatestApplied(ctx)
}

// Ledger exposes the underlying ledger, mostly for status tooling.
func (m *Migrator) Ledger() *ledger.Ledger {
	return m.ldg
}

func (m *Migrator) run(ctx context.Context, d Direction, act *action) (Report, error) {
	rep := Report{Direction: d, Outcome: OutcomeCompleted}

	if err := m.locker.Lock(ctx, m.conn); err != nil {
		return rep, errors.Wrap(err, "migration lock failed")
	}

	finish := func(err error) error {
		if unlockErr := m.locker.Unlock(ctx, m.conn); unlockErr != nil {
			if err == nil {
				return unlockErr
			}

			return errors.Wrap(err, unlockErr.Error())
		}

		if err != nil {
			m.lg.Error(err)
		}

		return err
	}

	if err := m.ldg.EnsureSchema(ctx); err != nil {
		return rep, finish(err)
	}

	entries, err := m.src.Entries(ctx)
	if err != nil {
		return rep, finish(err)
	}

	m.warnSharedOrdinals(entries)

	if d == DirectionDown {
		entries = reversed(entries)
	}

	if len(entries) == 0 {
		rep.Outcome = OutcomeNoOp
		m.lg.Infof("no migrations found")
		return rep, finish(nil)
	}

	start := 0

	latest, err := m.ldg.LatestApplied(ctx)
	if err != nil {
		return rep, finish(err)
	}

	switch {
	case latest != nil:
		idx := indexOf(entries, latest.Name)
		if idx < 0 {
			return rep, finish(errors.Wrapf(ErrUnknownMigration, "[%s]", latest.Name))
		}

		if d == DirectionUp {
			if idx == len(entries)-1 {
				rep.Outcome = OutcomeBlocked
				m.lg.Infof("nothing to go up")
				return rep, finish(nil)
			}

			start = idx + 1
		} else {
			start = idx
		}
	case d == DirectionDown:
		rep.Outcome = OutcomeBlocked
		m.lg.Infof("nothing to go down")
		return rep, finish(nil)
	}

	// the count is compared against the remainder, never added to start:
	// start+count can wrap around on huge counts
	end := len(entries)
	switch {
	case act.count < 0:
		end = start
	case act.count != 0 && act.count < len(entries)-start:
		end = start + act.count
	}

	window := entries[start:end]
	if act.count > len(window) {
		rep.Clamped = true
		m.lg.Infof("count %d greater than available migrations, going %s %d time(s)", act.count, d, len(window))
	}

	for i := range window {
		res, err := m.step(ctx, window[i], d, act.fake)
		if err != nil {
			return rep, finish(err)
		}

		rep.Results = append(rep.Results, res)
	}

	return rep, finish(nil)
}

// step takes a single unit through the skip, fake, or execute path.
func (m *Migrator) step(ctx context.Context, e catalog.Entry, d Direction, fake bool) (StepResult, error) {
	res := StepResult{Name: e.Name, Ordinal: e.Ordinal}

	applied, err := m.ldg.HasApplied(ctx, e.Name)
	if err != nil {
		return res, err
	}

	if applied && d == DirectionUp {
		res.Outcome = StepSkipped
		m.lg.Infof("migration [%s] already applied, skipping", e.Name)
		return res, nil
	}

	if !applied && d == DirectionDown {
		res.Outcome = StepSkipped
		m.lg.Infof("migration [%s] not applied, skipping", e.Name)
		return res, nil
	}

	if fake {
		if err := m.mutateLedger(ctx, m.db, e, d); err != nil {
			return res, err
		}

		res.Outcome = StepFaked
		m.lg.Successf("faked migration [%s] going %s", e.Name, d)
		return res, nil
	}

	m.lg.Debugf("loading migration [%s]", e.Name)

	u, err := m.src.Load(ctx, e.Name)
	if err != nil {
		return res, errors.Wrapf(err, "could not load migration [%s]", e.Name)
	}

	op := u.Up
	if d == DirectionDown {
		op = u.Down
	}

	if op == nil {
		return res, errors.Wrapf(ErrDirectionNotFound, "migration [%s] cannot go %s", e.Name, d)
	}

	m.lg.Debugf("migration [%s] going %s", e.Name, d)

	tx, err := m.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return res, errors.Wrapf(err, "could not begin transaction for migration [%s]", e.Name)
	}

	if err := op(ctx, tx); err != nil {
		return res, rollbackOn(errors.Wrapf(err, "migration [%s] failed going %s", e.Name, d), tx)
	}

	if err := m.mutateLedger(ctx, tx, e, d); err != nil {
		return res, rollbackOn(err, tx)
	}

	if err := tx.Commit(); err != nil {
		return res, errors.Wrapf(err, "could not commit migration [%s]", e.Name)
	}

	if d == DirectionUp {
		res.Outcome = StepApplied
	} else {
		res.Outcome = StepReverted
	}

	m.lg.Successf("migration [%s] went %s", e.Name, d)

	return res, nil
}

func (m *Migrator) mutateLedger(ctx context.Context, ex sqlx.ExtContext, e catalog.Entry, d Direction) error {
	if d == DirectionUp {
		return m.ldg.RecordApplied(ctx, ex, e.Name, e.Ordinal)
	}

	return m.ldg.RecordReverted(ctx, ex, e.Name)
}

func (m *Migrator) warnSharedOrdinals(entries []catalog.Entry) {
	for i := 1; i < len(entries); i++ {
		if entries[i].Ordinal == entries[i-1].Ordinal {
			m.lg.Debugf("migrations [%s] and [%s] share ordinal %d", entries[i-1].Name, entries[i].Name, entries[i].Ordinal)
		}
	}
}

// close releases the dedicated lock connection.
func (m *Migrator) close() error {
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.lg.Error(err)
			return err
		}
	}

	return nil
}

func indexOf(entries []catalog.Entry, name string) int {
	for i := range entries {
		if entries[i].Name == name {
			return i
		}
	}

	return -1
}

// reversed returns a reversed copy. Entry slices stay owned by the Source,
// the engine never flips them in place.
func reversed(entries []catalog.Entry) []catalog.Entry {
	out := make([]catalog.Entry, len(entries))
	for i := range entries {
		out[len(entries)-1-i] = entries[i]
	}

	return out
}

func rollbackOn(err error, tx *sqlx.Tx) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return errors.Wrap(err, rollbackErr.Error())
	}

	return err
}
