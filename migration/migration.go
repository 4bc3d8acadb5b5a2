package migration

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Action is a single direction operation of a migration unit. It runs inside
// the same transaction that records the unit in the ledger, so a failing
// action leaves no trace.
type Action func(ctx context.Context, tx *sqlx.Tx) error

// Unit is one migration: a base name carrying the ordinal, plus up to two
// direction operations. A nil Action means the unit does not expose that
// direction.
type Unit struct {
	Name string
	Up   Action
	Down Action
}

// SQL builds an Action that executes the given statements in order.
func SQL(statements ...string) Action {
	return func(ctx context.Context, tx *sqlx.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.Wrapf(err, "statement %d failed", i+1)
			}
		}

		return nil
	}
}
