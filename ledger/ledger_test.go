package ledger

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*Ledger, *sqlx.DB) {
	t.Helper()

	db, err := sqlx.Open("sqlite3", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	l := New(db, SQLite(), "", nil)
	require.NoError(t, l.EnsureSchema(context.Background()))

	return l, db
}

func TestLedger_EnsureSchema(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)
	ctx := context.Background()

	// second run must be a no-op
	require.NoError(t, l.EnsureSchema(ctx))

	applied, err := l.Applied(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	has, err := l.HasApplied(ctx, "1_init")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLedger_RecordAndLookup(t *testing.T) {
	t.Parallel()

	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordApplied(ctx, db, "1_create_users", 1))

	has, err := l.HasApplied(ctx, "1_create_users")
	require.NoError(t, err)
	assert.True(t, has)

	rec, err := l.LatestApplied(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "1_create_users", rec.Name)
	assert.Equal(t, int64(1), rec.Ordinal)
	assert.False(t, rec.AppliedOn.IsZero())
}

func TestLedger_LatestAppliedNumericOrder(t *testing.T) {
	t.Parallel()

	l, db := newTestLedger(t)
	ctx := context.Background()

	// string order would put 9_* after 10_*
	require.NoError(t, l.RecordApplied(ctx, db, "9_create_users", 9))
	require.NoError(t, l.RecordApplied(ctx, db, "10_add_index", 10))

	rec, err := l.LatestApplied(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "10_add_index", rec.Name)

	t.Run("ties break on name", func(t *testing.T) {
		require.NoError(t, l.RecordApplied(ctx, db, "11_alpha", 11))
		require.NoError(t, l.RecordApplied(ctx, db, "11_bravo", 11))

		rec, err := l.LatestApplied(ctx)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "11_bravo", rec.Name)
	})
}

func TestLedger_LatestAppliedEmpty(t *testing.T) {
	t.Parallel()

	l, _ := newTestLedger(t)

	rec, err := l.LatestApplied(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestLedger_RecordRevertedRemovesExactlyOne(t *testing.T) {
	t.Parallel()

	l, db := newTestLedger(t)
	ctx := context.Background()

	// duplicates can only appear through external interference, but the
	// delete must still be bounded
	require.NoError(t, l.RecordApplied(ctx, db, "2_add_orders", 2))
	require.NoError(t, l.RecordApplied(ctx, db, "2_add_orders", 2))

	require.NoError(t, l.RecordReverted(ctx, db, "2_add_orders"))

	applied, err := l.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 1)

	has, err := l.HasApplied(ctx, "2_add_orders")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, l.RecordReverted(ctx, db, "2_add_orders"))

	has, err = l.HasApplied(ctx, "2_add_orders")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLedger_AppliedOrder(t *testing.T) {
	t.Parallel()

	l, db := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.RecordApplied(ctx, db, "10_ten", 10))
	require.NoError(t, l.RecordApplied(ctx, db, "1_one", 1))
	require.NoError(t, l.RecordApplied(ctx, db, "9_nine", 9))

	applied, err := l.Applied(ctx)
	require.NoError(t, err)
	require.Len(t, applied, 3)

	assert.Equal(t, "1_one", applied[0].Name)
	assert.Equal(t, "9_nine", applied[1].Name)
	assert.Equal(t, "10_ten", applied[2].Name)
}

func TestLedger_MutationsJoinCallerTransaction(t *testing.T) {
	t.Parallel()

	l, db := newTestLedger(t)
	ctx := context.Background()

	tx, err := db.BeginTxx(ctx, &sql.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, l.RecordApplied(ctx, tx, "3_backfill", 3))
	require.NoError(t, tx.Rollback())

	has, err := l.HasApplied(ctx, "3_backfill")
	require.NoError(t, err)
	assert.False(t, has, "rolled back insert must not be visible")

	tx, err = db.BeginTxx(ctx, &sql.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, l.RecordApplied(ctx, tx, "3_backfill", 3))
	require.NoError(t, tx.Commit())

	has, err = l.HasApplied(ctx, "3_backfill")
	require.NoError(t, err)
	assert.True(t, has)
}
