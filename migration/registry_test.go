package migration

import (
	"context"
	"testing"

	"github.com/arnie-db/arnie/catalog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	t.Run("valid units register once", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		require.NoError(t, r.Add(Unit{Name: "1_create_users", Up: SQL("CREATE TABLE users (id int);")}))
		require.NoError(t, r.Add(Unit{Name: "2_create_orders", Up: SQL("CREATE TABLE orders (id int);")}))

		err := r.Add(Unit{Name: "1_create_users"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicate))
	})

	t.Run("name must carry an ordinal", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		err := r.Add(Unit{Name: "create_users"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrInvalidName))
	})
}

func TestRegistry_Entries(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Add(Unit{Name: "10_ten"}))
	require.NoError(t, r.Add(Unit{Name: "9_nine"}))
	require.NoError(t, r.Add(Unit{Name: "1_one"}))

	entries, err := r.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "1_one", entries[0].Name)
	assert.Equal(t, "9_nine", entries[1].Name)
	assert.Equal(t, "10_ten", entries[2].Name)
}

func TestRegistry_Load(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	require.NoError(t, r.Add(Unit{Name: "1_one", Up: SQL("SELECT 1;")}))

	u, err := r.Load(context.Background(), "1_one")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "1_one", u.Name)
	assert.NotNil(t, u.Up)
	assert.Nil(t, u.Down)

	_, err = r.Load(context.Background(), "2_two")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
