package catalog

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name    string
		base    string
		ordinal int64
		valid   bool
	}{
		{name: "plain ordinal with description", base: "1_create_users", ordinal: 1, valid: true},
		{name: "ordinal without description", base: "42", ordinal: 42, valid: true},
		{name: "zero padded", base: "007_bond", ordinal: 7, valid: true},
		{name: "large ordinal", base: "20060102150405_snapshots", ordinal: 20060102150405, valid: true},
		{name: "trailing underscore", base: "3_", ordinal: 3, valid: true},
		{name: "no ordinal", base: "create_users", valid: false},
		{name: "negative ordinal", base: "-1_rollback_all", valid: false},
		{name: "empty base", base: "", valid: false},
		{name: "ordinal with junk", base: "12a_users", valid: false},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ordinal, err := ParseName(tc.base)
			if tc.valid {
				require.NoError(t, err)
				assert.Equal(t, tc.ordinal, ordinal)
			} else {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidName))
			}
		})
	}
}

func TestListOrdered(t *testing.T) {
	t.Parallel()

	t.Run("numeric order wins over string order", func(t *testing.T) {
		t.Parallel()

		entries, err := ListOrdered([]string{"10_add_index.sql", "9_create_users.sql", "1_init.sql"})
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "1_init", entries[0].Name)
		assert.Equal(t, "9_create_users", entries[1].Name)
		assert.Equal(t, "10_add_index", entries[2].Name)
		assert.Equal(t, int64(10), entries[2].Ordinal)
	})

	t.Run("foreign extensions and reserved names are dropped silently", func(t *testing.T) {
		t.Parallel()

		entries, err := ListOrdered([]string{
			"2_add_orders.sql",
			"README.md",
			"schema.sql",
			"seed.sql",
			"1_init.sql",
			"notes",
			"3_backfill.sql.bak",
		})
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "1_init", entries[0].Name)
		assert.Equal(t, "2_add_orders", entries[1].Name)
	})

	t.Run("ties are broken by full name", func(t *testing.T) {
		t.Parallel()

		entries, err := ListOrdered([]string{"2_bravo.sql", "2_alpha.sql", "1_init.sql"})
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "2_alpha", entries[1].Name)
		assert.Equal(t, "2_bravo", entries[2].Name)
	})

	t.Run("empty input yields empty catalog", func(t *testing.T) {
		t.Parallel()

		entries, err := ListOrdered(nil)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("malformed ordinal is fatal", func(t *testing.T) {
		t.Parallel()

		tt := []struct {
			name  string
			files []string
		}{
			{name: "no ordinal at all", files: []string{"1_init.sql", "stray_notes.sql"}},
			{name: "negative ordinal", files: []string{"-2_undo.sql"}},
			{name: "bare extension", files: []string{".sql"}},
		}

		for _, tc := range tt {
			tc := tc
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				entries, err := ListOrdered(tc.files)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidName))
				assert.Nil(t, entries)
			})
		}
	})
}
