package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/threat-console/internal/model"
)

func newMemoryMedium(t *testing.T) *SQLiteMedium {
	t.Helper()
	m, err := NewSQLiteMedium(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestSQLiteMedium_ReadAfterWrite(t *testing.T) {
	m := newMemoryMedium(t)
	ctx := context.Background()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "k", []byte(`{"a":1}`)))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, m.Put(ctx, "k", []byte(`{"a":2}`)))
	got, _, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(got))

	require.NoError(t, m.Delete(ctx, "k"))
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, m.Delete(ctx, "k"))
}

func TestSQLiteMedium_ReopenKeepsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.db")
	ctx := context.Background()

	m, err := NewSQLiteMedium(path)
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, KeyBookmarks, []byte(`[]`)))
	require.NoError(t, m.Close())

	m, err = NewSQLiteMedium(path)
	require.NoError(t, err)
	defer m.Close()

	got, ok, err := m.Get(ctx, KeyBookmarks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(got))

	var version int
	require.NoError(t, m.db.Get(&version, "SELECT MAX(version) FROM schema_version"))
	assert.Equal(t, len(migrations), version)
}

func TestSQLiteMedium_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	m := newSQLiteMediumFromDB(sqlx.NewDb(db, "sqlmock"))
	ctx := context.Background()
	boom := errors.New("disk I/O error")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM preferences WHERE key = ?")).
		WithArgs("k").
		WillReturnError(boom)
	_, ok, err := m.Get(ctx, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO preferences")).
		WithArgs("k", "v", sqlmock.AnyArg()).
		WillReturnError(boom)
	assert.ErrorIs(t, m.Put(ctx, "k", []byte("v")), boom)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM preferences WHERE key = ?")).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, m.Delete(ctx, "k"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteMedium_PutGetProperty(t *testing.T) {
	m := newMemoryMedium(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("last write wins for any key", prop.ForAll(
		func(key, first, second string) bool {
			if err := m.Put(ctx, key, []byte(first)); err != nil {
				return false
			}
			if err := m.Put(ctx, key, []byte(second)); err != nil {
				return false
			}
			got, ok, err := m.Get(ctx, key)
			return err == nil && ok && string(got) == second
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), model.StorageConfig{Driver: "etcd"})
	assert.ErrorContains(t, err, "unknown storage driver")
}
