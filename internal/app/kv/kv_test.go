package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satorugram/internal/app/db"
	"satorugram/internal/configs"
)

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "satorugram_users")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "satorugram_users", []byte(`[{"id":"1"}]`)))
	got, err := s.Get(ctx, "satorugram_users")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(got))

	// last write wins
	require.NoError(t, s.Set(ctx, "satorugram_users", []byte(`[]`)))
	got, err = s.Get(ctx, "satorugram_users")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	// keys are independent
	require.NoError(t, s.Set(ctx, "satorugram_posts", []byte(`[1]`)))
	got, err = s.Get(ctx, "satorugram_users")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	require.NoError(t, s.Delete(ctx, "satorugram_users"))
	_, err = s.Get(ctx, "satorugram_users")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, "satorugram_users"), "deleting a missing key is fine")
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)

	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got), "store must not alias the caller's slice")

	got[1] = 'y'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	sqlDB, err := db.OpenSQLite(path)
	require.NoError(t, err)

	s := NewSQLite(sqlDB)
	t.Cleanup(func() { s.Close() })
	exerciseStore(t, s)
}

func TestSQLiteSharedBetweenHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	ctx := context.Background()

	first, err := db.OpenSQLite(path)
	require.NoError(t, err)
	a := NewSQLite(first)
	t.Cleanup(func() { a.Close() })

	second, err := db.OpenSQLite(path)
	require.NoError(t, err)
	b := NewSQLite(second)
	t.Cleanup(func() { b.Close() })

	require.NoError(t, a.Set(ctx, "satorugram_dm", []byte(`["from a"]`)))
	got, err := b.Get(ctx, "satorugram_dm")
	require.NoError(t, err)
	assert.Equal(t, `["from a"]`, string(got))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, &configs.AppConfig{StoreDriver: configs.DriverMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, &configs.AppConfig{StoreDriver: configs.DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	assert.NoError(t, s.Close())

	_, err = Open(ctx, &configs.AppConfig{StoreDriver: "indexeddb"})
	assert.Error(t, err)
}
