package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the contract every backend must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "tareas")
	require.NoError(t, err)
	assert.False(t, ok, "fresh store should not contain the key")

	require.NoError(t, s.Set(ctx, "tareas", `[{"id":"1"}]`))
	v, ok, err := s.Get(ctx, "tareas")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)

	require.NoError(t, s.Set(ctx, "tareas", `[]`))
	v, _, err = s.Get(ctx, "tareas")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v)

	require.NoError(t, s.Set(ctx, "other", "x"))
	v, _, err = s.Get(ctx, "tareas")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "keys must not overwrite each other")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(0)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	_, _, err := s.Get(context.Background(), "tareas")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStoreQuota(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16)

	require.NoError(t, s.Set(ctx, "k", "0123456789"))
	// Replacing a key only counts the new value.
	require.NoError(t, s.Set(ctx, "k", "abcdefghij"))

	err := s.Set(ctx, "k", "this value is far too long")
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abcdefghij", v, "failed write must leave the old value")
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gantta")
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	info, err := os.Stat(s.Path("tareas"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(s.Path("tareas")), filepath.Dir(s.Path("../../etc/passwd")))
}

func TestFileStoreWatch(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 16)
	require.NoError(t, s.Watch(ctx, "tareas", func() { changed <- struct{}{} }))

	// Writes to other keys are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(s.Path("tareas"), []byte("[]"), 0600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "gantta.db")
	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	raw, err := mr.Get("tareas")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestRedisStoreBadURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, Options{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(ctx, Options{Backend: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "localStorage"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
