package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// exerciseStore checks the contract every backend must satisfy. Values are
// JSON so the postgres backend accepts them.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	key := fmt.Sprintf("test-%d", time.Now().UnixNano())

	_, err := store.Load(ctx, key)
	require.True(t, errors.Is(err, ErrNotFound), "missing key: %v", err)

	require.NoError(t, store.Save(ctx, key, []byte(`{"roomId":"ABCDE"}`)))
	value, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"ABCDE"}`, string(value))

	require.NoError(t, store.Save(ctx, key, []byte(`{"roomId":"ZZZZZ"}`)))
	value, err = store.Load(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"roomId":"ZZZZZ"}`, string(value))

	require.NoError(t, store.Clear(ctx, key))
	_, err = store.Load(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, store.Clear(ctx, key), "clearing a missing key is not an error")
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	store := NewMemoryStore()
	value := []byte(`{"a":1}`)
	require.NoError(t, store.Save(context.Background(), "k", value))
	value[2] = 'b'

	loaded, err := store.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(loaded))
	assert.Equal(t, []string{"k"}, store.Keys())
}

func TestBoltStore(t *testing.T) {
	store, err := OpenBoltStore(filepath.Join(t.TempDir(), "nested", "session.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestBoltStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	store, err := OpenBoltStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "metal-empire-session", []byte(`{"isHost":true}`)))
	require.NoError(t, store.Close())

	reopened, err := OpenBoltStore(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer reopened.Close()

	value, err := reopened.Load(ctx, "metal-empire-session")
	require.NoError(t, err)
	assert.JSONEq(t, `{"isHost":true}`, string(value))
}

func TestBoltStoreRequiresPath(t *testing.T) {
	_, err := OpenBoltStore("", nil)
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	store := NewRedisStore(addr, "empire-test:", zaptest.NewLogger(t))
	defer store.Close()

	exerciseStore(t, store)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := OpenPostgresStore(ctx, dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, Options{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	bolt, err := Open(ctx, Options{Backend: BackendBolt, Path: filepath.Join(t.TempDir(), "s.db")}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, bolt)
	require.NoError(t, bolt.Close())

	_, err = Open(ctx, Options{Backend: "floppy"}, nil)
	assert.Error(t, err)
}
