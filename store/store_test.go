package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

// exerciseKV runs the behaviour every backend must share.
func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "a", []byte(`{"x":1}`)))
	got, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(got))

	require.NoError(t, kv.Set(ctx, "a", []byte(`{"x":2}`)))
	got, err = kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, `{"x":2}`, string(got))

	require.NoError(t, kv.Delete(ctx, "a"))
	_, err = kv.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, kv.Delete(ctx, "never-set"))
}

func TestMemory(t *testing.T) {
	t.Parallel()
	exerciseKV(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	v := []byte("abc")
	require.NoError(t, m.Set(context.Background(), "k", v))
	v[0] = 'z'

	got, err := m.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestSQLite(t *testing.T) {
	t.Parallel()
	s, _ := newTestSQLite(t)
	exerciseKV(t, s)
}

func TestSQLiteKeysAndReopen(t *testing.T) {
	t.Parallel()

	s, path := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "b", []byte("2")))
	require.NoError(t, s.Set(ctx, "a", []byte("1")))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
	require.NoError(t, s.Close())

	// Migrations are idempotent and data survives a reopen.
	again, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = again.Close() })

	got, err := again.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "2", string(got))
}

func TestOpen(t *testing.T) {
	t.Parallel()

	kv, err := Open(Options{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(Options{Type: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, kv)
	assert.NoError(t, kv.Close())

	_, err = Open(Options{Type: "sqlite"})
	assert.Error(t, err)

	_, err = Open(Options{Type: "redis"})
	assert.Error(t, err)

	_, err = Open(Options{Type: "etcd"})
	assert.ErrorContains(t, err, "unknown store type")
}

func TestRedis(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newRedisWithClient(db, "")
	ctx := context.Background()

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet("tradelock:trading_notes").SetVal(`[]`)

		got, err := r.Get(ctx, "trading_notes")
		require.NoError(t, err)
		assert.Equal(t, "[]", string(got))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("tradelock:nothing").RedisNil()

		_, err := r.Get(ctx, "nothing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		mock.ExpectGet("tradelock:boom").SetErr(redis.TxFailedErr)

		_, err := r.Get(ctx, "boom")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set without expiry", func(t *testing.T) {
		mock.ExpectSet("tradelock:yesterday_locked", "2026-10-14", 0).SetVal("OK")

		require.NoError(t, r.Set(ctx, "yesterday_locked", []byte("2026-10-14")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectDel("tradelock:yesterday_locked").SetVal(1)

		require.NoError(t, r.Delete(ctx, "yesterday_locked"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
