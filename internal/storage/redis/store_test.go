package redisstore

import (
	"testing"

	mrd "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/duckdev/wp-queue-process/internal/storage"
)

func newMiniStore(t *testing.T) *Store {
	t.Helper()
	srv := mrd.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, "test")
}

func TestPutGetUpdateDelete(t *testing.T) {
	s := newMiniStore(t)

	require.NoError(t, s.Put("a", []byte("1")))
	v, err := s.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	require.NoError(t, s.Update("a", []byte("2")))
	v, err = s.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)

	require.NoError(t, s.Delete("a"))
	_, err = s.Get("a")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// deleting an absent key is not an error
	require.NoError(t, s.Delete("a"))
}

func TestPrefixOperations(t *testing.T) {
	s := newMiniStore(t)
	for _, k := range []string{"p_batch_02", "p_batch_01", "p_batch_03", "other"} {
		require.NoError(t, s.Put(k, []byte(k)))
	}

	n, err := s.CountPrefix("p_batch_")
	require.NoError(t, err)
	require.Equal(t, 3, n)

	first, err := s.FirstPrefix("p_batch_")
	require.NoError(t, err)
	require.Equal(t, "p_batch_01", first.Key)

	entries, err := s.ListPrefix("p_batch_", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "p_batch_01", entries[0].Key)
	require.Equal(t, "p_batch_02", entries[1].Key)

	_, err = s.FirstPrefix("missing_")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIndexTracksDeletes(t *testing.T) {
	s := newMiniStore(t)
	require.NoError(t, s.Put("x_1", []byte("v")))
	require.NoError(t, s.Put("x_2", []byte("v")))
	require.NoError(t, s.Delete("x_1"))

	n, err := s.CountPrefix("x_")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	first, err := s.FirstPrefix("x_")
	require.NoError(t, err)
	require.Equal(t, "x_2", first.Key)
}
