// Package redisstore backs the storage.Store contract with Redis.
//
// Values live at {prefix}:v:{key}. Because Redis has no ordered keyspace
// scan, every key is also registered in a lexicographic sorted set at
// {prefix}:index (all scores zero), which gives CountPrefix and FirstPrefix
// the same ascending-key semantics as the Pebble backend.
package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/duckdev/wp-queue-process/internal/storage"
)

// Options configures the Redis store.
type Options struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password is optional.
	Password string
	// DB selects the logical Redis database.
	DB int
	// KeyPrefix namespaces all store keys. Defaults to "wpq".
	KeyPrefix string
	// OpTimeout bounds each store operation. Defaults to 5s.
	OpTimeout time.Duration
}

// Store implements storage.Store over a Redis connection.
type Store struct {
	rdb     redis.UniversalClient
	prefix  string
	timeout time.Duration
	ownConn bool
}

var _ storage.Store = (*Store)(nil)

// Open connects to Redis and returns a Store.
func Open(opts Options) (*Store, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis: Options.Addr is required")
	}
	rdb := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	s := New(rdb, opts.KeyPrefix)
	s.ownConn = true
	if opts.OpTimeout > 0 {
		s.timeout = opts.OpTimeout
	}
	return s, nil
}

// New wraps an existing client. The caller keeps ownership of the client
// unless the store was built through Open.
func New(rdb redis.UniversalClient, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = "wpq"
	}
	return &Store{rdb: rdb, prefix: keyPrefix, timeout: 5 * time.Second}
}

// Close releases the connection when owned by the store.
func (s *Store) Close() error {
	if !s.ownConn {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Store) valueKey(key string) string { return s.prefix + ":v:" + key }
func (s *Store) indexKey() string           { return s.prefix + ":index" }

// Put writes key to value and registers it in the index.
func (s *Store) Put(key string, value []byte) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.valueKey(key), value, 0)
		p.ZAdd(ctx, s.indexKey(), redis.Z{Score: 0, Member: key})
		return nil
	})
	return err
}

// Get returns the value for key, or storage.ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	v, err := s.rdb.Get(ctx, s.valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	return v, err
}

// Update replaces the value for a key.
func (s *Store) Update(key string, value []byte) error {
	return s.Put(key, value)
}

// Delete removes key and its index entry.
func (s *Store) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.valueKey(key))
		p.ZRem(ctx, s.indexKey(), key)
		return nil
	})
	return err
}

// lexRange builds inclusive-min/exclusive-max bounds covering a prefix.
func lexRange(prefix string) (string, string) {
	return "[" + prefix, "(" + prefix + "\xff"
}

// CountPrefix returns the number of keys with the given prefix.
func (s *Store) CountPrefix(prefix string) (int, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	min, max := lexRange(prefix)
	n, err := s.rdb.ZLexCount(ctx, s.indexKey(), min, max).Result()
	return int(n), err
}

// FirstPrefix returns the smallest entry with the given prefix.
func (s *Store) FirstPrefix(prefix string) (storage.Entry, error) {
	entries, err := s.ListPrefix(prefix, 1)
	if err != nil {
		return storage.Entry{}, err
	}
	if len(entries) == 0 {
		return storage.Entry{}, storage.ErrNotFound
	}
	return entries[0], nil
}

// ListPrefix returns up to limit entries with the given prefix in ascending
// key order. Keys whose value vanished between the index read and the value
// read are skipped.
func (s *Store) ListPrefix(prefix string, limit int) ([]storage.Entry, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	min, max := lexRange(prefix)
	rng := &redis.ZRangeBy{Min: min, Max: max}
	if limit > 0 {
		rng.Count = int64(limit)
	}
	keys, err := s.rdb.ZRangeByLex(ctx, s.indexKey(), rng).Result()
	if err != nil {
		return nil, err
	}

	var entries []storage.Entry
	for _, k := range keys {
		v, err := s.rdb.Get(ctx, s.valueKey(k)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, storage.Entry{Key: k, Value: v})
	}
	return entries, nil
}
