package pebblestore

import (
	"errors"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/duckdev/wp-queue-process/internal/storage"
)

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a WAL fsync on each committed write.
	FsyncModeAlways
	// FsyncModeInterval enables group-commit by allowing Pebble to coalesce
	// WAL syncs for operations within the configured interval.
	FsyncModeInterval
	// FsyncModeNever avoids forcing WAL syncs from the application. Pebble
	// may still sync based on its own policies.
	FsyncModeNever
)

// Options configures the Pebble store wrapper.
type Options struct {
	// DataDir is the path to the Pebble database directory.
	DataDir string
	// Fsync determines when to sync the WAL.
	Fsync FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// PebbleOptions allows advanced tuning. If nil, sensible defaults are used.
	PebbleOptions *pebble.Options
	// Metrics allows observing read/write latencies and sizes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int) {}
func (NoopMetrics) ObserveRead(time.Duration, int)  {}

// DB wraps a Pebble database with fsync policy and the prefix-scan helpers
// the queue contract needs. It implements storage.Store.
type DB struct {
	inner     *pebble.DB
	writeSync bool
	metrics   MetricsHook
}

var _ storage.Store = (*DB)(nil)

// Open creates or opens a Pebble database with the provided options.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}

	switch opts.Fsync {
	case FsyncModeAlways:
		// Sync passed per write; WALMinSyncInterval left at default.
	case FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return opts.FsyncInterval }
	case FsyncModeNever:
	default:
		// Default to small group-commit for a reasonable latency/throughput tradeoff.
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &DB{
		inner:     inner,
		writeSync: opts.Fsync == FsyncModeAlways,
		metrics:   metrics,
	}, nil
}

// Close closes the Pebble database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

func (db *DB) writeOpts() *pebble.WriteOptions {
	if db.writeSync {
		return pebble.Sync
	}
	return pebble.NoSync
}

// Put writes key to value, creating or replacing it.
func (db *DB) Put(key string, value []byte) error {
	start := time.Now()
	err := db.inner.Set([]byte(key), value, db.writeOpts())
	db.metrics.ObserveWrite(time.Since(start), len(value))
	return err
}

// Get copies the value for the given key.
func (db *DB) Get(key string) ([]byte, error) {
	start := time.Now()
	val, closer, err := db.inner.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	db.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

// Update replaces the value for a key. Pebble sets are upserts already.
func (db *DB) Update(key string, value []byte) error {
	return db.Put(key, value)
}

// Delete removes a key. Deleting an absent key is a no-op.
func (db *DB) Delete(key string) error {
	return db.inner.Delete([]byte(key), db.writeOpts())
}

// CountPrefix returns the number of keys with the given prefix.
func (db *DB) CountPrefix(prefix string) (int, error) {
	lo, hi := keyRange(prefix)
	iter, err := db.inner.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		n++
	}
	return n, nil
}

// FirstPrefix returns the smallest entry with the given prefix.
func (db *DB) FirstPrefix(prefix string) (storage.Entry, error) {
	entries, err := db.ListPrefix(prefix, 1)
	if err != nil {
		return storage.Entry{}, err
	}
	if len(entries) == 0 {
		return storage.Entry{}, storage.ErrNotFound
	}
	return entries[0], nil
}

// ListPrefix returns up to limit entries with the given prefix in ascending
// key order.
func (db *DB) ListPrefix(prefix string, limit int) ([]storage.Entry, error) {
	lo, hi := keyRange(prefix)
	iter, err := db.inner.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []storage.Entry
	for ok := iter.First(); ok; ok = iter.Next() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		val, err := iter.ValueAndErr()
		if err != nil {
			return nil, err
		}
		entries = append(entries, storage.Entry{
			Key:   string(iter.Key()),
			Value: append([]byte(nil), val...),
		})
	}
	return entries, nil
}

// keyRange returns inclusive lower and exclusive upper bounds covering all
// keys with the given prefix.
func keyRange(prefix string) ([]byte, []byte) {
	lo := []byte(prefix)
	hi := make([]byte, len(lo)+1)
	copy(hi, lo)
	hi[len(lo)] = 0xFF
	return lo, hi
}
