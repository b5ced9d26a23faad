package batchqueue

import (
	"errors"
	"strconv"
	"time"

	"github.com/duckdev/wp-queue-process/internal/storage"
)

// ProcessLock is the advisory, time-bound flag gating the processing loop.
// It is not a strict mutex: two invocations racing within the check-then-set
// window can both proceed, which the requeue-based batch consumption
// tolerates. The expiry acts as a crash safety net; a hung loop self-heals
// once the TTL lapses.
type ProcessLock struct {
	store storage.Store
	key   string
	now   func() time.Time
}

// NewProcessLock creates a lock for the given process identifier.
func NewProcessLock(store storage.Store, process string) *ProcessLock {
	return &ProcessLock{store: store, key: LockKey(process), now: time.Now}
}

// TryAcquire sets the lock with the given TTL unless an unexpired lock is
// already present. It returns whether the lock was taken.
func (l *ProcessLock) TryAcquire(ttl time.Duration) (bool, error) {
	held, err := l.IsHeld()
	if err != nil {
		return false, err
	}
	if held {
		return false, nil
	}
	expiry := l.now().Add(ttl).UnixMilli()
	if err := l.store.Put(l.key, []byte(strconv.FormatInt(expiry, 10))); err != nil {
		return false, err
	}
	return true, nil
}

// Release clears the lock immediately.
func (l *ProcessLock) Release() error {
	return l.store.Delete(l.key)
}

// IsHeld reports whether an unexpired lock is present. A corrupt or expired
// record counts as not held.
func (l *ProcessLock) IsHeld() (bool, error) {
	v, err := l.store.Get(l.key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	expiry, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return false, nil
	}
	return expiry > l.now().UnixMilli(), nil
}
