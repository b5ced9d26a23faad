package batchqueue

import (
	"testing"
	"time"

	pebblestore "github.com/duckdev/wp-queue-process/internal/storage/pebble"
)

func testLock(t *testing.T) *ProcessLock {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewProcessLock(db, "test")
}

func TestLockAcquireReleaseCycle(t *testing.T) {
	l := testLock(t)

	held, err := l.IsHeld()
	if err != nil || held {
		t.Fatalf("fresh lock held=%v err=%v", held, err)
	}
	ok, err := l.TryAcquire(time.Minute)
	if err != nil || !ok {
		t.Fatalf("acquire ok=%v err=%v", ok, err)
	}
	held, err = l.IsHeld()
	if err != nil || !held {
		t.Fatalf("held=%v err=%v after acquire", held, err)
	}
	ok, err = l.TryAcquire(time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire should fail, ok=%v err=%v", ok, err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, err = l.TryAcquire(time.Minute)
	if err != nil || !ok {
		t.Fatalf("re-acquire after release ok=%v err=%v", ok, err)
	}
}

func TestLockExpires(t *testing.T) {
	l := testLock(t)
	clock := time.Now()
	l.now = func() time.Time { return clock }

	if ok, _ := l.TryAcquire(30 * time.Second); !ok {
		t.Fatalf("acquire")
	}
	clock = clock.Add(29 * time.Second)
	if held, _ := l.IsHeld(); !held {
		t.Fatalf("lock gave up before ttl")
	}
	clock = clock.Add(2 * time.Second)
	if held, _ := l.IsHeld(); held {
		t.Fatalf("lock survived past ttl")
	}
	// a new invocation steals the expired lock
	if ok, _ := l.TryAcquire(30 * time.Second); !ok {
		t.Fatalf("expired lock not stealable")
	}
}

func TestLockCorruptRecordCountsAsFree(t *testing.T) {
	l := testLock(t)
	if err := l.store.Put(l.key, []byte("not-a-timestamp")); err != nil {
		t.Fatalf("put: %v", err)
	}
	held, err := l.IsHeld()
	if err != nil || held {
		t.Fatalf("corrupt lock held=%v err=%v", held, err)
	}
}
