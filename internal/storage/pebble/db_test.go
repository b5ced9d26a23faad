package pebblestore

import (
	"errors"
	"testing"

	"github.com/duckdev/wp-queue-process/internal/storage"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Options{DataDir: t.TempDir(), Fsync: FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGetDelete(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put("a", []byte("1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, err := db.Get("a")
	if err != nil || string(v) != "1" {
		t.Fatalf("get: %v %q", err, v)
	}
	if err := db.Update("a", []byte("2")); err != nil {
		t.Fatalf("update: %v", err)
	}
	v, _ = db.Get("a")
	if string(v) != "2" {
		t.Fatalf("update not applied: %q", v)
	}
	if err := db.Delete("a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get("a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	// deleting absent key is not an error
	if err := db.Delete("a"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestPrefixScanOrdering(t *testing.T) {
	db := openTestDB(t)
	for _, k := range []string{"q_batch_03", "q_batch_01", "q_batch_02", "other"} {
		if err := db.Put(k, []byte(k)); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}

	n, err := db.CountPrefix("q_batch_")
	if err != nil || n != 3 {
		t.Fatalf("count: %d %v", n, err)
	}

	first, err := db.FirstPrefix("q_batch_")
	if err != nil || first.Key != "q_batch_01" {
		t.Fatalf("first: %+v %v", first, err)
	}

	entries, err := db.ListPrefix("q_batch_", 2)
	if err != nil || len(entries) != 2 {
		t.Fatalf("list: %v %v", entries, err)
	}
	if entries[0].Key != "q_batch_01" || entries[1].Key != "q_batch_02" {
		t.Fatalf("wrong order: %+v", entries)
	}

	if _, err := db.FirstPrefix("missing_"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
