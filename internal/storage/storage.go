// Package storage defines the durable key/value contract the batch queue
// runs against, and errors shared by its backends.
//
// Keys are opaque strings ordered lexicographically; the queue relies on
// prefix scans returning keys in ascending order. Backends must be atomic at
// single-key granularity; no multi-key transactions are assumed.
package storage

import "errors"

// ErrNotFound is returned by Get and FirstPrefix when no entry matches.
var ErrNotFound = errors.New("storage: not found")

// Entry is one key/value pair returned from a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the durable mapping the queue persists batches, group metadata,
// and the process lock into.
type Store interface {
	// Put writes key to value, creating or replacing it.
	Put(key string, value []byte) error

	// Get returns the value for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Update replaces the value for an existing key. Backends may treat it
	// as Put; it exists so intent is visible at call sites.
	Update(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// CountPrefix returns the number of keys with the given prefix.
	CountPrefix(prefix string) (int, error)

	// FirstPrefix returns the lexicographically smallest entry with the
	// given prefix, or ErrNotFound.
	FirstPrefix(prefix string) (Entry, error)

	// ListPrefix returns up to limit entries with the given prefix in
	// ascending key order. limit <= 0 means no limit.
	ListPrefix(prefix string, limit int) ([]Entry, error)

	// Close releases backend resources.
	Close() error
}
