// Package id provides a 128-bit, lexicographically sortable identifier.
//
// # Format
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][4 bytes sequence]
// [4 bytes entropy]. Byte-wise comparison (and comparison of the hex string
// form) preserves chronological order, so store keys derived from IDs scan
// oldest-first. The entropy tail keeps IDs from colliding when several
// processes share a store.
//
// # Monotonicity
//
// The Generator ensures per-process monotonicity: if the system clock
// regresses it pins to the last seen millisecond and increments the sequence
// instead of going backwards.
//
// Usage
//
//	g := id.NewGenerator()
//	newID := g.Next()
//	s := newID.String() // 32-char hex, sortable
package id
