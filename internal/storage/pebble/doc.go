// Package pebblestore backs the storage.Store contract with Pebble,
// adding fsync policy and the ordered prefix-scan operations the batch
// queue relies on.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Put("k", []byte("v"))
//	v, _ := db.Get("k")
//	first, _ := db.FirstPrefix("k")
package pebblestore
