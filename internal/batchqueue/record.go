package batchqueue

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Item is one queue entry inside a batch. The sub-key is assigned at save
// time and preserved across requeue, so a retried item keeps its position.
type Item struct {
	Key  string `json:"key"`
	Data []byte `json:"data"`
}

// Record is the serialized form of a batch: its items in stored order.
// Payloads are opaque; only the task handler interprets them.
type Record struct {
	Items []Item `json:"items"`
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(r Record) ([]byte, error) {
	return sonic.Marshal(r)
}

// DecodeRecord deserializes a stored batch.
func DecodeRecord(b []byte) (Record, error) {
	var r Record
	if err := sonic.Unmarshal(b, &r); err != nil {
		return Record{}, fmt.Errorf("decode batch record: %w", err)
	}
	return r, nil
}

// newRecord builds a record from raw items, assigning positional sub-keys.
func newRecord(items [][]byte) Record {
	r := Record{Items: make([]Item, 0, len(items))}
	for i, data := range items {
		r.Items = append(r.Items, Item{
			Key:  fmt.Sprintf("%s%04d", defaultItemPrefix, i),
			Data: data,
		})
	}
	return r
}
