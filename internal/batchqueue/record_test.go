package batchqueue

import (
	"bytes"
	"testing"
)

func TestRecordRoundTripPreservesOrder(t *testing.T) {
	rec := newRecord([][]byte{[]byte("first"), []byte("second"), []byte{0x00, 0xff}})
	data, err := EncodeRecord(rec)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeRecord(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 3 {
		t.Fatalf("items = %d", len(out.Items))
	}
	if out.Items[0].Key != "item_0000" || out.Items[2].Key != "item_0002" {
		t.Fatalf("sub-keys not positional: %+v", out.Items)
	}
	if !bytes.Equal(out.Items[2].Data, []byte{0x00, 0xff}) {
		t.Fatalf("binary payload mangled: %x", out.Items[2].Data)
	}
}

func TestDecodeRecordRejectsGarbage(t *testing.T) {
	if _, err := DecodeRecord([]byte("{not json")); err == nil {
		t.Fatalf("expected decode error")
	}
}
