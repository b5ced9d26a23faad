package id

import (
	"strings"
	"testing"
)

func TestNextIsSortable(t *testing.T) {
	g := NewGenerator()
	prev := g.Next()
	for i := 0; i < 1000; i++ {
		cur := g.Next()
		if cur.Compare(prev) <= 0 {
			t.Fatalf("id %s not greater than %s", cur, prev)
		}
		if strings.Compare(cur.String(), prev.String()) <= 0 {
			t.Fatalf("hex form not sortable: %s <= %s", cur, prev)
		}
		prev = cur
	}
}

func TestClockRegression(t *testing.T) {
	g := NewGenerator()
	orig := NowMs
	defer func() { NowMs = orig }()

	now := int64(10_000)
	NowMs = func() int64 { return now }
	a := g.Next()
	now = 9_000 // clock goes backwards
	b := g.Next()
	if b.Compare(a) <= 0 {
		t.Fatalf("expected monotonic ids across clock regression")
	}
}

func TestStringLength(t *testing.T) {
	g := NewGenerator()
	if got := len(g.Next().String()); got != 32 {
		t.Fatalf("want 32 hex chars, got %d", got)
	}
}
