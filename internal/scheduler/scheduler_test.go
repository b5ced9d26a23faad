package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRegisterFiresCallback(t *testing.T) {
	s := NewInterval()
	defer s.Close()

	var ticks atomic.Int32
	s.Register("hc", 10*time.Millisecond, func() { ticks.Add(1) })
	if !s.IsRegistered("hc") {
		t.Fatalf("expected registration")
	}

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("callback never fired, ticks=%d", ticks.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	s := NewInterval()
	defer s.Close()

	var a, b atomic.Int32
	s.Register("x", 10*time.Millisecond, func() { a.Add(1) })
	s.Register("x", 10*time.Millisecond, func() { b.Add(1) })

	time.Sleep(50 * time.Millisecond)
	if b.Load() != 0 {
		t.Fatalf("second registration should be a no-op, fired %d times", b.Load())
	}
}

func TestUnregisterStops(t *testing.T) {
	s := NewInterval()
	defer s.Close()

	var ticks atomic.Int32
	s.Register("x", 10*time.Millisecond, func() { ticks.Add(1) })
	time.Sleep(30 * time.Millisecond)
	s.Unregister("x")
	if s.IsRegistered("x") {
		t.Fatalf("still registered after unregister")
	}
	n := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	if ticks.Load() != n {
		t.Fatalf("callback fired after unregister")
	}
	// unregistering again is harmless
	s.Unregister("x")
}
