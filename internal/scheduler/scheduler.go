// Package scheduler provides a small in-process interval scheduler used for
// the queue health check. Each registration runs its callback on a fixed
// period in its own goroutine until unregistered.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler invokes registered callbacks on fixed wall-clock intervals.
type Scheduler interface {
	// Register schedules callback every period under id. Registering an
	// id that already exists is a no-op.
	Register(id string, period time.Duration, callback func())

	// Unregister stops and removes the schedule for id, if present.
	Unregister(id string)

	// IsRegistered reports whether a schedule exists for id.
	IsRegistered(id string) bool

	// Close stops all schedules.
	Close()
}

type entry struct {
	stop chan struct{}
}

// Interval is the default Scheduler implementation.
type Interval struct {
	mu      sync.Mutex
	entries map[string]*entry
	wg      sync.WaitGroup
}

// NewInterval creates an empty Interval scheduler.
func NewInterval() *Interval {
	return &Interval{entries: make(map[string]*entry)}
}

// Register schedules callback every period under id.
func (s *Interval) Register(id string, period time.Duration, callback func()) {
	if period <= 0 {
		period = time.Minute
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return
	}
	e := &entry{stop: make(chan struct{})}
	s.entries[id] = e
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-e.stop:
				return
			case <-ticker.C:
				callback()
			}
		}
	}()
}

// Unregister stops and removes the schedule for id.
func (s *Interval) Unregister(id string) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if ok {
		close(e.stop)
	}
}

// IsRegistered reports whether a schedule exists for id.
func (s *Interval) IsRegistered(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Close stops all schedules and waits for their goroutines to exit.
func (s *Interval) Close() {
	s.mu.Lock()
	for id, e := range s.entries {
		close(e.stop)
		delete(s.entries, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
