package clock

import (
	"sync"
	"time"
)

// Clock supplies timestamps. Room sessions stamp moves and activity through it
// so tests can control time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the wall clock. time.Now carries a monotonic reading, so
// durations between its values are safe against clock jumps.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }

// Manual is a clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
