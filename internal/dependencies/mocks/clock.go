package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/chessduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Timers only fire when Advance moves the clock past their deadline,
// and they fire synchronously on the goroutine calling Advance.
type MockClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*mockTimer
	nextSeq int
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	seq      int
	fn       func()
	done     bool
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set sets the clock to the given time without firing timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// AfterFunc registers f to run once the clock has advanced by d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSeq++
	t := &mockTimer{
		clock:    c,
		deadline: c.now.Add(d),
		seq:      c.nextSeq,
		fn:       f,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward and fires every timer that is now due,
// in deadline order
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.popDue()
		if t == nil {
			return
		}
		t.fn()
	}
}

// PendingTimers returns the number of timers that have neither fired nor been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// popDue removes and returns the earliest due timer, or nil
func (c *MockClock) popDue() *mockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})

	if len(c.timers) == 0 || c.timers[0].deadline.After(c.now) {
		return nil
	}
	t := c.timers[0]
	c.timers = c.timers[1:]
	t.done = true
	return t
}

// Stop removes the timer if it has not fired yet
func (t *mockTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}
	return true
}
