package testutil

import (
	"sync"
	"time"
)

// StepClock is a manually advanced clock. Pass Now wherever a component
// accepts a time source so elapsed-time limits can be tested without sleeping.
type StepClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStepClock starts at start, or at a fixed date when start is zero.
func NewStepClock(start time.Time) *StepClock {
	if start.IsZero() {
		start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return &StepClock{now: start}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *StepClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
