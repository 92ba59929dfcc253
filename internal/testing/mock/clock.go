package mock

import (
	"sync"
	"time"
)

// StepClock is a manually driven time source for expiry tests. Pass its Now
// method wherever a func() time.Time is accepted.
type StepClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewStepClock returns a clock frozen at start.
func NewStepClock(start time.Time) *StepClock {
	return &StepClock{now: start}
}

func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
