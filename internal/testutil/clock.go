package testutil

import (
	"sync"
	"time"
)

// Epoch is the first time a FixedClock reports.
var Epoch = time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC)

// FixedClock is a deterministic wall clock for timestamp attributes in
// tests. Each call to Next advances it by a fixed step.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	now   time.Time
}

// NewFixedClock creates a clock at start that advances by step.
// A zero start means Epoch; a zero step means one second.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	if start.IsZero() {
		start = Epoch
	}
	if step == 0 {
		step = time.Second
	}
	return &FixedClock{start: start, step: step, now: start}
}

// Now returns the current time without advancing.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Next advances the clock by one step and returns the new time.
func (c *FixedClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

// Reset returns the clock to its start.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
