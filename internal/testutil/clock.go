// Package testutil holds deterministic time and id sources for tests and
// scenarios.
package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall-clock start used by tests that don't care about dates.
var Epoch = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)

// StepClock is a wall clock that moves forward by a fixed step on every
// reading. Two runs of the same scenario see identical timestamps.
//
// Thread-safety: all methods are safe for concurrent use.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock returns a clock whose first reading is start. A zero start
// uses Epoch.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if start.IsZero() {
		start = Epoch
	}
	return &StepClock{now: start, step: step}
}

// Now returns the current reading and then advances the clock by its step.
// Its signature matches the now funcs the planner and engine take.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the next reading without advancing.
func (c *StepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *StepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *StepClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
