package testutil

import (
	"sync"
	"time"
)

// DefaultStart is where a StepClock starts when no start time is given.
var DefaultStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultStep is how far a StepClock advances per reading when no step is given.
const DefaultStep = time.Minute

// StepClock is a deterministic wall clock for tests and scenarios.
//
// The first call to Now returns the start time; every later call returns
// the previous reading plus one step. Pass Now wherever a func() time.Time
// clock is accepted, e.g. blog.WithClock(clock.Now).
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type StepClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	ticks int64
}

// NewStepClock creates a clock starting at start and advancing by step.
// A zero start means DefaultStart and a non-positive step means DefaultStep.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if start.IsZero() {
		start = DefaultStart
	}
	if step <= 0 {
		step = DefaultStep
	}
	return &StepClock{start: start.UTC(), step: step}
}

// Now returns the next reading.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.ticks) * c.step)
	c.ticks++
	return t
}

// Ticks returns how many readings have been taken.
func (c *StepClock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Reset rewinds the clock so the next reading is the start time again.
func (c *StepClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = 0
}
