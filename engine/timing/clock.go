// Package timing paces the fixed-rate simulation loop. Time is read through a Clock so tests can drive the
// pacer without sleeping.
package timing

import (
	"runtime"
	"sync"
	"time"
)

// Clock is the time source used by the pacer and the frame pipeline.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for roughly d.
	Sleep(d time.Duration)

	// Yield is called on every iteration of a busy wait.
	Yield()
}

// RealClock reads the wall clock.
type RealClock struct{}

var _ Clock = RealClock{}

func (RealClock) Now() time.Time        { return time.Now() }
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
func (RealClock) Yield()                { runtime.Gosched() }

// FakeClock is a manually advanced clock. Sleep advances it by the requested duration and Yield advances it
// by Step, so busy waits terminate.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
	yields int
}

var _ Clock = (*FakeClock)(nil)

// NewFakeClock creates a fake clock at start that advances by step on each Yield.
func NewFakeClock(start time.Time, step time.Duration) *FakeClock {
	if step <= 0 {
		step = time.Microsecond
	}
	return &FakeClock{now: start, step: step}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

func (c *FakeClock) Yield() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yields++
	c.now = c.now.Add(c.step)
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Sleeps returns every duration passed to Sleep.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Yields returns the number of Yield calls.
func (c *FakeClock) Yields() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yields
}
