package timing

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTickRate    = 30
	DefaultSleepMargin = 500 * time.Microsecond
)

// Pacer holds the simulation to a fixed tick rate. After each tick it sleeps in whole milliseconds while
// more than the sleep margin remains, then busy-waits to the tick boundary.
//
// Pause and turbo may be toggled from any goroutine; Wait and ShouldDrop belong to the simulation goroutine.
type Pacer struct {
	clock  Clock
	budget time.Duration
	margin time.Duration
	logger *zap.Logger

	start time.Time

	paused   atomic.Bool
	turbo    atomic.Bool
	dropNext atomic.Bool
	restart  atomic.Bool
}

// PacerBuilderOption configures a Pacer.
type PacerBuilderOption func(*Pacer)

// WithTickRate sets the number of simulation ticks per second.
func WithTickRate(hz int) PacerBuilderOption {
	return func(p *Pacer) {
		if hz > 0 {
			p.budget = time.Second / time.Duration(hz)
		}
	}
}

// WithSleepMargin sets how much of the remaining tick is left to the busy wait.
func WithSleepMargin(d time.Duration) PacerBuilderOption {
	return func(p *Pacer) {
		if d >= 0 {
			p.margin = d
		}
	}
}

// WithLogger sets the pacer's logger.
func WithLogger(logger *zap.Logger) PacerBuilderOption {
	return func(p *Pacer) {
		p.logger = logger
	}
}

// NewPacer creates a pacer whose first tick starts now.
//
// Parameters:
//   - clock: the time source; nil uses RealClock
//   - opts: builder options
//
// Returns:
//   - *Pacer: the pacer
func NewPacer(clock Clock, opts ...PacerBuilderOption) *Pacer {
	if clock == nil {
		clock = RealClock{}
	}
	p := &Pacer{
		clock:  clock,
		budget: time.Second / DefaultTickRate,
		margin: DefaultSleepMargin,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.start = clock.Now()
	return p
}

// TickDuration returns the length of one simulation tick.
func (p *Pacer) TickDuration() time.Duration {
	return p.budget
}

// Clock returns the pacer's time source.
func (p *Pacer) Clock() Clock {
	return p.clock
}

// Wait blocks until the current tick's budget has elapsed, then starts the next tick. In turbo mode it
// returns immediately. If the tick had already overrun its budget the next render is marked droppable.
//
// Returns:
//   - time.Duration: the time spent waiting
func (p *Pacer) Wait() time.Duration {
	if p.turbo.Load() {
		return 0
	}
	begin := p.clock.Now()
	if p.restart.Swap(false) {
		p.start = begin
	}
	cycles := 0

	budgetUs := p.budget.Microseconds()
	elapsedUs := begin.Sub(p.start).Microseconds()
	sleepMs := (budgetUs - elapsedUs - p.margin.Microseconds()) / 1000
	if sleepMs > 0 {
		p.clock.Sleep(time.Duration(sleepMs) * time.Millisecond)
		cycles++
	}

	var end time.Time
	for {
		end = p.clock.Now()
		cycles++
		if end.Sub(p.start) >= p.budget {
			break
		}
		p.clock.Yield()
	}

	p.start = end
	p.dropNext.Store(cycles == 1)
	return end.Sub(begin)
}

// ShouldDrop reports whether the next render should be skipped and clears the flag.
func (p *Pacer) ShouldDrop() bool {
	return p.dropNext.Swap(false)
}

// Paused reports whether simulation is paused.
func (p *Pacer) Paused() bool {
	return p.paused.Load()
}

// Turbo reports whether pacing is disabled.
func (p *Pacer) Turbo() bool {
	return p.turbo.Load()
}

// TogglePause flips pause mode and returns the new state.
func (p *Pacer) TogglePause() bool {
	on := !p.paused.Load()
	p.paused.Store(on)
	p.logger.Info("pause toggled", zap.Bool("paused", on))
	return on
}

// ToggleTurbo flips turbo mode and returns the new state. Leaving turbo restarts the tick clock so the
// first paced tick does not inherit the unpaced time.
func (p *Pacer) ToggleTurbo() bool {
	on := !p.turbo.Load()
	p.turbo.Store(on)
	if !on {
		p.restart.Store(true)
	}
	p.logger.Info("turbo toggled", zap.Bool("turbo", on))
	return on
}
