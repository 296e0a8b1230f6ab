package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestWaitSleepsThenBusyWaits(t *testing.T) {
	clock := NewFakeClock(epoch, 100*time.Microsecond)
	p := NewPacer(clock)

	clock.Advance(10 * time.Millisecond)
	p.Wait()

	require.Equal(t, []time.Duration{22 * time.Millisecond}, clock.Sleeps())
	assert.Positive(t, clock.Yields())
	assert.GreaterOrEqual(t, clock.Now().Sub(epoch), p.TickDuration())
	assert.Less(t, clock.Now().Sub(epoch), p.TickDuration()+time.Millisecond)
	assert.False(t, p.ShouldDrop())
}

func TestWaitOverrunMarksDrop(t *testing.T) {
	clock := NewFakeClock(epoch, 100*time.Microsecond)
	p := NewPacer(clock)

	clock.Advance(40 * time.Millisecond)
	assert.Zero(t, p.Wait())
	assert.Empty(t, clock.Sleeps())
	assert.Zero(t, clock.Yields())

	assert.True(t, p.ShouldDrop())
	assert.False(t, p.ShouldDrop())
}

func TestNextTickStartsAtPreviousBoundary(t *testing.T) {
	clock := NewFakeClock(epoch, 100*time.Microsecond)
	p := NewPacer(clock, WithTickRate(10), WithSleepMargin(0))

	p.Wait()
	first := clock.Now()
	p.Wait()
	assert.GreaterOrEqual(t, clock.Now().Sub(first), 100*time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, clock.Sleeps())
}

func TestTurboSkipsPacing(t *testing.T) {
	clock := NewFakeClock(epoch, time.Microsecond)
	p := NewPacer(clock)

	assert.True(t, p.ToggleTurbo())
	assert.Zero(t, p.Wait())
	assert.Empty(t, clock.Sleeps())

	clock.Advance(time.Second)
	assert.False(t, p.ToggleTurbo())
	p.Wait()
	require.Len(t, clock.Sleeps(), 1)
	assert.False(t, p.ShouldDrop())
}

func TestTogglePause(t *testing.T) {
	p := NewPacer(NewFakeClock(epoch, 0))
	assert.False(t, p.Paused())
	assert.True(t, p.TogglePause())
	assert.True(t, p.Paused())
	assert.False(t, p.TogglePause())
}
