package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/engine/renderer"
	"github.com/Carmen-Shannon/oxy-rt/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-rt/engine/texture"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/Carmen-Shannon/oxy-rt/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) (renderer.Renderer, *backendtest.Backend) {
	t.Helper()
	b := backendtest.New()
	r, err := renderer.NewRenderer(b, renderer.WithPreload(nil))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r, b
}

func drawTriangle(r renderer.Renderer) {
	r.SelectProgram(1)
	if err := r.DrawTrianglesPersp(make([]float32, 30), 1, mgl32.Ident4(), false); err != nil {
		panic(err)
	}
}

func TestTickRecordsFrame(t *testing.T) {
	r, _ := newTestRenderer(t)
	e := NewEngine(r, WithPacer(timing.NewPacer(timing.NewFakeClock(time.Unix(0, 0), time.Millisecond)))).(*engine)
	var dts []float32
	e.SetTickCallback(func(dt float32) { dts = append(dts, dt) })
	e.SetDrawCallback(drawTriangle)

	e.tick()
	require.NoError(t, r.Present(true))
	assert.Equal(t, 1, r.Stats().Instances)
	assert.Equal(t, uint64(1), e.Ticks())
	require.Len(t, dts, 1)
	assert.InDelta(t, 1.0/30, dts[0], 1e-6)
}

func TestTickSkipsDroppedFrame(t *testing.T) {
	r, _ := newTestRenderer(t)
	clock := timing.NewFakeClock(time.Unix(0, 0), time.Millisecond)
	pacer := timing.NewPacer(clock)
	e := NewEngine(r, WithPacer(pacer)).(*engine)
	draws := 0
	e.SetDrawCallback(func(r renderer.Renderer) { draws++ })
	logic := 0
	e.SetTickCallback(func(float32) { logic++ })

	clock.Advance(50 * time.Millisecond)
	pacer.Wait()
	e.tick()
	assert.Equal(t, 0, draws)
	assert.Equal(t, 1, logic)
	assert.Equal(t, uint64(1), e.DroppedFrames())

	e.tick()
	assert.Equal(t, 1, draws)
	assert.Equal(t, 2, logic)
}

func TestControls(t *testing.T) {
	r, _ := newTestRenderer(t)
	picked := texture.NameHash("picked")
	e := NewEngine(r,
		WithPacer(timing.NewPacer(timing.NewFakeClock(time.Unix(0, 0), time.Millisecond))),
		WithPicker(func(x, y int32) (texture.Hash, bool) { return picked, true }),
	).(*engine)
	c := e.controls()

	c.KeyDown(window.KeyPause)
	assert.True(t, e.Pacer().Paused())
	c.KeyDown(window.KeyTurbo)
	assert.True(t, e.Pacer().Turbo())
	assert.Equal(t, "paused, turbo", pacerStatus(e.Pacer().Paused(), e.Pacer().Turbo()))
	c.KeyDown(window.KeyPause)
	assert.Equal(t, "turbo", pacerStatus(e.Pacer().Paused(), e.Pacer().Turbo()))

	c.PickStart(10, 10)
	assert.Equal(t, picked, r.PickedTexture())
	c.PickEnd(10, 10)
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	r, b := newTestRenderer(t)
	e := NewEngine(r,
		WithPacer(timing.NewPacer(nil, timing.WithTickRate(500))),
		WithRenderFrameLimit(1000),
	)
	e.SetDrawCallback(drawTriangle)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run()
	}()
	require.Eventually(t, func() bool { return e.Ticks() >= 5 }, 5*time.Second, time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Positive(t, b.Draws)
	assert.Equal(t, 1, r.Stats().Instances)
}
