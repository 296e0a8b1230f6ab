package frame

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-rt/common"
	"github.com/Carmen-Shannon/oxy-rt/engine/metrics"
	"github.com/Carmen-Shannon/oxy-rt/engine/timing"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func instance(dl, ord uint32, x float32) Instance {
	inst := Instance{Key: Key{DisplayList: dl, Ordinal: ord}, Interpolate: true}
	inst.Desc.Transform = mgl32.Translate3D(x, 0, 0)
	inst.Desc.Viewport = common.Rect{W: int32(x * 10), H: 100}
	return inst
}

func TestPipelinePublishAndLatest(t *testing.T) {
	clock := timing.NewFakeClock(epoch, 0)
	p := NewPipeline(clock)

	older, newer, release := p.Latest()
	assert.Nil(t, older)
	assert.Nil(t, newer)
	release()

	a := p.Acquire()
	a.Add(instance(0, 0, 1))
	p.Publish(a)
	clock.Advance(time.Millisecond)
	b := p.Acquire()
	p.Publish(b)

	older, newer, release = p.Latest()
	defer release()
	assert.Same(t, a, older)
	assert.Same(t, b, newer)
	assert.Equal(t, uint64(2), newer.Seq)
	assert.Equal(t, epoch.Add(time.Millisecond), newer.PublishedAt)
}

func TestPipelineCountsDroppedFrames(t *testing.T) {
	p := NewPipeline(timing.NewFakeClock(epoch, 0))
	dropped := testutil.ToFloat64(metrics.Frames.WithLabelValues("dropped"))

	p.Publish(p.Acquire())
	p.Publish(p.Acquire())
	p.Publish(p.Acquire())
	assert.Equal(t, dropped+2, testutil.ToFloat64(metrics.Frames.WithLabelValues("dropped")))

	_, _, release := p.Latest()
	release()
	p.Publish(p.Acquire())
	assert.Equal(t, dropped+2, testutil.ToFloat64(metrics.Frames.WithLabelValues("dropped")))
}

func TestPipelineNeverBlocksWhilePinned(t *testing.T) {
	p := NewPipeline(timing.NewFakeClock(epoch, 0))
	p.Publish(p.Acquire())
	p.Publish(p.Acquire())

	older, newer, release := p.Latest()
	for i := 0; i < 4; i++ {
		f := p.Acquire()
		assert.NotSame(t, older, f)
		assert.NotSame(t, newer, f)
		p.Publish(f)
	}
	assert.Greater(t, p.Frames(), DefaultSlots)
	release()

	total := p.Frames()
	for i := 0; i < 10; i++ {
		p.Publish(p.Acquire())
	}
	assert.Equal(t, total, p.Frames())
}

func TestPipelineGrowthIsBoundedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPipeline(timing.NewFakeClock(epoch, 0), WithLogger(zap.New(core)))
	p.Publish(p.Acquire())
	p.Publish(p.Acquire())

	_, _, release := p.Latest()
	for i := 0; i < 10; i++ {
		p.Publish(p.Acquire())
	}
	release()

	assert.Equal(t, 5, p.Frames())
	assert.Equal(t, 2, logs.FilterMessage("frame pool grown").Len())
}

func TestOldestLiveSeq(t *testing.T) {
	p := NewPipeline(timing.NewFakeClock(epoch, 0))
	_, ok := p.OldestLiveSeq()
	assert.False(t, ok)

	p.Publish(p.Acquire())
	seq, ok := p.OldestLiveSeq()
	require.True(t, ok)
	assert.Equal(t, uint64(1), seq)

	p.Publish(p.Acquire())
	_, _, release := p.Latest()
	p.Publish(p.Acquire())
	p.Publish(p.Acquire())

	// Frames 1 and 2 are pinned even though 3 and 4 replaced them.
	seq, _ = p.OldestLiveSeq()
	assert.Equal(t, uint64(1), seq)

	release()
	seq, _ = p.OldestLiveSeq()
	assert.Equal(t, uint64(3), seq)

	// The frame being written is not live.
	p.Acquire()
	seq, _ = p.OldestLiveSeq()
	assert.Equal(t, uint64(3), seq)
}

func TestFactor(t *testing.T) {
	f := &Frame{PublishedAt: epoch}
	tick := 100 * time.Millisecond
	assert.Equal(t, float32(0), Factor(f, epoch.Add(-time.Second), tick))
	assert.InDelta(t, 0.5, Factor(f, epoch.Add(50*time.Millisecond), tick), 1e-6)
	assert.Equal(t, float32(1), Factor(f, epoch.Add(time.Second), tick))
	assert.Equal(t, float32(1), Factor(nil, epoch, tick))
}

func TestBlendBoundaries(t *testing.T) {
	older := &Frame{}
	older.Reset()
	older.Add(instance(1, 0, 0))
	older.Camera.FovRadians = 0.5

	newer := &Frame{Seq: 2}
	newer.Reset()
	newer.Add(instance(1, 0, 10))
	newer.Add(instance(1, 1, 20))
	newer.Camera.FovRadians = 1.5

	ip := NewInterpolator()

	res := ip.Blend(older, newer, 0)
	assert.Equal(t, mgl32.Translate3D(0, 0, 0), res.Instances[0].Desc.Transform)
	assert.Equal(t, mgl32.Translate3D(20, 0, 0), res.Instances[1].Desc.Transform)
	assert.Equal(t, float32(0.5), res.Camera.FovRadians)

	res = ip.Blend(older, newer, 1)
	assert.Equal(t, mgl32.Translate3D(10, 0, 0), res.Instances[0].Desc.Transform)

	res = ip.Blend(older, newer, 0.5)
	assert.InDelta(t, 5, res.Instances[0].Desc.Transform.Col(3).X(), 1e-5)
	assert.Equal(t, int32(50), res.Instances[0].Desc.Viewport.W)
	assert.Equal(t, float32(1), res.Camera.FovRadians)
	assert.Equal(t, uint64(2), res.Seq)
}

func TestBlendRespectsOptOut(t *testing.T) {
	older := &Frame{}
	older.Reset()
	older.Add(instance(0, 0, 0))
	newer := &Frame{}
	newer.Reset()
	inst := instance(0, 0, 10)
	inst.Interpolate = false
	newer.Add(inst)

	res := NewInterpolator().Blend(older, newer, 0.5)
	assert.Equal(t, mgl32.Translate3D(10, 0, 0), res.Instances[0].Desc.Transform)
}

func TestBlendWithoutOlderSnaps(t *testing.T) {
	newer := &Frame{}
	newer.Reset()
	newer.Add(instance(0, 0, 3))
	res := NewInterpolator().Blend(nil, newer, 0.2)
	assert.Equal(t, float32(1), res.Factor)
	assert.Equal(t, mgl32.Translate3D(3, 0, 0), res.Instances[0].Desc.Transform)
}

func TestBlendParallelMatchesSerial(t *testing.T) {
	older := &Frame{}
	older.Reset()
	newer := &Frame{}
	newer.Reset()
	for dl := uint32(0); dl < 8; dl++ {
		for ord := uint32(0); ord < 64; ord++ {
			older.Add(instance(dl, ord, float32(ord)))
			newer.Add(instance(dl, ord, float32(ord)+2))
		}
	}
	require.GreaterOrEqual(t, len(newer.Instances), minParallelInstances)

	res := NewInterpolator(WithWorkers(3)).Blend(older, newer, 0.5)
	require.Len(t, res.Instances, len(newer.Instances))
	for i, inst := range res.Instances {
		want := BlendInstance(older.Instances[i], newer.Instances[i], 0.5)
		assert.Equal(t, want.Desc.Transform, inst.Desc.Transform, "instance %d", i)
	}
}
