package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProfiler(
		WithLogger(zap.New(core)),
		WithInterval(time.Second),
		WithStats(func() []zap.Field { return []zap.Field{zap.Int("instances", 7)} }),
	)
	start := p.lastTime

	assert.False(t, p.tick(start.Add(100*time.Millisecond)))
	assert.False(t, p.tick(start.Add(600*time.Millisecond)))
	assert.True(t, p.tick(start.Add(time.Second)))
	require.Equal(t, 1, logs.Len())

	ctx := logs.All()[0].ContextMap()
	assert.InDelta(t, 3.0, ctx["fps"], 1e-9)
	assert.Equal(t, 500*time.Millisecond, ctx["slowest_frame"])
	assert.Equal(t, int64(7), ctx["instances"])

	assert.False(t, p.tick(start.Add(1100*time.Millisecond)))
}
