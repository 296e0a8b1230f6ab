package logging

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-rt/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, Level("debug").Level())
	assert.Equal(t, zapcore.WarnLevel, Level("WARN").Level())
	assert.Equal(t, zapcore.ErrorLevel, Level("error").Level())
	assert.Equal(t, zapcore.InfoLevel, Level("verbose").Level())
}

func TestNew(t *testing.T) {
	for _, enc := range []string{"json", "console", ""} {
		logger, err := New(config.Logging{Level: "warn", Encoding: enc})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	}
}
