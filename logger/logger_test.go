package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevel(t *testing.T) {
	log, err := New("warn")
	require.NoError(t, err)
	assert.False(t, log.Desugar().Core().Enabled(zap.InfoLevel))
	assert.True(t, log.Desugar().Core().Enabled(zap.WarnLevel))

	log, err = New("")
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zap.InfoLevel))

	_, err = New("chatty")
	assert.Error(t, err)
}

func TestNewTestLogger(t *testing.T) {
	log, logs := NewTestLogger()
	log.Debugw("hidden")
	log.Infow("analysis complete", "findings", 2)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "analysis complete", entry.Message)
	assert.EqualValues(t, 2, entry.ContextMap()["findings"])
}
