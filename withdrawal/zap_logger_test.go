package withdrawal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("Delivered %s to %s", "a.json", "alice")
	logger.WithField("file", "b.json").Warn("Invalid request file")
	child := logger.WithFields(map[string]interface{}{"a": 1}).WithField("b", 2)
	child.Error("boom")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "Delivered a.json to alice", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "b.json", entries[1].ContextMap()["file"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)

	assert.Equal(t, map[string]interface{}{"a": 1, "b": 2}, child.Fields())
	assert.Empty(t, logger.Fields())
}
