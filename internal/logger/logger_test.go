package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHelpers_WriteToInstalledLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(zap.NewNop())

	Infow("mode selected", "mode", "degraded")
	Warnw("backend unavailable", "reason", "timeout")
	Error("generation failed", errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "mode selected", entries[0].Message)
	assert.Equal(t, "degraded", entries[0].ContextMap()["mode"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])
}

func TestInit_DiscardOutput(t *testing.T) {
	defer Set(zap.NewNop())
	require.NoError(t, Init("debug", "console", "-"))
	Info("nothing to see")
}

func TestInit_FileOutput(t *testing.T) {
	defer Set(zap.NewNop())
	dir := t.TempDir()
	require.NoError(t, Init("bogus-level", "json", dir))
	Infof("hello %s", "file")
	Sync()
	assert.FileExists(t, dir+"/twin.log")
}
