package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetNewNop(t *testing.T) {
	SetNewNop()
	require.NotNil(t, Log)
	assert.NotPanics(t, func() {
		Log.Info("info")
		Log.Debug("debug")
		Log.Warn("warn")
		Log.Error("error")
	})
}

func TestInitialize(t *testing.T) {
	dir := t.TempDir()
	l := Initialize("chat_service", dir)
	l.Info("hello")
	l.Sync()

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".log", filepath.Ext(files[0].Name()))
}

func TestDebugMode(t *testing.T) {
	l := newNop()
	assert.False(t, l.DebugMode())

	l.EnableDebugMode()
	assert.True(t, l.DebugMode())

	l.DisableDebugMode()
	assert.False(t, l.DebugMode())

	l.SetDebugMode(true)
	assert.True(t, l.DebugMode())
}
