package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"blendermcp/internal/config"
)

func TestNewDefaultsToInfo(t *testing.T) {
	log, err := New(config.LoggingConfig{}, false)
	require.NoError(t, err)
	defer log.Sync()

	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestNewVerboseForcesDebug(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "warn"}, true)
	require.NoError(t, err)
	defer log.Sync()

	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewHonorsConfiguredLevel(t *testing.T) {
	log, err := New(config.LoggingConfig{Level: "error"}, false)
	require.NoError(t, err)
	defer log.Sync()

	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"}, false)
	assert.Error(t, err)
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blendermcp.log")
	log, err := New(config.LoggingConfig{File: path}, false)
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())

	assert.FileExists(t, path)
}
