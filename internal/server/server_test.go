package server

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"blendermcp/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Telemetry.DatabasePath = filepath.Join(t.TempDir(), "telemetry.db")
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blender.Port = -1

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewWiresDefaults(t *testing.T) {
	cfg := testConfig(t)

	srv, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, srv.mcp)
	require.NotNil(t, srv.conn)
	require.NotNil(t, srv.rec)
	srv.shutdown()
}

func TestNewWithTelemetryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.Enabled = false

	srv, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, srv.rec)
	srv.shutdown()
}

func TestBuildHealer(t *testing.T) {
	cfg := testConfig(t)
	log := zap.NewNop()

	cfg.Heal.Enabled = false
	assert.Nil(t, buildHealer(cfg, log))

	cfg.Heal.Enabled = true
	cfg.LLM.APIKey = ""
	assert.Nil(t, buildHealer(cfg, log))

	cfg.LLM.APIKey = "test-key"
	assert.NotNil(t, buildHealer(cfg, log))
}
