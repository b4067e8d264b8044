package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "telemetry.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestInstallIDPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.db")

	r1, err := Open(path, nil)
	require.NoError(t, err)
	id := r1.InstallID()
	require.NotEmpty(t, id)
	require.NoError(t, r1.Close())

	r2, err := Open(path, nil)
	require.NoError(t, err)
	defer r2.Close()

	assert.Equal(t, id, r2.InstallID())
}

func TestRecordAndSummarize(t *testing.T) {
	r := openTestRecorder(t)
	ctx := context.Background()

	r.RecordStartup(ctx)
	r.RecordStartup(ctx)
	r.RecordTool(ctx, "get_scene_info", true, 20*time.Millisecond)
	r.RecordTool(ctx, "get_scene_info", true, 40*time.Millisecond)
	r.RecordTool(ctx, "execute_blender_code", false, 100*time.Millisecond)

	s, err := r.Summarize(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Startups)
	assert.Equal(t, 3, s.ToolCalls)
	require.Len(t, s.Tools, 2)

	// Ordered by call count descending.
	assert.Equal(t, "get_scene_info", s.Tools[0].Tool)
	assert.Equal(t, 2, s.Tools[0].Calls)
	assert.Equal(t, 0, s.Tools[0].Failures)
	assert.InDelta(t, 30.0, s.Tools[0].AvgLatencyMS, 0.01)

	assert.Equal(t, "execute_blender_code", s.Tools[1].Tool)
	assert.Equal(t, 1, s.Tools[1].Failures)
}

func TestNilRecorderIsNoOp(t *testing.T) {
	var r *Recorder
	ctx := context.Background()

	r.RecordStartup(ctx)
	r.RecordTool(ctx, "anything", true, time.Millisecond)
	assert.Empty(t, r.InstallID())
	assert.NoError(t, r.Close())

	_, err := r.Summarize(ctx)
	assert.Error(t, err)
}
