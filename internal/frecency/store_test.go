package frecency

import (
	"path/filepath"
	"testing"

	"github.com/hamr-launcher/hamr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissingFileIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	s, err := Open(path)
	require.NoError(t, err)

	_, ok := s.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	assert.False(t, ok)
}

func TestRecordExecutionCreatesAndIncrements(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	ctx := model.ExecutionContext{PluginID: "apps", ItemID: "firefox", HourOfDay: 9, Weekday: 2}
	s.RecordExecution(ctx, 1000)
	s.RecordExecution(ctx, 2000)

	entry, ok := s.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.ExecutionCount)
	assert.Equal(t, int64(2000), entry.LastUsedMillis)
	assert.Equal(t, int64(2), entry.HourHistogram[9])
	assert.Equal(t, int64(2), entry.WeekdayHistogram[2])
}

func TestRecordExecutionLastUsedMillisNeverDecreases(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	ctx := model.ExecutionContext{PluginID: "apps", ItemID: "firefox"}
	s.RecordExecution(ctx, 5000)
	s.RecordExecution(ctx, 1000) // an out-of-order/regressed timestamp

	entry, ok := s.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	require.True(t, ok)
	assert.Equal(t, int64(5000), entry.LastUsedMillis)
}

func TestRecordExecutionSequenceConfidenceLearnsAndDecays(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)

	ctx := model.ExecutionContext{PluginID: "apps", ItemID: "firefox", PrecedingQueryFingerprint: "fp1"}
	s.RecordExecution(ctx, 1000)
	s.RecordExecution(ctx, 2000)

	entry, _ := s.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	assert.InDelta(t, 0.1, entry.SequenceConfidence, 0.001)

	ctx.PrecedingQueryFingerprint = "fp2"
	s.RecordExecution(ctx, 3000)
	entry, _ = s.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	assert.InDelta(t, 0.05, entry.SequenceConfidence, 0.001)
}

func TestSaveThenOpenRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "frecency.json")

	s, err := Open(path)
	require.NoError(t, err)
	s.RecordExecution(model.ExecutionContext{PluginID: "apps", ItemID: "firefox"}, 1000)
	require.NoError(t, s.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	entry, ok := reopened.Get(model.PluginItemKey{PluginID: "apps", ItemID: "firefox"})
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.ExecutionCount)
}

func TestSnapshotReturnsEveryEntry(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "frecency.json"))
	require.NoError(t, err)
	s.RecordExecution(model.ExecutionContext{PluginID: "apps", ItemID: "a"}, 1000)
	s.RecordExecution(model.ExecutionContext{PluginID: "apps", ItemID: "b"}, 1000)

	assert.Len(t, s.Snapshot(), 2)
}
