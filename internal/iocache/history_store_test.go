package iocache

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/srcmeasure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMetrics(name, repo, ref string, sloc int) schema.MetricsRecord {
	return schema.MetricsRecord{
		Name:                name,
		Repo:                repo,
		Ref:                 ref,
		RefName:             ref,
		SLOC:                sloc,
		ActiveDays:          12,
		ActiveDaysPerAuthor: 15,
		Authors:             3,
		MeasuredAt:          time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	// BeginRun should return 0 for NoneBackend
	runID, err := store.BeginRun("uuid", "systems/base.morph", time.Now(), map[string]any{"test": "value"})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	// Other operations should not error
	assert.NoError(t, store.RecordMetrics(1, sampleMetrics("zlib", "upstream:zlib", "abc", 10)))
	assert.NoError(t, store.EndRun(1, time.Now(), 1, false))

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore("oracle", "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestHistoryStore_SQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	startTime := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	runID, err := store.BeginRun("run-uuid-1", "systems/base.morph", startTime, map[string]any{"order": "reverse"})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	require.NoError(t, store.RecordMetrics(runID, sampleMetrics("zlib", "upstream:zlib", "abc", 20615)))
	require.NoError(t, store.RecordMetrics(runID, sampleMetrics("libfoo", "upstream:libfoo", "def", schema.SLOCUnmeasured)))

	// Same key within a run violates the primary key
	assert.Error(t, store.RecordMetrics(runID, sampleMetrics("zlib", "upstream:zlib", "abc", 1)))

	endTime := startTime.Add(90 * time.Second)
	require.NoError(t, store.EndRun(runID, endTime, 2, true))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, "run-uuid-1", run.RunUUID)
	assert.Equal(t, "systems/base.morph", run.Root)
	assert.True(t, run.StartTime.Equal(startTime))
	require.NotNil(t, run.EndTime)
	assert.True(t, run.EndTime.Equal(endTime))
	require.NotNil(t, run.RunDurationMs)
	assert.Equal(t, int64(90000), *run.RunDurationMs)
	assert.Equal(t, int32(2), run.TotalMeasured)
	assert.True(t, run.Interrupted)
	require.NotNil(t, run.ConfigParams)
	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &params))
	assert.Equal(t, "reverse", params["order"])

	rows, err := store.GetAllMetrics()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	byName := map[string]schema.MetricsRow{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.Equal(t, int64(20615), byName["zlib"].SLOC)
	assert.Equal(t, int64(schema.SLOCUnmeasured), byName["libfoo"].SLOC)
	assert.Equal(t, int32(15), byName["zlib"].ActiveDaysPerAuthor)
	assert.Equal(t, int32(3), byName["zlib"].Authors)
	assert.Equal(t, "upstream:zlib", byName["zlib"].Repo)
	assert.True(t, byName["zlib"].MeasuredAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestHistoryStore_OpenRun(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.BeginRun("open", "a.morph", time.Now(), nil)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].RunDurationMs)
	assert.False(t, runs[0].Interrupted)
}

func TestHistoryStore_EndRunUnknown(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	assert.ErrorContains(t, store.EndRun(42, time.Now(), 0, false), "run 42")
}

func TestHistoryStore_GetStatus(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)
	assert.Equal(t, int64(0), status.TableSizes[runsTable])

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)
	id1, err := store.BeginRun("one", "a.morph", first, nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordMetrics(id1, sampleMetrics("zlib", "upstream:zlib", "abc", 5)))
	require.NoError(t, store.EndRun(id1, first.Add(time.Minute), 1, false))
	id2, err := store.BeginRun("two", "a.morph", second, nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(id2, second.Add(time.Minute), 0, false))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, id2, status.LastRunID)
	assert.True(t, status.LastRunTime.Equal(second))
	assert.True(t, status.OldestRunTime.Equal(first))
	assert.Equal(t, 1, status.TotalMeasured)
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(1), status.TableSizes[metricsTable])
}

func TestHistoryStore_FileBacked(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	runID, err := store.BeginRun("persist", "a.morph", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.EndRun(runID, time.Now(), 0, false))
	require.NoError(t, store.Close())

	reopened, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "persist", runs[0].RunUUID)
}

func TestParseTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 0, 0, 500, time.UTC)

	got, err := parseTime(want)
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = parseTime(want.Format(time.RFC3339Nano))
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = parseTime([]byte("2024-03-01 10:00:00"))
	require.NoError(t, err)
	assert.True(t, got.Equal(want.Truncate(time.Second)))

	_, err = parseTime(42)
	assert.Error(t, err)
	_, err = parseTime("yesterday")
	assert.Error(t, err)
}
