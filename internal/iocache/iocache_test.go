package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/srcmeasure/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"srcmeasure_runs", false},
		{"_private", false},
		{"Runs2", false},
		{"", true},
		{"2runs", true},
		{"runs; DROP TABLE x", true},
		{"runs-table", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`srcmeasure_runs`", quoteTableName(runsTable, schema.MySQLBackend))
	assert.Equal(t, `"srcmeasure_runs"`, quoteTableName(runsTable, schema.PostgreSQLBackend))
	assert.Equal(t, `"srcmeasure_runs"`, quoteTableName(runsTable, schema.SQLiteBackend))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"$1", "$2", "$3"}, placeholders(schema.PostgreSQLBackend, 3))
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.MySQLBackend, 2))
	assert.Equal(t, []string{"?"}, placeholders(schema.SQLiteBackend, 1))
	assert.Empty(t, placeholders(schema.SQLiteBackend, 0))
}

func TestGetCreateTableQuery(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		for _, table := range historyTables {
			q := getCreateTableQuery(table, backend)
			assert.Contains(t, q, "CREATE TABLE IF NOT EXISTS "+quoteTableName(table, backend))
		}
		assert.Contains(t, getCreateTableQuery(metricsTable, backend), "PRIMARY KEY (run_id, repo, ref)")
	}
	assert.Contains(t, getCreateTableQuery(runsTable, schema.PostgreSQLBackend), "BIGSERIAL")
	assert.Contains(t, getCreateTableQuery(runsTable, schema.MySQLBackend), "AUTO_INCREMENT")
	assert.Contains(t, getCreateTableQuery(runsTable, schema.SQLiteBackend), "AUTOINCREMENT")
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.FileExists(t, dbPath)

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	assert.NoFileExists(t, dbPath)

	// Missing file is not an error
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	assert.Error(t, ClearHistory(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.ErrorContains(t, ClearHistory("oracle", "", ""), "unsupported")
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	var out bytes.Buffer

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1, &out))
	assert.Contains(t, out.String(), "to version 2")

	out.Reset()
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1, &out))
	assert.Contains(t, out.String(), "already at the latest version")

	// Migrated tables are usable by the store
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	runID, err := store.BeginRun("m", "a.morph", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordMetrics(runID, sampleMetrics("zlib", "upstream:zlib", "abc", 1)))
	require.NoError(t, store.Close())

	out.Reset()
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 1, &out))
	assert.Contains(t, out.String(), "to version 1")

	out.Reset()
	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 0, &out))
	assert.Contains(t, out.String(), "rolled back")

	assert.ErrorContains(t, MigrateHistory(schema.NoneBackend, "", -1, nil), "not supported")
}

func TestExportHistory(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	out := filepath.Join(t.TempDir(), "history")
	assert.ErrorContains(t, ExportHistory(store, out, nil), "no run history")
	assert.ErrorContains(t, ExportHistory(store, "", nil), "--output-file")
	assert.ErrorContains(t, ExportHistory(nil, out, nil), "disabled")

	runID, err := store.BeginRun("x", "a.morph", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordMetrics(runID, sampleMetrics("zlib", "upstream:zlib", "abc", 7)))
	require.NoError(t, store.EndRun(runID, time.Now(), 1, false))

	var status bytes.Buffer
	require.NoError(t, ExportHistory(store, out, &status))
	assert.Contains(t, status.String(), "Exported 1 runs")
	assert.Contains(t, status.String(), "Exported 1 metrics records")

	for _, suffix := range []string{".runs.parquet", ".metrics.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestExportHistory_StoreErrors(t *testing.T) {
	store := &MockHistoryStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{Backend: "mysql", TotalRuns: 1}, nil)
	store.On("GetAllRuns").Return(nil, assert.AnError)

	err := ExportHistory(store, filepath.Join(t.TempDir(), "h"), nil)
	assert.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{Backend: "none"})
	assert.Equal(t, "History Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:       "sqlite",
		Connected:     true,
		TotalRuns:     3,
		LastRunID:     3,
		LastRunTime:   at,
		OldestRunTime: at,
		TotalMeasured: 1200,
		TableSizes:    map[string]int64{metricsTable: 1200, runsTable: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "Total Runs: 3")
	assert.Contains(t, out, "Last Run: 2024-01-02 03:04:05")
	assert.Contains(t, out, "Total Work Items Measured: 1,200")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(metricsTable)), bytes.Index(buf.Bytes(), []byte(runsTable+":")))
}

func TestHistoryStoreManager(t *testing.T) {
	mgr := &HistoryStoreManager{}
	assert.Nil(t, mgr.GetHistoryStore())

	store := &MockHistoryStore{}
	mgr.history = store
	assert.Same(t, store, mgr.GetHistoryStore())

	mockMgr := &MockStoreManager{}
	mockMgr.On("GetHistoryStore").Return(nil)
	assert.Nil(t, mockMgr.GetHistoryStore())
	mockMgr.AssertExpectations(t)
}
