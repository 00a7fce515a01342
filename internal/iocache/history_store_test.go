package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/liftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)

	assert.NoError(t, store.BeginRun("r", time.Now(), []string{"a"}, false))
	assert.NoError(t, store.RecordChart(schema.ChartRecord{RunID: "r"}))
	assert.NoError(t, store.EndRun("r", time.Now(), schema.RunSummary{}))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "none", status.Backend)
	assert.False(t, status.Connected)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestHistoryStore_UnsupportedBackend(t *testing.T) {
	_, err := NewHistoryStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestHistoryStore_SQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	start := time.Date(2024, time.June, 1, 7, 0, 0, 0, time.UTC)
	require.NoError(t, store.BeginRun("run-1", start, []string{"monthly", "daily"}, false))

	step, msg := "publish", "status 502"
	require.NoError(t, store.RecordChart(schema.ChartRecord{
		RunID: "run-1", Job: "monthly", ChartID: "q0KSY", Title: "May 2024",
		Period: "2024-05-01T00:00:00.000", RowCount: 5, Status: schema.UpdatedStatus, RecordedAt: start.Add(time.Second),
	}))
	require.NoError(t, store.RecordChart(schema.ChartRecord{
		RunID: "run-1", Job: "monthly", ChartID: "2Lebz", Title: "April 2024",
		Period: "2024-04-01T00:00:00.000", RowCount: 5, Status: schema.FailedStatus,
		FailedStep: &step, ErrorText: &msg, RecordedAt: start.Add(2 * time.Second),
	}))
	require.NoError(t, store.EndRun("run-1", start.Add(3*time.Second), schema.RunSummary{Updated: 1, Failed: 1}))

	require.NoError(t, store.BeginRun("run-2", start.Add(time.Hour), []string{"monthly"}, true))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].RunID)
	assert.True(t, runs[0].StartTime.Equal(start))
	require.NotNil(t, runs[0].EndTime)
	assert.True(t, runs[0].EndTime.Equal(start.Add(3*time.Second)))
	assert.Equal(t, "monthly,daily", runs[0].Jobs)
	assert.Equal(t, int32(1), runs[0].Updated)
	assert.Equal(t, int32(1), runs[0].Failed)
	assert.False(t, runs[0].DryRun)
	assert.True(t, runs[1].DryRun)
	assert.Nil(t, runs[1].EndTime)

	charts, err := store.GetAllCharts()
	require.NoError(t, err)
	require.Len(t, charts, 2)
	assert.Equal(t, "q0KSY", charts[0].ChartID)
	assert.Nil(t, charts[0].FailedStep)
	assert.Equal(t, schema.FailedStatus, charts[1].Status)
	require.NotNil(t, charts[1].FailedStep)
	assert.Equal(t, "publish", *charts[1].FailedStep)
	assert.Equal(t, "status 502", *charts[1].ErrorText)
	assert.True(t, charts[1].RecordedAt.Equal(start.Add(2*time.Second)))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 2, status.TotalRuns)
	assert.Equal(t, 2, status.TotalCharts)
	assert.Equal(t, 1, status.FailedCharts)
	assert.Equal(t, "run-2", status.LastRunID)
	assert.True(t, status.OldestRunTime.Equal(start))
	assert.Equal(t, int64(2), status.TableSizes[chartsTable])
}

func TestHistoryStore_EndRunUnknown(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.EndRun("missing", time.Now(), schema.RunSummary{})
	assert.ErrorContains(t, err, "failed to get start_time")
}

func TestHistoryStore_ReopenFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.BeginRun("run-1", time.Now(), []string{"a"}, false))
	require.NoError(t, store.Close())

	// Tables are created idempotently on open
	store, err = NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestClearHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	_, err = os.Stat(dbPath)
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine
	assert.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	assert.Error(t, ClearHistory(schema.SQLiteBackend, "", ""))
	assert.Error(t, ClearHistory(schema.DatabaseBackend("oracle"), "", ""))
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{Backend: "none"})
	assert.Equal(t, "History Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 1, TotalCharts: 6, FailedCharts: 1, LastRunID: "abc",
		LastRunTime:   time.Date(2024, time.June, 2, 7, 0, 0, 0, time.UTC),
		OldestRunTime: time.Date(2024, time.May, 1, 7, 0, 0, 0, time.UTC),
		TableSizes: map[string]int64{chartsTable: 6, runsTable: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "Last Run ID: abc")
	assert.Contains(t, out, "Last Run: 2024-06-02T07:00:00Z")
	assert.Contains(t, out, "Oldest Run: 2024-05-01T07:00:00Z")
	assert.Contains(t, out, "Charts Recorded: 6 (1 failed)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(chartsTable)), bytes.Index(buf.Bytes(), []byte(runsTable)))
}

func TestExecuteHistoryExport(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	var buf bytes.Buffer
	assert.ErrorContains(t, ExecuteHistoryExport(store, "", &buf), "--output-file is required")
	assert.ErrorContains(t, ExecuteHistoryExport(store, "x", &buf), "no run history found")

	now := time.Now()
	require.NoError(t, store.BeginRun("run-1", now, []string{"monthly"}, false))
	require.NoError(t, store.RecordChart(schema.ChartRecord{RunID: "run-1", Job: "monthly", ChartID: "q0KSY", Status: schema.UpdatedStatus, RecordedAt: now}))

	out := filepath.Join(t.TempDir(), "history")
	require.NoError(t, ExecuteHistoryExport(store, out, &buf))
	assert.FileExists(t, out+".runs.parquet")
	assert.FileExists(t, out+".charts.parquet")
	assert.Contains(t, buf.String(), "Exported 1 runs")
}

func TestExecuteHistoryExport_StoreErrors(t *testing.T) {
	store := &MockHistoryStore{}
	store.On("GetStatus").Return(schema.HistoryStatus{Backend: "mysql", TotalRuns: 3}, nil)
	store.On("GetAllRuns").Return(nil, errors.New("connection reset"))

	err := ExecuteHistoryExport(store, filepath.Join(t.TempDir(), "h"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "connection reset")
	store.AssertNotCalled(t, "GetAllCharts")
}

func TestGetHistoryStoreUninitialized(t *testing.T) {
	mgr := &HistoryStoreManager{}
	assert.Nil(t, mgr.GetHistoryStore())
}
