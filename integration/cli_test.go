//go:build basic

package integration

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	out, err := runLiftwatch(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "liftwatch CLI")
}

func TestJobsListsConfig(t *testing.T) {
	config := writeConfig(t, t.TempDir())
	out, err := runLiftwatch(t, nil, "jobs", "--config", config, "--output", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "monthly-borough,thh2-syn7,borough,mean-availability-pct,period,recent 2,2,")
}

func TestPreviewAgainstFakeSource(t *testing.T) {
	srv := newFakeSODA(t)
	config := writeConfig(t, t.TempDir())

	out, err := runLiftwatch(t, nil, "preview", "monthly-borough",
		"--config", config, "--soda-base-url", srv.URL, "--output", "json")
	require.NoError(t, err)

	var previews []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &previews))
	require.Len(t, previews, 2)
	assert.Equal(t, "q0KSY", previews[0]["chart_id"])
	assert.Equal(t, "May 2024", previews[0]["title"])
}

func TestUpdateRequiresToken(t *testing.T) {
	srv := newFakeSODA(t)
	config := writeConfig(t, t.TempDir())

	out, err := runLiftwatch(t, nil, "update", "--config", config, "--soda-base-url", srv.URL)
	require.Error(t, err)
	assert.Contains(t, out, "missing credential")
}

func TestDryRunRecordsSQLiteHistory(t *testing.T) {
	srv := newFakeSODA(t)
	dir := t.TempDir()
	config := writeConfig(t, dir)
	env := []string{
		"LIFTWATCH_HISTORY_BACKEND=sqlite",
		"LIFTWATCH_HISTORY_DB_CONNECT=" + filepath.Join(dir, "history.db"),
	}

	out, err := runLiftwatch(t, env, "update", "--dry-run", "--config", config, "--soda-base-url", srv.URL, "--emoji", "no")
	require.NoError(t, err)
	assert.Contains(t, out, "Queens,85.0")
	assert.Contains(t, out, "No data for")

	out, err = runLiftwatch(t, env, "history", "status", "--config", config)
	require.NoError(t, err)
	assert.Contains(t, out, "Total Runs: 1")

	_, err = runLiftwatch(t, env, "history", "export", "--config", config, "--output-file", filepath.Join(dir, "export"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "export.runs.parquet"))
	assert.FileExists(t, filepath.Join(dir, "export.charts.parquet"))

	_, err = runLiftwatch(t, env, "history", "clear", "--config", config)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "history.db"))
}
