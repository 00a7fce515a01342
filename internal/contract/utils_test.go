package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/huangsam/liftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, got, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, got, s)
	}
	_, err := ParseBoolString("y")
	assert.Error(t, err)
}

func TestStatusLabels(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	assert.Equal(t, "UPDATED", GetPlainStatus(schema.UpdatedStatus))
	for _, s := range []schema.ChartStatus{schema.UpdatedStatus, schema.SkippedStatus, schema.FailedStatus, schema.DryRunStatus} {
		assert.Equal(t, strings.ToUpper(string(s)), GetColorStatus(s))
		assert.NotEmpty(t, GetStatusEmoji(s))
	}
	assert.Empty(t, GetStatusEmoji("unknown"))
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)
}

func TestGetHistoryDBFilePath(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetHistoryDBFilePath(), ".liftwatch_history.db"))
}
