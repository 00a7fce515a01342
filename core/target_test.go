package core

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTargetsPeriodSplit(t *testing.T) {
	job := monthlyJob()
	job.Charts = map[string]string{"0": "q0KSY", "2024-04": "2Lebz", "2024-03-01T00:00:00.000": "t7mwT"}

	targets := buildTargets(job, window{periods: []string{mayRaw, aprilRaw, marchRaw}})
	require.Len(t, targets, 3)

	assert.Equal(t, []string{"q0KSY", "2Lebz", "t7mwT"}, []string{targets[0].ChartID, targets[1].ChartID, targets[2].ChartID})
	assert.Equal(t, []string{mayRaw}, targets[0].Query.Periods)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), targets[0].Period)
	assert.Equal(t, job.RowLimit, targets[0].Query.Limit)
}

func TestBuildTargetsBoroughSplit(t *testing.T) {
	job := schema.ChartJob{
		Name:   "b",
		Split:  schema.SplitBorough,
		Charts: map[string]string{"si": "s1", "bronx": "b1", "Brooklyn": "k1", "elsewhere": "x1"},
	}
	until := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	targets := buildTargets(job, window{since: until.AddDate(0, -6, 0), until: until})
	require.Len(t, targets, 4)

	got := make([]string, 0, len(targets))
	for _, tt := range targets {
		got = append(got, tt.ChartID)
		assert.Equal(t, until, tt.Period)
		assert.True(t, tt.Query.HasRange())
	}
	assert.Equal(t, []string{"k1", "b1", "s1", "x1"}, got)
	assert.Equal(t, schema.StatenIsland, targets[2].Borough)
}

func TestBuildTargetsNoSplit(t *testing.T) {
	job := schema.ChartJob{Name: "sys", Split: schema.SplitNone, Charts: map[string]string{"all": "abc"}}
	targets := buildTargets(job, window{periods: []string{mayRaw, aprilRaw}})
	require.Len(t, targets, 1)
	assert.Equal(t, "abc", targets[0].ChartID)
	assert.Equal(t, []string{mayRaw, aprilRaw}, targets[0].Query.Periods)
	assert.Equal(t, 2024, targets[0].Period.Year())
	assert.Equal(t, time.May, targets[0].Period.Month())
}

func TestLookupChartIgnoresCase(t *testing.T) {
	charts := map[string]string{"queens": "q", "0": "zero"}
	assert.Equal(t, "q", lookupChart(charts, "Queens"))
	assert.Equal(t, "zero", lookupChart(charts, "missing", "0"))
	assert.Empty(t, lookupChart(charts, "bronx"))
}

func TestResolveWindow(t *testing.T) {
	ctx := context.Background()
	src := &contract.MockRecordSource{}
	src.On("DistinctPeriods", ctx, "thh2-syn7", "month", 6).Return([]string{mayRaw}, nil)

	job := monthlyJob()
	job.Window = schema.Window{Recent: 6}
	w, err := resolveWindow(ctx, src, job, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []string{mayRaw}, w.periods)

	job.Window = schema.Window{Since: "30 days"}
	w, err = resolveWindow(ctx, src, job, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -30), w.since)
	assert.Equal(t, fixedNow, w.until)

	job.Window = schema.Window{Since: "someday"}
	_, err = resolveWindow(ctx, src, job, fixedNow)
	assert.Error(t, err)

	src.AssertNumberOfCalls(t, "DistinctPeriods", 1)
}

func TestFilterBorough(t *testing.T) {
	records := []schema.StationRecord{
		avail(schema.Queens, mayRaw, "0.9"),
		avail(schema.Bronx, mayRaw, "0.5"),
		avail(schema.Queens, aprilRaw, "0.7"),
	}
	assert.Len(t, filterBorough(records, schema.Queens), 2)
	assert.Empty(t, filterBorough(records, schema.StatenIsland))
}
