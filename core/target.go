package core

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
)

// ChartTarget is one chart produced by a job.
type ChartTarget struct {
	Index     int
	ChartID   string
	Label     string // period or borough the chart covers, for console lines
	PeriodRaw string
	Period    time.Time
	Borough   schema.Borough
	Query     schema.Query
}

// window is a job's resolved period selection.
type window struct {
	periods []string // most recent first for recent windows
	since   time.Time
	until   time.Time
}

// empty reports a window that selects nothing, such as a recent window over an empty dataset.
func (w window) empty() bool {
	return len(w.periods) == 0 && w.since.IsZero()
}

// resolveWindow turns the configured window into explicit periods or a time range.
func resolveWindow(ctx context.Context, src contract.RecordSource, job schema.ChartJob, now time.Time) (window, error) {
	switch job.Window.Kind() {
	case "periods":
		return window{periods: slices.Clone(job.Window.Periods)}, nil
	case "since":
		since, err := contract.ResolveSince(job.Window.Since, now)
		if err != nil {
			return window{}, fmt.Errorf("job %q: %w", job.Name, err)
		}
		return window{since: since, until: now}, nil
	default:
		periods, err := src.DistinctPeriods(ctx, job.Dataset, job.PeriodField, job.Window.Recent)
		if err != nil {
			return window{}, err
		}
		return window{periods: periods}, nil
	}
}

// baseQuery returns the query shared by every target of a job.
func baseQuery(job schema.ChartJob) schema.Query {
	return schema.Query{
		Fields:      job.Fields,
		PeriodField: job.PeriodField,
		Filters:     job.Filters,
		Limit:       job.RowLimit,
	}
}

// buildTargets splits a job's window into chart targets.
func buildTargets(job schema.ChartJob, w window) []ChartTarget {
	q := baseQuery(job)
	q.Periods = w.periods
	q.Since, q.Until = w.since, w.until

	switch job.Split {
	case schema.SplitPeriod:
		targets := make([]ChartTarget, 0, len(w.periods))
		for i, raw := range w.periods {
			pq := q
			pq.Periods = []string{raw}
			t := ChartTarget{Index: i, Label: raw, PeriodRaw: raw, Query: pq}
			if p, err := schema.ParsePeriod(raw); err == nil {
				t.Period = p
				t.ChartID = lookupChart(job.Charts, strconv.Itoa(i), raw, p.Format(schema.MonthLayout), p.Format(schema.DayLayout))
			} else {
				t.ChartID = lookupChart(job.Charts, strconv.Itoa(i), raw)
			}
			targets = append(targets, t)
		}
		return targets

	case schema.SplitBorough:
		keys := boroughChartKeys(job.Charts)
		latest := latestPeriod(w)
		targets := make([]ChartTarget, 0, len(keys))
		for i, key := range keys {
			b := schema.ParseBorough(key)
			targets = append(targets, ChartTarget{
				Index:   i,
				ChartID: job.Charts[key],
				Label:   string(b),
				Borough: b,
				Period:  latest,
				Query:   q,
			})
		}
		return targets

	default:
		var chartID string
		for _, id := range job.Charts {
			chartID = id
		}
		return []ChartTarget{{ChartID: chartID, Label: job.Name, Period: latestPeriod(w), Query: q}}
	}
}

// lookupChart returns the chart id of the first candidate key found, ignoring case.
func lookupChart(charts map[string]string, candidates ...string) string {
	for _, c := range candidates {
		if id, ok := charts[c]; ok {
			return id
		}
		for k, id := range charts {
			if strings.EqualFold(k, c) {
				return id
			}
		}
	}
	return ""
}

// boroughChartKeys orders chart keys by the canonical borough order, then alphabetically.
func boroughChartKeys(charts map[string]string) []string {
	rank := make(map[schema.Borough]int, len(schema.AllBoroughs))
	for i, b := range schema.AllBoroughs {
		rank[b] = i
	}
	keys := make([]string, 0, len(charts))
	for k := range charts {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		ra, okA := rank[schema.ParseBorough(a)]
		rb, okB := rank[schema.ParseBorough(b)]
		switch {
		case okA && okB:
			return ra - rb
		case okA:
			return -1
		case okB:
			return 1
		default:
			return strings.Compare(a, b)
		}
	})
	return keys
}

// latestPeriod returns the most recent period of the window, or its end for ranges.
func latestPeriod(w window) time.Time {
	if !w.until.IsZero() {
		return w.until
	}
	var latest time.Time
	for _, raw := range w.periods {
		if p, err := schema.ParsePeriod(raw); err == nil && p.After(latest) {
			latest = p
		}
	}
	return latest
}

// filterBorough keeps the records of one borough.
func filterBorough(records []schema.StationRecord, b schema.Borough) []schema.StationRecord {
	out := make([]schema.StationRecord, 0, len(records))
	for _, r := range records {
		if r.Borough == b {
			out = append(out, r)
		}
	}
	return out
}
