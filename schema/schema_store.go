package schema

import "time"

// RunRecord represents a row from the liftwatch_runs table.
type RunRecord struct {
	RunID     string
	StartTime time.Time
	EndTime   *time.Time
	Jobs      string // comma-separated job names
	DryRun    bool
	Updated   int32
	Skipped   int32
	Failed    int32
}

// ChartRecord represents a row from the liftwatch_charts table.
type ChartRecord struct {
	RunID      string
	Job        string
	ChartID    string
	Title      string
	Period     string
	RowCount   int32
	Status     ChartStatus
	FailedStep *string
	ErrorText  *string
	RecordedAt time.Time
}

// ChartOutcome is the result of one chart target within a run.
type ChartOutcome struct {
	Job     string      `json:"job"`
	ChartID string      `json:"chart_id"`
	Title   string      `json:"title"`
	Period  string      `json:"period,omitempty"`
	Rows    int         `json:"rows"`
	Status  ChartStatus `json:"status"`
	Step    string      `json:"step,omitempty"`
	Err     error       `json:"-"`
}

// RunSummary counts the outcomes of a run.
type RunSummary struct {
	RunID    string         `json:"run_id"`
	Outcomes []ChartOutcome `json:"outcomes"`
	Updated  int            `json:"updated"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	DryRun   int            `json:"dry_run"`
}

// Add records an outcome and bumps the matching counter.
func (s *RunSummary) Add(o ChartOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Status {
	case UpdatedStatus:
		s.Updated++
	case SkippedStatus:
		s.Skipped++
	case FailedStatus:
		s.Failed++
	case DryRunStatus:
		s.DryRun++
	}
}

// HasFailures reports whether any chart failed.
func (s RunSummary) HasFailures() bool {
	return s.Failed > 0
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	TotalCharts   int              `json:"total_charts"`
	FailedCharts  int              `json:"failed_charts"`
	LastRunID     string           `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}
