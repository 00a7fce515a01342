package schema

// Custom string types for type safety.
type (
	// GroupBy names the grouping key of an aggregation.
	GroupBy string

	// Metric names the value computed for every group.
	Metric string

	// EmptyGroupPolicy decides what happens to a group with a zero denominator.
	EmptyGroupPolicy string

	// SplitMode decides how a job's window is divided into charts.
	SplitMode string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// ChartStatus is the outcome of a single chart update.
	ChartStatus string
)

// All grouping keys supported.
const (
	GroupByBorough      GroupBy = "borough"
	GroupByMonth        GroupBy = "month"
	GroupByDay          GroupBy = "day"
	GroupByBoroughMonth GroupBy = "borough-month" // systemwide trend
)

// All metrics supported.
const (
	MeanAvailabilityPct Metric = "mean-availability-pct"
	OperabilityPct      Metric = "operability-pct"
)

// All empty group policies supported.
const (
	OmitEmptyGroups  EmptyGroupPolicy = "omit" // default
	RaiseEmptyGroups EmptyGroupPolicy = "raise"
)

// All split modes supported.
const (
	SplitNone    SplitMode = "none" // default
	SplitPeriod  SplitMode = "period"
	SplitBorough SplitMode = "borough"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All chart outcomes recorded.
const (
	UpdatedStatus ChartStatus = "updated"
	SkippedStatus ChartStatus = "skipped"
	FailedStatus  ChartStatus = "failed"
	DryRunStatus  ChartStatus = "dry-run"
)

// Column labels used in chart tables.
const (
	BoroughColumn          = "Borough"
	MonthColumn            = "Month"
	DayColumn              = "Day"
	AvailabilityColumn     = "Availability %"
	OperabilityColumn      = "Operability Rate"
	MonthLayout            = "2006-01"
	DayLayout              = "2006-01-02"
	PercentDecimalPlaces   = 1
	DefaultRowLimit        = 5000
	DefaultDistinctPeriods = 6
)

// ValidGroupBys lists all valid grouping keys.
var ValidGroupBys = map[GroupBy]struct{}{
	GroupByBorough:      {},
	GroupByMonth:        {},
	GroupByDay:          {},
	GroupByBoroughMonth: {},
}

// ValidMetrics lists all valid metrics.
var ValidMetrics = map[Metric]struct{}{
	MeanAvailabilityPct: {},
	OperabilityPct:      {},
}

// ValidEmptyGroupPolicies lists all valid empty group policies.
var ValidEmptyGroupPolicies = map[EmptyGroupPolicy]struct{}{
	OmitEmptyGroups:  {},
	RaiseEmptyGroups: {},
}

// ValidSplitModes lists all valid split modes.
var ValidSplitModes = map[SplitMode]struct{}{
	SplitNone:    {},
	SplitPeriod:  {},
	SplitBorough: {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// IsTemporal reports whether the grouping key orders rows chronologically.
func (g GroupBy) IsTemporal() bool {
	return g == GroupByMonth || g == GroupByDay || g == GroupByBoroughMonth
}

// DefaultLabel returns the column label used for the metric.
func (m Metric) DefaultLabel() string {
	if m == OperabilityPct {
		return OperabilityColumn
	}
	return AvailabilityColumn
}
