package schema

import (
	"fmt"
	"strings"
)

// AggregationSpec tells the aggregator how to reduce records into a chart table.
type AggregationSpec struct {
	GroupBy     GroupBy          `mapstructure:"group_by" json:"group_by"`
	Metric      Metric           `mapstructure:"metric" json:"metric"`
	EmptyGroup  EmptyGroupPolicy `mapstructure:"empty_group" json:"empty_group"`
	Keys        []string         `mapstructure:"keys" json:"keys,omitempty"`
	Pivot       bool             `mapstructure:"pivot" json:"pivot,omitempty"`
	MetricLabel string           `mapstructure:"metric_label" json:"metric_label,omitempty"`
}

// Label returns the metric column label.
func (s AggregationSpec) Label() string {
	if s.MetricLabel != "" {
		return s.MetricLabel
	}
	return s.Metric.DefaultLabel()
}

// Policy returns the empty group policy, defaulting to omit.
func (s AggregationSpec) Policy() EmptyGroupPolicy {
	if s.EmptyGroup == "" {
		return OmitEmptyGroups
	}
	return s.EmptyGroup
}

// Validate checks the spec against the supported groupings and metrics.
func (s AggregationSpec) Validate() error {
	if _, ok := ValidGroupBys[s.GroupBy]; !ok {
		return fmt.Errorf("%w: unknown group_by %q", ErrInvalidSpec, s.GroupBy)
	}
	if _, ok := ValidMetrics[s.Metric]; !ok {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidSpec, s.Metric)
	}
	if _, ok := ValidEmptyGroupPolicies[s.Policy()]; !ok {
		return fmt.Errorf("%w: unknown empty_group policy %q", ErrInvalidSpec, s.EmptyGroup)
	}
	if s.Pivot && s.GroupBy != GroupByBoroughMonth {
		return fmt.Errorf("%w: pivot requires group_by %q", ErrInvalidSpec, GroupByBoroughMonth)
	}
	return nil
}

// FieldMap names the dataset fields that feed a StationRecord.
type FieldMap struct {
	StationID    string `mapstructure:"station_id" json:"station_id,omitempty"`
	Borough      string `mapstructure:"borough" json:"borough"`
	Period       string `mapstructure:"period" json:"period"`
	Availability string `mapstructure:"availability" json:"availability,omitempty"`
	Northbound   string `mapstructure:"northbound" json:"northbound,omitempty"`
	Southbound   string `mapstructure:"southbound" json:"southbound,omitempty"`
}

// WithDefaults fills empty names with the field names of the availability datasets.
func (f FieldMap) WithDefaults(periodField string) FieldMap {
	if f.StationID == "" {
		f.StationID = "station_complex_id"
	}
	if f.Borough == "" {
		f.Borough = "borough"
	}
	if f.Period == "" {
		f.Period = periodField
	}
	if f.Availability == "" {
		f.Availability = "availability"
	}
	if f.Northbound == "" {
		f.Northbound = "ada_northbound"
	}
	if f.Southbound == "" {
		f.Southbound = "ada_southbound"
	}
	return f
}

// Window selects which periods a job covers. Exactly one field is set.
type Window struct {
	Recent  int      `mapstructure:"recent" json:"recent,omitempty"`
	Periods []string `mapstructure:"periods" json:"periods,omitempty"`
	Since   string   `mapstructure:"since" json:"since,omitempty"`
}

// Kind names the selected window strategy.
func (w Window) Kind() string {
	switch {
	case len(w.Periods) > 0:
		return "periods"
	case w.Since != "":
		return "since"
	default:
		return "recent"
	}
}

// ChartJob is one configured chart update: where to read, how to reduce, where to publish.
type ChartJob struct {
	Name        string            `mapstructure:"name" json:"name"`
	Description string            `mapstructure:"description" json:"description,omitempty"`
	Dataset     string            `mapstructure:"dataset" json:"dataset"`
	PeriodField string            `mapstructure:"period_field" json:"period_field"`
	Fields      FieldMap          `mapstructure:"fields" json:"fields"`
	Filters     map[string]string `mapstructure:"filters" json:"filters,omitempty"`
	Window      Window            `mapstructure:"window" json:"window"`
	Split       SplitMode         `mapstructure:"split" json:"split"`
	Charts      map[string]string `mapstructure:"charts" json:"charts"`
	Title       string            `mapstructure:"title" json:"title"`
	Spec        AggregationSpec   `mapstructure:"spec" json:"spec"`
	RowLimit    int               `mapstructure:"row_limit" json:"row_limit,omitempty"`
}

// Normalize fills defaults and lowercases enum values in place.
func (j *ChartJob) Normalize() {
	j.Name = strings.TrimSpace(j.Name)
	if j.PeriodField == "" {
		j.PeriodField = "month"
	}
	j.Fields = j.Fields.WithDefaults(j.PeriodField)
	j.Split = SplitMode(strings.ToLower(string(j.Split)))
	if j.Split == "" {
		j.Split = SplitNone
	}
	j.Spec.GroupBy = GroupBy(strings.ToLower(string(j.Spec.GroupBy)))
	j.Spec.Metric = Metric(strings.ToLower(string(j.Spec.Metric)))
	j.Spec.EmptyGroup = EmptyGroupPolicy(strings.ToLower(string(j.Spec.EmptyGroup)))
	if j.Spec.EmptyGroup == "" {
		j.Spec.EmptyGroup = OmitEmptyGroups
	}
	if j.RowLimit <= 0 {
		j.RowLimit = DefaultRowLimit
	}
	if j.Window.Kind() == "recent" && j.Window.Recent <= 0 {
		j.Window.Recent = DefaultDistinctPeriods
	}
}

// Validate checks that the job can be run.
func (j ChartJob) Validate() error {
	if j.Name == "" {
		return fmt.Errorf("job name is required")
	}
	if j.Dataset == "" {
		return fmt.Errorf("job %q: dataset is required", j.Name)
	}
	if _, ok := ValidSplitModes[j.Split]; !ok {
		return fmt.Errorf("job %q: invalid split %q", j.Name, j.Split)
	}
	set := 0
	if j.Window.Recent > 0 {
		set++
	}
	if len(j.Window.Periods) > 0 {
		set++
	}
	if j.Window.Since != "" {
		set++
	}
	if set > 1 {
		return fmt.Errorf("job %q: window must set only one of recent, periods, since", j.Name)
	}
	if len(j.Charts) == 0 {
		return fmt.Errorf("job %q: at least one chart id is required", j.Name)
	}
	if j.Split == SplitPeriod && j.Window.Since != "" {
		return fmt.Errorf("job %q: split %q needs a recent or periods window", j.Name, SplitPeriod)
	}
	if j.Split == SplitNone && len(j.Charts) != 1 {
		return fmt.Errorf("job %q: split %q takes exactly one chart id, got %d", j.Name, SplitNone, len(j.Charts))
	}
	if err := j.Spec.Validate(); err != nil {
		return fmt.Errorf("job %q: %w", j.Name, err)
	}
	return nil
}
