// Package agg reduces station records into chart-ready tables.
package agg

import (
	"fmt"
	"sort"
	"time"

	"github.com/huangsam/liftwatch/schema"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// groupKey identifies one output row. Unused parts stay zero.
type groupKey struct {
	borough schema.Borough
	period  time.Time
}

// accumulator holds the running numerator and denominator of one group.
type accumulator struct {
	sum      decimal.Decimal // availability fractions
	samples  int64           // records with availability
	operable int64           // records with both directions operational
	flagged  int64           // records with both directional flags
}

func (a *accumulator) add(r schema.StationRecord) {
	if r.HasAvailability() {
		a.sum = a.sum.Add(*r.Availability)
		a.samples++
	}
	if r.HasOperability() {
		a.flagged++
		if r.FullyOperational() {
			a.operable++
		}
	}
}

// value returns the metric as a rounded percentage, or false when the denominator is zero.
func (a *accumulator) value(metric schema.Metric) (decimal.Decimal, bool) {
	switch metric {
	case schema.OperabilityPct:
		if a.flagged == 0 {
			return decimal.Zero, false
		}
		return percent(decimal.NewFromInt(a.operable), a.flagged), true
	default:
		if a.samples == 0 {
			return decimal.Zero, false
		}
		return percent(a.sum, a.samples), true
	}
}

// percent computes num/den*100 rounded half-to-even to one decimal place.
func percent(num decimal.Decimal, den int64) decimal.Decimal {
	return num.Mul(hundred).Div(decimal.NewFromInt(den)).RoundBank(schema.PercentDecimalPlaces)
}

// Aggregate groups records by the spec's key and computes one metric value per group.
// It never filters records by date and has no side effects.
func Aggregate(records []schema.StationRecord, spec schema.AggregationSpec) (schema.ChartTable, error) {
	// 1. Validate the spec itself
	if err := spec.Validate(); err != nil {
		return schema.ChartTable{}, err
	}
	table := schema.NewChartTable(Columns(spec)...)
	expected, err := expectedKeys(spec)
	if err != nil {
		return schema.ChartTable{}, err
	}

	// 2. Empty input yields an empty table unless expected keys must be present
	if len(records) == 0 {
		if spec.Policy() == schema.RaiseEmptyGroups && len(expected) > 0 && spec.GroupBy != schema.GroupByBoroughMonth {
			return schema.ChartTable{}, emptyGroupError(spec.GroupBy, expected[0])
		}
		if spec.Pivot {
			return Pivot(table)
		}
		return table, nil
	}

	// 3. Validate that the records carry the metric's fields
	if !carriesMetric(records, spec.Metric) {
		return schema.ChartTable{}, fmt.Errorf("%w: no record carries the fields for metric %q", schema.ErrInvalidSpec, spec.Metric)
	}

	// Fractions must lie in [0, 1]
	if spec.Metric == schema.MeanAvailabilityPct {
		for _, r := range records {
			if r.HasAvailability() && !schema.ValidFraction(*r.Availability) {
				return schema.ChartTable{}, fmt.Errorf("%w: availability %s of %s %s is outside [0, 1]",
					schema.ErrInvalidSpec, r.Availability.String(), r.Borough, r.Period.Format(schema.MonthLayout))
			}
		}
	}

	// 4. Group records in first-seen order
	order, groups := groupRecords(records, spec.GroupBy, expected)

	// 5. Order keys
	order = orderKeys(order, spec.GroupBy)

	// 6. Compute metric per group and apply the empty group policy
	for _, key := range order {
		value, ok := groups[key].value(spec.Metric)
		if !ok {
			if spec.Policy() == schema.RaiseEmptyGroups {
				return schema.ChartTable{}, emptyGroupError(spec.GroupBy, key)
			}
			continue
		}
		table.Rows = append(table.Rows, buildRow(spec.GroupBy, key, value))
	}

	// 7. Optionally reshape the composite long form
	if spec.Pivot {
		return Pivot(table)
	}
	return table, nil
}

// Columns returns the long-form columns produced for the spec.
func Columns(spec schema.AggregationSpec) []string {
	label := spec.Label()
	switch spec.GroupBy {
	case schema.GroupByMonth:
		return []string{schema.MonthColumn, label}
	case schema.GroupByDay:
		return []string{schema.DayColumn, label}
	case schema.GroupByBoroughMonth:
		return []string{schema.BoroughColumn, schema.MonthColumn, label}
	default:
		return []string{schema.BoroughColumn, label}
	}
}

// expectedKeys parses spec.Keys into group keys. For the composite grouping the keys are
// boroughs expected in every observed month.
func expectedKeys(spec schema.AggregationSpec) ([]groupKey, error) {
	keys := make([]groupKey, 0, len(spec.Keys))
	for _, raw := range spec.Keys {
		switch spec.GroupBy {
		case schema.GroupByMonth, schema.GroupByDay:
			t, err := schema.ParsePeriod(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: key %q: %v", schema.ErrInvalidSpec, raw, err)
			}
			keys = append(keys, keyFor(spec.GroupBy, schema.StationRecord{Period: t}))
		default:
			keys = append(keys, groupKey{borough: schema.ParseBorough(raw)})
		}
	}
	return keys, nil
}

// carriesMetric reports whether at least one record has the metric's fields.
func carriesMetric(records []schema.StationRecord, metric schema.Metric) bool {
	for _, r := range records {
		if metric == schema.OperabilityPct && r.HasOperability() {
			return true
		}
		if metric == schema.MeanAvailabilityPct && r.HasAvailability() {
			return true
		}
	}
	return false
}

// keyFor derives the group key of a record.
func keyFor(g schema.GroupBy, r schema.StationRecord) groupKey {
	switch g {
	case schema.GroupByMonth:
		return groupKey{period: schema.MonthStart(r.Period)}
	case schema.GroupByDay:
		return groupKey{period: schema.DayStart(r.Period)}
	case schema.GroupByBoroughMonth:
		return groupKey{borough: r.Borough, period: schema.MonthStart(r.Period)}
	default:
		return groupKey{borough: r.Borough}
	}
}

// groupRecords buckets records by key. Expected keys are seeded first so that they
// exist even without contributing records.
func groupRecords(records []schema.StationRecord, g schema.GroupBy, expected []groupKey) ([]groupKey, map[groupKey]*accumulator) {
	groups := make(map[groupKey]*accumulator)
	var order []groupKey
	seed := func(k groupKey) *accumulator {
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
			order = append(order, k)
		}
		return acc
	}

	if g != schema.GroupByBoroughMonth {
		for _, k := range expected {
			seed(k)
		}
	}
	for _, r := range records {
		seed(keyFor(g, r)).add(r)
	}

	// Composite keys: every observed month gets every expected borough
	if g == schema.GroupByBoroughMonth && len(expected) > 0 {
		var months []time.Time
		seen := make(map[time.Time]bool)
		for _, k := range order {
			if !seen[k.period] {
				seen[k.period] = true
				months = append(months, k.period)
			}
		}
		for _, m := range months {
			for _, k := range expected {
				seed(groupKey{borough: k.borough, period: m})
			}
		}
	}
	return order, groups
}

// orderKeys sorts temporal keys chronologically. Ties on period keep first-seen
// borough order. Non-temporal keys keep expected keys first, then first-seen order.
func orderKeys(order []groupKey, g schema.GroupBy) []groupKey {
	if !g.IsTemporal() {
		return order
	}
	boroughRank := make(map[schema.Borough]int)
	for _, k := range order {
		if _, ok := boroughRank[k.borough]; !ok {
			boroughRank[k.borough] = len(boroughRank)
		}
	}
	sorted := append([]groupKey(nil), order...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].period.Equal(sorted[j].period) {
			return sorted[i].period.Before(sorted[j].period)
		}
		return boroughRank[sorted[i].borough] < boroughRank[sorted[j].borough]
	})
	return sorted
}

// buildRow renders one group as a table row.
func buildRow(g schema.GroupBy, key groupKey, value decimal.Decimal) schema.Row {
	switch g {
	case schema.GroupByMonth, schema.GroupByDay:
		return schema.Row{schema.TextCell(keyLabel(g, key)), schema.ValueCell(value)}
	case schema.GroupByBoroughMonth:
		return schema.Row{
			schema.TextCell(string(key.borough)),
			schema.TextCell(key.period.Format(schema.MonthLayout)),
			schema.ValueCell(value),
		}
	default:
		return schema.Row{schema.TextCell(string(key.borough)), schema.ValueCell(value)}
	}
}

// keyLabel renders a group key for rows and error messages.
func keyLabel(g schema.GroupBy, key groupKey) string {
	switch g {
	case schema.GroupByMonth:
		return key.period.Format(schema.MonthLayout)
	case schema.GroupByDay:
		return key.period.Format(schema.DayLayout)
	case schema.GroupByBoroughMonth:
		return fmt.Sprintf("%s %s", key.borough, key.period.Format(schema.MonthLayout))
	default:
		return string(key.borough)
	}
}

func emptyGroupError(g schema.GroupBy, key groupKey) error {
	return fmt.Errorf("%w: %q has no contributing records", schema.ErrEmptyGroup, keyLabel(g, key))
}
