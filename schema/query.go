package schema

import "time"

// Query selects rows of a dataset. Periods and the Since/Until range are mutually exclusive.
type Query struct {
	Fields      FieldMap
	PeriodField string
	Periods     []string
	Since       time.Time
	Until       time.Time
	Filters     map[string]string
	Limit       int
}

// HasRange reports whether the query selects a time range instead of explicit periods.
func (q Query) HasRange() bool {
	return !q.Since.IsZero()
}
