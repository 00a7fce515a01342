// Package schema has configs, models and errors for all parts of liftwatch.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Borough is one of the five administrative divisions of New York City.
type Borough string

// All boroughs known to the datasets. Staten Island is often absent upstream.
const (
	Manhattan    Borough = "Manhattan"
	Brooklyn     Borough = "Brooklyn"
	Queens       Borough = "Queens"
	Bronx        Borough = "Bronx"
	StatenIsland Borough = "Staten Island"
)

// AllBoroughs returns the boroughs in the order the transit authority publishes them.
var AllBoroughs = []Borough{Manhattan, Brooklyn, Queens, Bronx, StatenIsland}

// boroughAliases maps lowercase spellings seen in the datasets to the canonical name.
var boroughAliases = map[string]Borough{
	"manhattan":     Manhattan,
	"m":             Manhattan,
	"brooklyn":      Brooklyn,
	"bk":            Brooklyn,
	"queens":        Queens,
	"q":             Queens,
	"bronx":         Bronx,
	"the bronx":     Bronx,
	"bx":            Bronx,
	"staten island": StatenIsland,
	"staten is":     StatenIsland,
	"si":            StatenIsland,
}

// ParseBorough normalizes a borough name. Unknown names are kept verbatim.
func ParseBorough(s string) Borough {
	trimmed := strings.TrimSpace(s)
	if b, ok := boroughAliases[strings.ToLower(trimmed)]; ok {
		return b
	}
	return Borough(trimmed)
}

// Operability is the state of one directional ADA entrance.
type Operability string

// All operability states.
const (
	Operational    Operability = "operational"
	NotOperational Operability = "not-operational"
)

// ParseOperability converts a source flag into an Operability.
// It returns false when the token is not recognized.
func ParseOperability(s string) (Operability, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1", "operational":
		return Operational, true
	case "n", "no", "false", "0", "not-operational", "not operational":
		return NotOperational, true
	default:
		return "", false
	}
}

// ValidFraction reports whether an availability fraction lies in [0, 1].
func ValidFraction(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(decimal.NewFromInt(1))
}

// StationRecord is one row of raw input from the open-data endpoint.
type StationRecord struct {
	StationID    string           `json:"station_id"`
	Borough      Borough          `json:"borough"`
	Period       time.Time        `json:"period"`
	Availability *decimal.Decimal `json:"availability,omitempty"`
	Northbound   *Operability     `json:"ada_northbound,omitempty"`
	Southbound   *Operability     `json:"ada_southbound,omitempty"`
}

// HasAvailability reports whether the record carries an availability fraction.
func (r StationRecord) HasAvailability() bool {
	return r.Availability != nil
}

// HasOperability reports whether the record carries both directional flags.
func (r StationRecord) HasOperability() bool {
	return r.Northbound != nil && r.Southbound != nil
}

// FullyOperational reports whether both directional entrances are operational.
func (r StationRecord) FullyOperational() bool {
	return r.HasOperability() && *r.Northbound == Operational && *r.Southbound == Operational
}

// periodLayouts lists the timestamp layouts the datasets use, most specific first.
var periodLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
	DayLayout,
	MonthLayout,
}

// ParsePeriod parses the floating timestamps returned by the open-data API.
// Values carry no zone and are interpreted as UTC.
func ParsePeriod(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range periodLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized period %q", s)
}

// FormatPeriod renders a period the way the open-data API expects it in filters.
func FormatPeriod(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000")
}

// MonthStart truncates a time to the first instant of its month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DayStart truncates a time to the first instant of its day.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
