package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Define the regular expression to capture "N [units]" with an optional "ago".
// e.g., "30 days", "6 months ago", "1 week".
var lookbackRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour)s?(\s+ago)?$`)

// ResolveSince returns the start of a relative window ending at now.
// Calendar units use calendar arithmetic so "6 months" lands on the same day of month.
func ResolveSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return time.Time{}, errors.New("lookback must be positive")
		}
		return now.Add(-d), nil
	}

	value, unit, err := parseLookback(s)
	if err != nil {
		return time.Time{}, err
	}

	switch unit {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.AddDate(0, 0, -7*value), nil
	case "day":
		return now.AddDate(0, 0, -value), nil
	default:
		return now.Add(time.Duration(-value) * time.Hour), nil
	}
}

// parseLookback splits "N [units]" into its value and singular unit.
func parseLookback(s string) (int, string, error) {
	matches := lookbackRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if len(matches) == 0 {
		return 0, "", fmt.Errorf("invalid lookback format: %q", s)
	}

	// 1: Value (e.g., "2")
	// 2: Unit (e.g., "year" or "month")
	value, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, "", fmt.Errorf("invalid lookback value: %q", s)
	}
	if value == 0 {
		return 0, "", errors.New("zero lookback is not useful")
	}
	return value, matches[2], nil
}
