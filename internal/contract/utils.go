package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/liftwatch/schema"
)

// Color variables for console output.
var (
	UpdatedColor = color.New(color.FgGreen, color.Bold) // UpdatedColor marks a published chart.
	FailedColor  = color.New(color.FgRed, color.Bold)   // FailedColor marks a chart that could not be published.
	SkippedColor = color.New(color.FgYellow)            // SkippedColor marks a chart with no data.
	DryRunColor  = color.New(color.FgCyan)              // DryRunColor marks a chart that was only rendered.
)

// statusEmojis prefix console progress lines.
var statusEmojis = map[schema.ChartStatus]string{
	schema.UpdatedStatus: "✅",
	schema.SkippedStatus: "⏭️",
	schema.FailedStatus:  "❌",
	schema.DryRunStatus:  "📝",
}

// GetPlainStatus returns the uppercase status label used in CSV, JSON and plain tables.
func GetPlainStatus(status schema.ChartStatus) string {
	return strings.ToUpper(string(status))
}

// GetColorStatus returns a colored status label for console output.
func GetColorStatus(status schema.ChartStatus) string {
	text := GetPlainStatus(status)

	switch status {
	case schema.UpdatedStatus:
		return UpdatedColor.Sprint(text)
	case schema.FailedStatus:
		return FailedColor.Sprint(text)
	case schema.SkippedStatus:
		return SkippedColor.Sprint(text)
	default:
		return DryRunColor.Sprint(text)
	}
}

// GetStatusEmoji returns the emoji prefix of a status, or an empty string.
func GetStatusEmoji(status schema.ChartStatus) string {
	return statusEmojis[status]
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".liftwatch_history.db"
	}
	return filepath.Join(homeDir, ".liftwatch_history.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
