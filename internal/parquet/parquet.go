// Package parquet exports run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/liftwatch/schema"
	"github.com/parquet-go/parquet-go"
)

// Run is one update run. It maps to the liftwatch_runs table.
type Run struct {
	// RunID is the unique identifier of the run
	RunID string `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable for interrupted runs)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// Jobs is the comma-separated list of jobs the run executed
	Jobs string `parquet:"jobs,snappy"`

	DryRun  bool  `parquet:"dry_run,snappy"`
	Updated int32 `parquet:"updated_count,snappy"`
	Skipped int32 `parquet:"skipped_count,snappy"`
	Failed  int32 `parquet:"failed_count,snappy"`
}

// ChartOutcome is the result of one chart target. It maps to the liftwatch_charts table.
type ChartOutcome struct {
	RunID   string `parquet:"run_id,snappy"`
	Job     string `parquet:"job,snappy"`
	ChartID string `parquet:"chart_id,snappy"`
	Title   string `parquet:"title,snappy"`

	// Period is the raw period or borough label the chart covers
	Period   string `parquet:"period,snappy"`
	RowCount int32  `parquet:"row_count,snappy"`
	Status   string `parquet:"status,snappy"`

	// FailedStep and ErrorText are only set for failed charts
	FailedStep *string `parquet:"failed_step,optional,snappy"`
	ErrorText  *string `parquet:"error_text,optional,snappy"`

	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// writeParquet writes rows to a new file at outputPath using struct schema inference.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer, so its error matters
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRunsParquet writes runs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteChartsParquet writes chart outcomes to a Parquet file.
func WriteChartsParquet(data []ChartOutcome, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:     record.RunID,
			StartTime: record.StartTime,
			EndTime:   record.EndTime,
			Jobs:      record.Jobs,
			DryRun:    record.DryRun,
			Updated:   record.Updated,
			Skipped:   record.Skipped,
			Failed:    record.Failed,
		}
	}
	return result
}

// ConvertChartRecords converts schema.ChartRecord to ChartOutcome for Parquet export.
func ConvertChartRecords(records []schema.ChartRecord) []ChartOutcome {
	result := make([]ChartOutcome, len(records))
	for i, record := range records {
		result[i] = ChartOutcome{
			RunID:      record.RunID,
			Job:        record.Job,
			ChartID:    record.ChartID,
			Title:      record.Title,
			Period:     record.Period,
			RowCount:   record.RowCount,
			Status:     string(record.Status),
			FailedStep: record.FailedStep,
			ErrorText:  record.ErrorText,
			RecordedAt: record.RecordedAt,
		}
	}
	return result
}
