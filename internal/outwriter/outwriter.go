// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"io"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePreviews prints aggregated chart tables using the configured output format.
func (ow *OutWriter) WritePreviews(previews []core.ChartPreview, cfg *contract.Config) error {
	return dispatch(cfg, "previews", func(w io.Writer) error {
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, previews)
		case schema.CSVOut:
			return writePreviewCSV(w, previews)
		default:
			return writePreviewTable(w, previews, cfg)
		}
	})
}

// WritePeriods prints the distinct periods of a job using the configured output format.
func (ow *OutWriter) WritePeriods(job schema.ChartJob, periods []string, cfg *contract.Config) error {
	return dispatch(cfg, "periods", func(w io.Writer) error {
		views := buildPeriodViews(periods)
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, views)
		case schema.CSVOut:
			return writePeriodCSV(w, views)
		default:
			return writePeriodTable(w, job, views)
		}
	})
}

// WriteJobs prints the configured jobs using the configured output format.
func (ow *OutWriter) WriteJobs(jobs []schema.ChartJob, cfg *contract.Config) error {
	return dispatch(cfg, "jobs", func(w io.Writer) error {
		views := buildJobViews(jobs)
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, views)
		case schema.CSVOut:
			return writeJobCSV(w, views)
		default:
			return writeJobTable(w, views, cfg)
		}
	})
}

// WriteRunSummary prints the outcomes of an update run using the configured output format.
func (ow *OutWriter) WriteRunSummary(summary schema.RunSummary, cfg *contract.Config) error {
	return dispatch(cfg, "run summary", func(w io.Writer) error {
		views := buildOutcomeViews(summary)
		switch cfg.Output {
		case schema.JSONOut:
			return writeJSON(w, struct {
				RunID    string        `json:"run_id"`
				Updated  int           `json:"updated"`
				Skipped  int           `json:"skipped"`
				Failed   int           `json:"failed"`
				DryRun   int           `json:"dry_run"`
				Outcomes []outcomeView `json:"outcomes"`
			}{summary.RunID, summary.Updated, summary.Skipped, summary.Failed, summary.DryRun, views})
		case schema.CSVOut:
			return writeOutcomeCSV(w, views)
		default:
			return writeOutcomeTable(w, views, cfg)
		}
	})
}

// dispatch wraps one rendering in file handling and a uniform error message.
func dispatch(cfg *contract.Config, what string, render func(io.Writer) error) error {
	label := "table"
	switch cfg.Output {
	case schema.JSONOut:
		label = "JSON"
	case schema.CSVOut:
		label = "CSV"
	}
	if err := writeWithFile(cfg.OutputFile, render, "Wrote "+label); err != nil {
		return fmt.Errorf("error writing %s %s output: %w", what, label, err)
	}
	return nil
}
