// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/liftwatch/schema"
)

// RecordSource defines the read operations against the open-data endpoint.
// This allows the orchestrator to be tested without network access.
type RecordSource interface {
	// DistinctPeriods returns up to limit distinct values of field, most recent first.
	DistinctPeriods(ctx context.Context, dataset string, field string, limit int) ([]string, error)

	// Fetch returns the records of dataset selected by the query.
	Fetch(ctx context.Context, dataset string, q schema.Query) ([]schema.StationRecord, error)
}

// ChartPublisher defines the write operations against the hosted charting service.
type ChartPublisher interface {
	// Publish replaces the chart data, sets its title and publishes it.
	Publish(ctx context.Context, chartID string, table schema.ChartTable, title string) error
}

// HistoryStore defines the interface for tracking runs and their chart outcomes.
type HistoryStore interface {
	// BeginRun records the start of a run
	BeginRun(runID string, startTime time.Time, jobs []string, dryRun bool) error

	// RecordChart stores the outcome of a single chart update
	RecordChart(record schema.ChartRecord) error

	// EndRun updates the run with completion data
	EndRun(runID string, endTime time.Time, summary schema.RunSummary) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllCharts returns every recorded chart outcome, oldest first
	GetAllCharts() ([]schema.ChartRecord, error)

	// Close closes the underlying connection
	Close() error
}
