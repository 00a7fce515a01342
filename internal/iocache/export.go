package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/internal/parquet"
)

// ExecuteHistoryExport writes the run history of store to <outputFile>.runs.parquet
// and <outputFile>.charts.parquet.
func ExecuteHistoryExport(store contract.HistoryStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total chart records: %d\n", status.TotalCharts)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	charts, err := store.GetAllCharts()
	if err != nil {
		return fmt.Errorf("failed to retrieve chart outcomes: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	parquetCharts := parquet.ConvertChartRecords(charts)

	runsFile := outputFile + ".runs.parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	chartsFile := outputFile + ".charts.parquet"
	if err := parquet.WriteChartsParquet(parquetCharts, chartsFile); err != nil {
		return fmt.Errorf("failed to write chart outcomes: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d chart records to: %s\n", len(parquetCharts), chartsFile)

	_, _ = fmt.Fprintln(w, "\nExport complete! The Parquet files can be read with DuckDB, Pandas (via pyarrow) or Spark.")
	return nil
}
