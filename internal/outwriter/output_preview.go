package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/internal/contract"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// writePreviewTable renders one table per chart with a heading line.
func writePreviewTable(w io.Writer, previews []core.ChartPreview, cfg *contract.Config) error {
	if len(previews) == 0 {
		_, err := fmt.Fprintln(w, "No charts to preview")
		return err
	}
	for i, p := range previews {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		chartID := p.ChartID
		if chartID == "" {
			chartID = "(no chart id)"
		}
		heading := fmt.Sprintf("%s %s: %s", p.Job, chartID, p.Title)
		if cfg.UseEmojis {
			heading = "📈 " + heading
		}
		if _, err := fmt.Fprintln(w, heading); err != nil {
			return err
		}
		if p.Table.IsEmpty() {
			if _, err := fmt.Fprintf(w, "No data for %s\n", p.Label); err != nil {
				return err
			}
			continue
		}

		table := tablewriter.NewWriter(w)
		table.Header(p.Table.Columns)
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})
		if err := table.Bulk(p.Table.DataRecords()); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}

// writePreviewCSV writes every chart as rows prefixed by job, chart id and title.
// The header is repeated whenever the table columns change.
func writePreviewCSV(w io.Writer, previews []core.ChartPreview) error {
	csvWriter := csv.NewWriter(w)
	var columns []string
	for _, p := range previews {
		if columns == nil || !slices.Equal(columns, p.Table.Columns) {
			columns = p.Table.Columns
			header := append([]string{"job", "chart_id", "title"}, columns...)
			if err := csvWriter.Write(header); err != nil {
				return fmt.Errorf("failed to write CSV header: %w", err)
			}
		}
		for _, rec := range p.Table.DataRecords() {
			row := append([]string{p.Job, p.ChartID, p.Title}, rec...)
			if err := csvWriter.Write(row); err != nil {
				return err
			}
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
