package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/liftwatch/internal/contract"
	"github.com/huangsam/liftwatch/schema"

	"github.com/olekukonko/tablewriter"
)

// outcomeView is one chart outcome with its error flattened to text.
type outcomeView struct {
	Job     string             `json:"job"`
	ChartID string             `json:"chart_id"`
	Title   string             `json:"title"`
	Period  string             `json:"period,omitempty"`
	Rows    int                `json:"rows"`
	Status  schema.ChartStatus `json:"status"`
	Step    string             `json:"step,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func buildOutcomeViews(summary schema.RunSummary) []outcomeView {
	views := make([]outcomeView, len(summary.Outcomes))
	for i, o := range summary.Outcomes {
		views[i] = outcomeView{
			Job: o.Job, ChartID: o.ChartID, Title: o.Title, Period: o.Period,
			Rows: o.Rows, Status: o.Status, Step: o.Step,
		}
		if o.Err != nil {
			views[i].Error = o.Err.Error()
		}
	}
	return views
}

func writeOutcomeTable(w io.Writer, views []outcomeView, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Job", "Chart", "Title", "Rows", "Status", "Detail"})
	detailWidth := GetMaxTableTextWidth(cfg, 60)
	data := make([][]string, 0, len(views))
	for _, v := range views {
		status := contract.GetPlainStatus(v.Status)
		if cfg.UseColors {
			status = contract.GetColorStatus(v.Status)
		}
		detail := v.Error
		if v.Step != "" {
			detail = v.Step + ": " + detail
		}
		data = append(data, []string{v.Job, v.ChartID, v.Title, strconv.Itoa(v.Rows), status, truncate(detail, detailWidth)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d charts\n", len(views))
	return err
}

func writeOutcomeCSV(w io.Writer, views []outcomeView) error {
	header := []string{"job", "chart_id", "title", "period", "rows", "status", "step", "error"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, v := range views {
			rec := []string{v.Job, v.ChartID, v.Title, v.Period, strconv.Itoa(v.Rows), contract.GetPlainStatus(v.Status), v.Step, v.Error}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
