package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/liftwatch/core"
	"github.com/huangsam/liftwatch/schema"

	"github.com/olekukonko/tablewriter"
)

// periodView is one distinct period of a dataset.
type periodView struct {
	Index  int    `json:"index"`
	Period string `json:"period"`
	Label  string `json:"label"`
}

func buildPeriodViews(periods []string) []periodView {
	views := make([]periodView, len(periods))
	for i, raw := range periods {
		label := raw
		if p, err := schema.ParsePeriod(raw); err == nil {
			label = p.Format(core.DefaultTitleLayout)
		}
		views[i] = periodView{Index: i, Period: raw, Label: label}
	}
	return views
}

func writePeriodTable(w io.Writer, job schema.ChartJob, views []periodView) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Period", "Label"})
	data := make([][]string, 0, len(views))
	for _, v := range views {
		data = append(data, []string{strconv.Itoa(v.Index), v.Period, v.Label})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d periods of %s (%s)\n", len(views), job.Dataset, job.PeriodField)
	return err
}

func writePeriodCSV(w io.Writer, views []periodView) error {
	return writeCSVWithHeader(w, []string{"index", "period", "label"}, func(cw *csv.Writer) error {
		for _, v := range views {
			if err := cw.Write([]string{strconv.Itoa(v.Index), v.Period, v.Label}); err != nil {
				return err
			}
		}
		return nil
	})
}
