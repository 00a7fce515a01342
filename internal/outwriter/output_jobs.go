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

// jobView is the printable form of a chart job.
type jobView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Dataset     string `json:"dataset"`
	GroupBy     string `json:"group_by"`
	Metric      string `json:"metric"`
	Split       string `json:"split"`
	Window      string `json:"window"`
	Charts      int    `json:"charts"`
}

func buildJobViews(jobs []schema.ChartJob) []jobView {
	views := make([]jobView, len(jobs))
	for i, j := range jobs {
		views[i] = jobView{
			Name:        j.Name,
			Description: j.Description,
			Dataset:     j.Dataset,
			GroupBy:     string(j.Spec.GroupBy),
			Metric:      string(j.Spec.Metric),
			Split:       string(j.Split),
			Window:      describeWindow(j.Window),
			Charts:      len(j.Charts),
		}
	}
	return views
}

// describeWindow renders a window as "recent 6", "since 30 days" or "periods 3".
func describeWindow(w schema.Window) string {
	switch w.Kind() {
	case "periods":
		return fmt.Sprintf("periods %d", len(w.Periods))
	case "since":
		return "since " + w.Since
	default:
		return fmt.Sprintf("recent %d", w.Recent)
	}
}

func writeJobTable(w io.Writer, views []jobView, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Name", "Dataset", "Group By", "Metric", "Split", "Window", "Charts", "Description"})
	descWidth := GetMaxTableTextWidth(cfg, 100)
	data := make([][]string, 0, len(views))
	for _, v := range views {
		data = append(data, []string{
			v.Name, v.Dataset, v.GroupBy, v.Metric, v.Split, v.Window,
			strconv.Itoa(v.Charts), truncate(v.Description, descWidth),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d jobs\n", len(views))
	return err
}

func writeJobCSV(w io.Writer, views []jobView) error {
	header := []string{"name", "dataset", "group_by", "metric", "split", "window", "charts", "description"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, v := range views {
			rec := []string{v.Name, v.Dataset, v.GroupBy, v.Metric, v.Split, v.Window, strconv.Itoa(v.Charts), v.Description}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
