package schema

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cell is one value of a chart table. Exactly one of Text or Value is meaningful.
type Cell struct {
	Text    string
	Value   decimal.Decimal
	Numeric bool
	Blank   bool
}

// TextCell returns a cell holding a label.
func TextCell(s string) Cell {
	return Cell{Text: s}
}

// ValueCell returns a cell holding a percentage.
func ValueCell(d decimal.Decimal) Cell {
	return Cell{Value: d, Numeric: true}
}

// BlankCell returns a cell with no value, used for missing pivot entries.
func BlankCell() Cell {
	return Cell{Blank: true}
}

// String renders the cell the way it appears in CSV payloads.
func (c Cell) String() string {
	switch {
	case c.Blank:
		return ""
	case c.Numeric:
		return c.Value.StringFixedBank(PercentDecimalPlaces)
	default:
		return c.Text
	}
}

// MarshalJSON emits numeric cells as JSON numbers and text cells as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch {
	case c.Blank:
		return []byte("null"), nil
	case c.Numeric:
		return []byte(c.Value.StringFixedBank(PercentDecimalPlaces)), nil
	default:
		return json.Marshal(c.Text)
	}
}

// Row is an ordered list of cells aligned with ChartTable.Columns.
type Row []Cell

// ChartTable is the chart-ready payload sent to the charting service.
type ChartTable struct {
	Columns []string
	Rows    []Row
}

// NewChartTable returns an empty table with the given columns.
func NewChartTable(columns ...string) ChartTable {
	return ChartTable{Columns: columns, Rows: []Row{}}
}

// Len returns the number of rows.
func (t ChartTable) Len() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has no rows.
func (t ChartTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the position of the column label, or -1.
func (t ChartTable) ColumnIndex(label string) int {
	for i, c := range t.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// Cell returns the cell at row i under the column label.
func (t ChartTable) Cell(i int, label string) (Cell, bool) {
	j := t.ColumnIndex(label)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return Cell{}, false
	}
	return t.Rows[i][j], true
}

// Records renders the header and all rows as string records.
func (t ChartTable) Records() [][]string {
	return append([][]string{append([]string(nil), t.Columns...)}, t.DataRecords()...)
}

// DataRecords renders the rows as string records, without the header.
func (t ChartTable) DataRecords() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, c := range row {
			rec[i] = c.String()
		}
		out = append(out, rec)
	}
	return out
}

// CSV renders the table as a CSV document with a header row.
func (t ChartTable) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.Records()); err != nil {
		return nil, fmt.Errorf("error writing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Maps returns one column-keyed map per row, used for JSON output.
func (t ChartTable) Maps() []map[string]Cell {
	out := make([]map[string]Cell, 0, len(t.Rows))
	for _, row := range t.Rows {
		m := make(map[string]Cell, len(t.Columns))
		for i, label := range t.Columns {
			if i < len(row) {
				m[label] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}
