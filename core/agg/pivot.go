package agg

import (
	"fmt"

	"github.com/huangsam/liftwatch/schema"
)

// Pivot turns a composite long-form table {Borough, Month, metric} into the wide form
// {Month, <borough>...}. Boroughs keep first-seen order and missing cells are blank.
func Pivot(long schema.ChartTable) (schema.ChartTable, error) {
	if len(long.Columns) != 3 || long.Columns[0] != schema.BoroughColumn || long.Columns[1] != schema.MonthColumn {
		return schema.ChartTable{}, fmt.Errorf("%w: pivot needs columns %s, %s and a metric", schema.ErrInvalidSpec, schema.BoroughColumn, schema.MonthColumn)
	}

	var boroughs, months []string
	boroughIdx := make(map[string]int)
	monthIdx := make(map[string]int)
	values := make(map[[2]string]schema.Cell)

	for _, row := range long.Rows {
		b, m := row[0].Text, row[1].Text
		if _, ok := boroughIdx[b]; !ok {
			boroughIdx[b] = len(boroughs)
			boroughs = append(boroughs, b)
		}
		if _, ok := monthIdx[m]; !ok {
			monthIdx[m] = len(months)
			months = append(months, m)
		}
		values[[2]string{m, b}] = row[2]
	}

	wide := schema.NewChartTable(append([]string{schema.MonthColumn}, boroughs...)...)
	for _, m := range months {
		row := make(schema.Row, 0, len(boroughs)+1)
		row = append(row, schema.TextCell(m))
		for _, b := range boroughs {
			if c, ok := values[[2]string{m, b}]; ok {
				row = append(row, c)
			} else {
				row = append(row, schema.BlankCell())
			}
		}
		wide.Rows = append(wide.Rows, row)
	}
	return wide, nil
}
