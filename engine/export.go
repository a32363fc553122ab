package engine

import "fmt"

// ============================================================================
// EXPORT — Page → TableData
// ============================================================================
// Header: row field labels, then report column labels ("CA/Impressions").
// Body:   row labels, then formatted cells in report column order.
// Footer: formatted raw column totals over every row of the evaluation.
//
// Export renders the whole evaluation, not only the current page.
// ============================================================================

// Export flattens the evaluation into a table.
func (p *Page) Export(title string) *TableData {
	columns := make([]Column, 0, len(p.RowLabels)+len(p.Columns))
	for i, label := range p.RowLabels {
		columns = append(columns, Column{
			Key:   fmt.Sprintf("row_%d", i),
			Label: label,
			Type:  "text",
			Align: "left",
		})
	}
	for _, col := range p.Columns {
		typ := "number"
		if p.values[col.Value].Display != DisplayNone {
			typ = "percentage"
		}
		columns = append(columns, Column{
			Key:   columnKey(col),
			Label: col.Label,
			Type:  typ,
			Align: "right",
		})
	}

	rows := make([][]string, 0, len(p.all))
	for _, r := range p.all {
		row := make([]string, 0, len(columns))
		row = append(row, r.Labels...)
		row = append(row, p.FormatValues(r.Values)...)
		rows = append(rows, row)
	}

	summary := &Summary{
		Label:  "Total",
		Values: make(map[string]string, len(p.Columns)),
	}
	for i, col := range p.Columns {
		total := p.totals[i]
		summary.Values[columnKey(col)] = formatNumber(&total, p.values[col.Value].Precision)
	}

	return &TableData{
		Title:   title,
		Columns: columns,
		Rows:    rows,
		Summary: summary,
	}
}

func columnKey(col ReportColumn) string {
	return fmt.Sprintf("col_%d", col.Index)
}
