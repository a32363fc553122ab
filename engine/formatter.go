package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

// ============================================================================
// DISPLAY FORMATTER — Raw values → display strings
// ============================================================================
// Each value metric formats its own columns only:
//
//   perc_of_row     cell / sum of the metric's cells in the same row
//   perc_of_column  cell / sum of the column over all rows
//   perc_of_total   cell / sum of all the metric's cells over all rows
//
// Rounding is half away from zero at the metric's precision. Null and
// non-finite cells render as "". A zero denominator renders 0%.
// ============================================================================

var hundred = decimal.NewFromInt(100)

// ColumnsTotals returns the raw sum of every report column over all rows of
// the evaluation, nulls skipped.
func (p *Page) ColumnsTotals() []float64 {
	out := make([]float64, len(p.totals))
	copy(out, p.totals)
	return out
}

// FormatValues renders one row's raw values, aligned to p.Columns.
func (p *Page) FormatValues(values []*float64) []string {
	out := make([]string, len(values))
	if len(values) != len(p.Columns) {
		for i, v := range values {
			out[i] = formatNumber(v, DefaultPrecision)
		}
		return out
	}

	rowSums := make(map[int]float64)
	widths := make(map[int]int)
	for i, col := range p.Columns {
		widths[col.Value]++
		if values[i] != nil {
			rowSums[col.Value] += *values[i]
		}
	}

	for i, col := range p.Columns {
		v := p.values[col.Value]
		cell := values[i]
		if cell == nil {
			continue
		}
		switch v.Display {
		case DisplayPercentRow:
			if widths[col.Value] < 2 {
				out[i] = formatNumber(cell, v.Precision)
				continue
			}
			out[i] = formatPercent(*cell, rowSums[col.Value], v.Precision)
		case DisplayPercentColumn:
			out[i] = formatPercent(*cell, p.totals[i], v.Precision)
		case DisplayPercentTotal:
			out[i] = formatPercent(*cell, p.metricTotal(col.Value), v.Precision)
		default:
			out[i] = formatNumber(cell, v.Precision)
		}
	}
	return out
}

// metricTotal sums every column of value metric vi over all rows.
func (p *Page) metricTotal(vi int) float64 {
	var total float64
	for i, col := range p.Columns {
		if col.Value == vi {
			total += p.totals[i]
		}
	}
	return total
}

func columnsTotals(columns []ReportColumn, rows []ResultRow) []float64 {
	totals := make([]float64, len(columns))
	for _, r := range rows {
		for i, v := range r.Values {
			if i < len(totals) && v != nil {
				totals[i] += *v
			}
		}
	}
	return totals
}

func formatNumber(v *float64, precision int) string {
	if v == nil || !finite(*v) {
		return ""
	}
	return decimal.NewFromFloat(*v).StringFixed(int32(precision))
}

func formatPercent(cell, denom float64, precision int) string {
	if !finite(cell) {
		return ""
	}
	pct := decimal.Zero
	if denom != 0 && finite(denom) {
		pct = decimal.NewFromFloat(cell).Mul(hundred).Div(decimal.NewFromFloat(denom))
	}
	return pct.StringFixed(int32(precision)) + "%"
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
