package engine

import (
	"sort"
	"strconv"
	"strings"
)

// ============================================================================
// PIVOT ASSEMBLER — Grouping × metrics → rectangular matrix
// ============================================================================
// Column order follows the position of the "values" placeholder among the
// column dimensions:
//
//   columns: [values, place:state]   Impressions/CA, Impressions/TX, Samples/CA, ...
//   columns: [place:state, values]   CA/Impressions, CA/Samples, TX/Impressions, ...
//
// Dimensions before the placeholder are outer loops, then value metrics in
// declaration order, then dimensions after the placeholder, then segments.
// The column universe is fixed before any row is built.
// ============================================================================

// CompiledValue is a resolved value spec.
type CompiledValue struct {
	Spec      ValueSpec
	Field     *Field
	Label     string
	Aggregate string
	Display   string
	Precision int
}

// Layout carries the column-shaping settings of a compiled report.
type Layout struct {
	Values      []CompiledValue
	Placeholder int // number of column dimensions before the values placeholder
	Separator   string
	NullLabel   string
}

// Assemble builds the report columns and one result row per row group.
// segments[i] holds the segment universe of Values[i]; nil for scalars.
func Assemble(g *Grouping, layout Layout, segments [][]Segment, s Scope) ([]ReportColumn, []ResultRow) {
	s = s.normalize()
	columns := buildColumns(g.Columns, layout, segments)

	rows := make([]ResultRow, 0, len(g.Rows))
	for _, rk := range g.Rows {
		row := ResultRow{
			Key:    rk,
			Labels: rk.Labels(layout.NullLabel),
			Values: make([]*float64, len(columns)),
		}
		segCache := make(map[string]map[string]float64)
		for i, col := range columns {
			cell := g.Cell(rk, col.Column)
			if cell == nil {
				continue
			}
			v := layout.Values[col.Value]
			if !v.Field.Segmented() {
				row.Values[i] = aggregateScalar(cell, v.Field, v.Aggregate, s)
				continue
			}
			ck := col.Column.ID() + "\x1e" + strconv.Itoa(col.Value)
			bySeg, ok := segCache[ck]
			if !ok {
				bySeg = AggregateSegments(cell, v.Field, v.Aggregate, segments[col.Value])
				segCache[ck] = bySeg
			}
			n := bySeg[col.Segment]
			row.Values[i] = &n
		}
		rows = append(rows, row)
	}
	return columns, rows
}

type columnSlot struct {
	col     GroupKey
	value   int
	segment int
	seg     Segment
}

func buildColumns(tuples []GroupKey, layout Layout, segments [][]Segment) []ReportColumn {
	var slots []columnSlot
	for _, t := range tuples {
		for vi, v := range layout.Values {
			if !v.Field.Segmented() {
				slots = append(slots, columnSlot{col: t, value: vi})
				continue
			}
			for si, seg := range segments[vi] {
				slots = append(slots, columnSlot{col: t, value: vi, segment: si, seg: seg})
			}
		}
	}

	split := func(k GroupKey) (GroupKey, GroupKey) {
		p := layout.Placeholder
		if p > len(k) {
			p = len(k)
		}
		return k[:p], k[p:]
	}
	sort.SliceStable(slots, func(i, j int) bool {
		oi, ii := split(slots[i].col)
		oj, ij := split(slots[j].col)
		if c := CompareKeys(oi, oj); c != 0 {
			return c < 0
		}
		if slots[i].value != slots[j].value {
			return slots[i].value < slots[j].value
		}
		if c := CompareKeys(ii, ij); c != 0 {
			return c < 0
		}
		return slots[i].segment < slots[j].segment
	})

	columns := make([]ReportColumn, len(slots))
	for i, sl := range slots {
		v := layout.Values[sl.value]
		metric := v.Label
		if v.Field.Segmented() {
			metric = v.Label + ": " + sl.seg.Name
		}
		parts := append(sl.col.Labels(layout.NullLabel), metric)
		columns[i] = ReportColumn{
			Index:       i,
			Column:      sl.col,
			Value:       sl.value,
			ValueLabel:  v.Label,
			Segment:     sl.seg.ID,
			SegmentName: sl.seg.Name,
			Label:       strings.Join(parts, layout.Separator),
		}
	}
	return columns
}
