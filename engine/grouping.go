package engine

import "sort"

// ============================================================================
// GROUPING — Row × column groups via EventView
// ============================================================================
// Each event resolves to one row tuple and one column tuple per combination
// of its dimension values. Multi-valued associations fan out like a SQL join:
// an event staffed by two users lands in both users' rows.
//
// Cells hold SubViews (index lists into the filtered view).
// ============================================================================

// Grouping is the result of grouping a view by row and column dimensions.
type Grouping struct {
	Rows    []GroupKey // sorted row tuples observed in the data
	Columns []GroupKey // sorted column tuples; one empty tuple when none declared

	view  EventView
	cells map[string]map[string][]int
}

// GroupEvents groups view by the row and column fields.
func GroupEvents(view EventView, rows, cols []*Field, s Scope) *Grouping {
	s = s.normalize()
	g := &Grouping{
		view:  view,
		cells: make(map[string]map[string][]int),
	}
	rowSeen := make(map[string]bool)
	colSeen := make(map[string]bool)

	for i := 0; i < view.Len(); i++ {
		e := view.Event(i)
		rowKeys := expandKeys(e, rows, s)
		colKeys := expandKeys(e, cols, s)

		for _, rk := range rowKeys {
			rid := rk.ID()
			if !rowSeen[rid] {
				rowSeen[rid] = true
				g.Rows = append(g.Rows, rk)
				g.cells[rid] = make(map[string][]int)
			}
			for _, ck := range colKeys {
				cid := ck.ID()
				if !colSeen[cid] {
					colSeen[cid] = true
					g.Columns = append(g.Columns, ck)
				}
				g.cells[rid][cid] = append(g.cells[rid][cid], i)
			}
		}
	}

	sortKeys(g.Rows)
	sortKeys(g.Columns)
	if len(cols) == 0 {
		g.Columns = []GroupKey{{}}
	}
	return g
}

// Cell returns the events of one row × column group, or nil when the
// combination has no events.
func (g *Grouping) Cell(row, col GroupKey) EventView {
	byCol, ok := g.cells[row.ID()]
	if !ok {
		return nil
	}
	indices, ok := byCol[col.ID()]
	if !ok {
		return nil
	}
	return newSubView(g.view, indices)
}

// View returns the grouped view.
func (g *Grouping) View() EventView { return g.view }

// expandKeys returns the cross product of the distinct values of each field,
// in field order. A field without values contributes null.
func expandKeys(e *Event, fields []*Field, s Scope) []GroupKey {
	keys := []GroupKey{{}}
	for _, f := range fields {
		values := distinct(f.Values(e, s))
		if len(values) == 0 {
			values = one(Null())
		}
		next := make([]GroupKey, 0, len(keys)*len(values))
		for _, k := range keys {
			for _, v := range values {
				nk := make(GroupKey, len(k), len(k)+1)
				copy(nk, k)
				next = append(next, append(nk, v))
			}
		}
		keys = next
	}
	return keys
}

func distinct(values []Value) []Value {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		k := v.Key()
		if !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
	}
	return out
}

func sortKeys(keys []GroupKey) {
	sort.SliceStable(keys, func(i, j int) bool { return CompareKeys(keys[i], keys[j]) < 0 })
}
