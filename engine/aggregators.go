package engine

import (
	"fmt"
	"sort"
)

// ============================================================================
// AGGREGATORS — Per-group reduction and segment expansion via EventView
// ============================================================================
// Scalar metrics reduce each cell's events to one number (or nil when the
// aggregate is undefined, e.g. avg of nothing). Segmented KPIs reduce to one
// number per segment, where the segment universe is discovered once over the
// whole filtered view so every cell carries every segment.
// ============================================================================

// Segment is one expanded sub-column of a segmented metric.
type Segment struct {
	ID   string
	Name string
}

// CheckAggregate verifies that fn can be applied to f.
func CheckAggregate(f *Field, fn string) error {
	switch fn {
	case AggCount:
		return nil
	case AggSum, AggAvg, AggMin, AggMax:
		if f.Numeric() {
			return nil
		}
		return fmt.Errorf("%w: %s of %s field %q", ErrAggregationTypeMismatch, fn, f.Kind, f.Key)
	}
	return fmt.Errorf("%w: unknown aggregate %q", ErrInvalidDefinition, fn)
}

// AggregateScalar reduces the events of one group for a scalar metric.
// Sum and count of nothing are 0; avg, min and max of nothing are nil.
func AggregateScalar(view EventView, f *Field, fn string, s Scope) *float64 {
	if view == nil {
		return nil
	}
	return aggregateScalar(view, f, fn, s.normalize())
}

func aggregateScalar(view EventView, f *Field, fn string, s Scope) *float64 {
	if fn == AggCount {
		n := countValues(view, f, s)
		return &n
	}

	var (
		total  float64
		n      int
		lo, hi float64
	)
	for i := 0; i < view.Len(); i++ {
		if f.Observe == nil {
			break
		}
		for _, v := range f.Observe(view.Event(i), s) {
			if n == 0 || v < lo {
				lo = v
			}
			if n == 0 || v > hi {
				hi = v
			}
			total += v
			n++
		}
	}

	switch fn {
	case AggSum:
		return &total
	case AggAvg:
		if n == 0 {
			return nil
		}
		avg := total / float64(n)
		return &avg
	case AggMin:
		if n == 0 {
			return nil
		}
		return &lo
	case AggMax:
		if n == 0 {
			return nil
		}
		return &hi
	}
	return nil
}

// countValues counts child entities when the field declares them, numeric
// observations when it has them, and non-null dimension values otherwise.
func countValues(view EventView, f *Field, s Scope) float64 {
	var n int
	for i := 0; i < view.Len(); i++ {
		e := view.Event(i)
		switch {
		case f.Count != nil:
			n += f.Count(e)
		case f.Observe != nil:
			n += len(f.Observe(e, s))
		default:
			for _, v := range distinct(f.Values(e, s)) {
				if !v.IsNull() {
					n++
				}
			}
		}
	}
	return float64(n)
}

// DiscoverSegments returns the segments of f present anywhere in view,
// in catalog order followed by data-only segments sorted by id.
func DiscoverSegments(view EventView, f *Field) []Segment {
	if f.Segments == nil || view == nil {
		return nil
	}
	seen := make(map[string]bool)
	var ids []string
	for i := 0; i < view.Len(); i++ {
		for id := range f.Segments.Values(view.Event(i)) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	index := func(id string) int {
		if f.Segments.Index == nil {
			return -1
		}
		return f.Segments.Index(id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := index(ids[i]), index(ids[j])
		switch {
		case a >= 0 && b >= 0:
			return a < b
		case a >= 0:
			return true
		case b >= 0:
			return false
		}
		return ids[i] < ids[j]
	})

	out := make([]Segment, len(ids))
	for i, id := range ids {
		name := id
		if f.Segments.Name != nil {
			name = f.Segments.Name(id)
		}
		out[i] = Segment{ID: id, Name: name}
	}
	return out
}

// AggregateSegments reduces one group per segment. Every segment gets an
// entry; segments without observations are 0. Percentage KPIs average their
// values when sum or count is requested.
func AggregateSegments(view EventView, f *Field, fn string, segments []Segment) map[string]float64 {
	out := make(map[string]float64, len(segments))
	if f.Segments == nil {
		return out
	}
	if f.Segments.Percentage && (fn == AggSum || fn == AggCount) {
		fn = AggAvg
	}

	for _, seg := range segments {
		var (
			total  float64
			n      int
			lo, hi float64
		)
		if view != nil {
			for i := 0; i < view.Len(); i++ {
				v, ok := f.Segments.Values(view.Event(i))[seg.ID]
				if !ok {
					continue
				}
				if n == 0 || v < lo {
					lo = v
				}
				if n == 0 || v > hi {
					hi = v
				}
				total += v
				n++
			}
		}

		switch fn {
		case AggSum:
			out[seg.ID] = total
		case AggCount:
			out[seg.ID] = float64(n)
		case AggAvg:
			if n > 0 {
				out[seg.ID] = total / float64(n)
			} else {
				out[seg.ID] = 0
			}
		case AggMin:
			out[seg.ID] = lo
		case AggMax:
			out[seg.ID] = hi
		}
	}
	return out
}
