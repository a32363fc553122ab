package engine

// ============================================================================
// EVENT VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns consumer data. It reads through this interface.
//
// Implementations:
//   SliceView: wraps []Event (JSON files, Mongo results, tests)
//   SubView:   filtered or grouped subset (indices into parent, zero-copy)
//
// Filtering and grouping produce SubViews, so a whole evaluation touches the
// source slice without copying events.
// ============================================================================

// EventView provides indexed access to a set of events.
type EventView interface {
	Len() int
	Event(index int) *Event
}

// ============================================================================
// SLICE VIEW — wraps []Event
// ============================================================================

// SliceView wraps an []Event slice as an EventView.
type SliceView struct {
	events []Event
}

// NewSliceView creates an EventView from an []Event slice.
func NewSliceView(events []Event) EventView {
	return &SliceView{events: events}
}

func (v *SliceView) Len() int { return len(v.events) }

func (v *SliceView) Event(i int) *Event {
	if i < 0 || i >= len(v.events) {
		return nil
	}
	return &v.events[i]
}

// ============================================================================
// SUB VIEW — subset of a parent view (zero-copy)
// ============================================================================

// SubView is a subset of a parent EventView.
// Holds indices into the parent, no data copy.
type SubView struct {
	parent  EventView
	indices []int
}

func newSubView(parent EventView, indices []int) EventView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Event(i int) *Event {
	if i < 0 || i >= len(v.indices) {
		return nil
	}
	return v.parent.Event(v.indices[i])
}

// selectView returns the subset of view for which keep returns true.
func selectView(view EventView, keep func(*Event) bool) EventView {
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if keep(view.Event(i)) {
			indices = append(indices, i)
		}
	}
	if len(indices) == n {
		return view
	}
	return newSubView(view, indices)
}
