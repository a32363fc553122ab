package engine

import "context"

// ============================================================================
// SOURCE — Read-only event provider
// ============================================================================
// A Source returns the events of one company. It may use the compiled
// filters to narrow what it reads (MongoSource pushes the start-date window
// into its query); the engine applies the full filter set to whatever comes
// back, so partial push-down is fine.
// ============================================================================

// Query is what FetchPage asks a Source for.
type Query struct {
	CompanyID string
	Filters   FilterSet
	Scope     Scope
}

// Source provides the events a report evaluates.
type Source interface {
	Events(ctx context.Context, q Query) (EventView, error)
}

// SliceSource serves events from memory.
type SliceSource struct {
	events []Event
}

// NewSliceSource wraps events as a Source.
func NewSliceSource(events []Event) *SliceSource {
	return &SliceSource{events: events}
}

// Events returns the company's events that pass q.Filters.
func (s *SliceSource) Events(ctx context.Context, q Query) (EventView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return q.Filters.Apply(NewSliceView(s.events)), nil
}
