package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ============================================================================
// FIELD RESOLVER — Field key → accessor registry
// ============================================================================
// A field key is an opaque namespaced string ("place:state", "kpi:42",
// "form_field:7"). The resolver maps it to a Field that knows how to read the
// value from an Event and whether it expands into segment columns.
//
// Exact keys live in a map; parameterized families ("kpi:<id>") are served by
// prefix factories. Both can be extended by callers before the resolver is
// shared.
// ============================================================================

// FieldKind is the semantic type of a field's dimension values.
type FieldKind int

const (
	FieldCategorical FieldKind = iota
	FieldNumeric
	FieldDate
	FieldTimeOfDay
	FieldBoolean
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumeric:
		return "numeric"
	case FieldDate:
		return "date"
	case FieldTimeOfDay:
		return "time"
	case FieldBoolean:
		return "boolean"
	}
	return "categorical"
}

// Field is the accessor for one field key.
type Field struct {
	Key   string
	Label string
	Kind  FieldKind

	// Values reads the dimension value(s) of an event. Multi-valued
	// associations (users, teams, brands, areas) return one value each.
	Values func(e *Event, s Scope) []Value

	// Observe returns the numeric observations of an event. Nil means the
	// field has no numeric reading.
	Observe func(e *Event, s Scope) []float64

	// Count returns the number of child entities an event contributes to a
	// count aggregate. Nil means count non-null readings.
	Count func(e *Event) int

	// Segments is set for KPIs that expand into one column per segment.
	Segments *Segmentation
}

// Segmentation describes how a segmented KPI reads and names its segments.
type Segmentation struct {
	Percentage bool
	Values     func(e *Event) map[string]float64
	Name       func(id string) string
	Index      func(id string) int // catalog position, -1 when unknown
}

// Numeric reports whether the field supports sum/avg/min/max.
func (f *Field) Numeric() bool {
	return f.Observe != nil || f.Segments != nil
}

// Segmented reports whether the field expands into segment columns.
func (f *Field) Segmented() bool {
	return f.Segments != nil
}

// PrefixFactory builds the Field for the id following a registered prefix.
type PrefixFactory func(id string) (*Field, error)

// Resolver is the field registry. Resolve is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	fields   map[string]*Field
	prefixes map[string]PrefixFactory
}

// NewRegistry creates an empty resolver.
func NewRegistry() *Resolver {
	return &Resolver{
		fields:   make(map[string]*Field),
		prefixes: make(map[string]PrefixFactory),
	}
}

// Register adds or replaces a field under its key.
func (r *Resolver) Register(f *Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields[f.Key] = f
}

// RegisterPrefix serves every key starting with prefix through fn.
func (r *Resolver) RegisterPrefix(prefix string, fn PrefixFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes[prefix] = fn
}

// Resolve returns the Field for a key, or ErrInvalidFieldReference.
func (r *Resolver) Resolve(key string) (*Field, error) {
	r.mu.RLock()
	f, ok := r.fields[key]
	var factory PrefixFactory
	var id string
	if !ok {
		best := 0
		for prefix, fn := range r.prefixes {
			if len(prefix) > best && len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
				best = len(prefix)
				factory, id = fn, key[len(prefix):]
			}
		}
	}
	r.mu.RUnlock()

	if ok {
		return f, nil
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFieldReference, key)
	}
	f, err := factory(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidFieldReference, key, err)
	}
	return f, nil
}

// Keys returns the exact keys registered, sorted.
func (r *Resolver) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
