package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFieldReference is returned when a definition names a field
	// key the resolver does not know.
	ErrInvalidFieldReference = errors.New("invalid field reference")

	// ErrAggregationTypeMismatch is returned when a numeric aggregate is
	// requested on a field that has no numeric reading.
	ErrAggregationTypeMismatch = errors.New("aggregation type mismatch")

	// ErrInvalidDefinition is returned for structurally broken definitions.
	ErrInvalidDefinition = errors.New("invalid report definition")
)

// FieldError ties a configuration error to the definition section and field
// key that caused it.
type FieldError struct {
	Section string // "rows", "columns", "values", "filters"
	Key     string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: field %q: %v", e.Section, e.Key, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
