package engine

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

// ============================================================================
// REPORT DEFINITION — Declarative rows / columns / values / filters
// ============================================================================

// ValuesPlaceholder is the reserved column key marking where value metrics
// slot into the column order.
const ValuesPlaceholder = "values"

// Aggregate functions.
const (
	AggSum   = "sum"
	AggCount = "count"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
)

// Display transforms.
const (
	DisplayNone          = ""
	DisplayPercentRow    = "perc_of_row"
	DisplayPercentColumn = "perc_of_column"
	DisplayPercentTotal  = "perc_of_total"
)

// DefaultPrecision is the number of decimals used when a value spec sets none.
const DefaultPrecision = 2

var displayAliases = map[string]string{
	"percent_of_row":    DisplayPercentRow,
	"percent_of_column": DisplayPercentColumn,
	"percent_of_total":  DisplayPercentTotal,
	"none":              DisplayNone,
}

// ReportDefinition is the operator-configured shape of a report.
// Sharing is carried for callers and ignored by the engine.
type ReportDefinition struct {
	Name    string      `json:"name" yaml:"name"`
	Sharing string      `json:"sharing,omitempty" yaml:"sharing,omitempty"`
	Rows    []FieldSpec `json:"rows" yaml:"rows" validate:"dive"`
	Columns []FieldSpec `json:"columns" yaml:"columns" validate:"dive"`
	Values  []ValueSpec `json:"values" yaml:"values" validate:"dive"`
	Filters []FieldSpec `json:"filters" yaml:"filters" validate:"dive"`
}

// FieldSpec references a field key with a display label.
type FieldSpec struct {
	Field string `json:"field" yaml:"field" validate:"required"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ValueSpec is a metric column: a field, its aggregate and display settings.
type ValueSpec struct {
	Field     string `json:"field" yaml:"field" validate:"required"`
	Label     string `json:"label,omitempty" yaml:"label,omitempty"`
	Aggregate string `json:"aggregate,omitempty" yaml:"aggregate,omitempty" validate:"omitempty,oneof=sum count avg min max"`
	Display   string `json:"display,omitempty" yaml:"display,omitempty" validate:"omitempty,oneof=perc_of_row perc_of_column perc_of_total percent_of_row percent_of_column percent_of_total none"`
	Precision *int   `json:"precision,omitempty" yaml:"precision,omitempty" validate:"omitempty,min=0,max=10"`
}

// IsComplete reports whether the definition has enough configuration to
// produce output: at least one row and one value.
func (d ReportDefinition) IsComplete() bool {
	return len(d.Rows) > 0 && len(d.Values) > 0
}

// aggregate returns the normalized aggregate function.
func (v ValueSpec) aggregate() string {
	if v.Aggregate == "" {
		return AggSum
	}
	return v.Aggregate
}

// display returns the normalized display transform.
func (v ValueSpec) display() string {
	if d, ok := displayAliases[v.Display]; ok {
		return d
	}
	return v.Display
}

// precision returns the configured precision or DefaultPrecision.
func (v ValueSpec) precision() int {
	if v.Precision == nil {
		return DefaultPrecision
	}
	return *v.Precision
}

var validate = validator.New()

// Validate checks the structural constraints of a definition.
func (d ReportDefinition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	placeholders := 0
	for _, c := range d.Columns {
		if c.Field == ValuesPlaceholder {
			placeholders++
		}
	}
	if placeholders > 1 {
		return fmt.Errorf("%w: column %q appears %d times", ErrInvalidDefinition, ValuesPlaceholder, placeholders)
	}
	return nil
}

// ParseDefinition reads a definition from YAML or JSON bytes.
func ParseDefinition(data []byte) (ReportDefinition, error) {
	var d ReportDefinition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return ReportDefinition{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if err := d.Validate(); err != nil {
		return ReportDefinition{}, err
	}
	return d, nil
}

// LoadDefinition reads a definition file.
func LoadDefinition(path string) (ReportDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ReportDefinition{}, fmt.Errorf("read definition %s: %w", path, err)
	}
	return ParseDefinition(data)
}
