package schema

// ============================================================================
// CATALOG — Describes the KPIs and activity form fields of a company
// ============================================================================
// The engine's field resolver consults the catalog to name kpi:<id> and
// form_field:<id> fields, to decide whether a KPI expands into segment
// columns, and in which order those segments appear.
// ============================================================================

// KPI kinds.
const (
	KindNumber     = "number"
	KindCurrency   = "currency"
	KindCount      = "count"
	KindPercentage = "percentage"
)

// Form field types with a numeric reading.
var numericFieldTypes = map[string]bool{
	"number":      true,
	"currency":    true,
	"percentage":  true,
	"calculation": true,
	"likert":      true,
}

// Catalog describes every KPI and form field a company's events may carry.
type Catalog struct {
	Name       string      `json:"name" yaml:"name"`
	KPIs       []KPI       `json:"kpis" yaml:"kpis" validate:"dive"`
	FormFields []FormField `json:"form_fields" yaml:"form_fields" validate:"dive"`
}

// KPI is a business metric captured per event.
type KPI struct {
	ID          string    `json:"id" yaml:"id" validate:"required"`
	Name        string    `json:"name" yaml:"name" validate:"required"`
	Kind        string    `json:"kind" yaml:"kind" validate:"omitempty,oneof=number currency count percentage"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Segments    []Segment `json:"segments,omitempty" yaml:"segments,omitempty" validate:"dive"`
}

// Segment is one named sub-category of a segmented KPI.
type Segment struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

// FormField is a question on an activity form.
type FormField struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Name string `json:"name" yaml:"name" validate:"required"`
	Type string `json:"type" yaml:"type" validate:"required"`
}

// IsSegmented reports whether results of this KPI are split into segments.
// Percentage KPIs always are; the segments present may come from data alone.
func (k KPI) IsSegmented() bool {
	return k.Kind == KindPercentage || (k.Kind == KindCount && len(k.Segments) > 0)
}

// IsPercentage reports whether the KPI captures percentages.
func (k KPI) IsPercentage() bool {
	return k.Kind == KindPercentage
}

// SegmentName returns the display name of a segment id, or the id itself.
func (k KPI) SegmentName(id string) string {
	for _, s := range k.Segments {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// SegmentIndex returns the catalog position of a segment, or -1.
func (k KPI) SegmentIndex(id string) int {
	for i, s := range k.Segments {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// IsNumeric reports whether answers to this field have a numeric reading.
func (f FormField) IsNumeric() bool {
	return numericFieldTypes[f.Type]
}

// KPI looks up a KPI by id.
func (c Catalog) KPI(id string) (KPI, bool) {
	for _, k := range c.KPIs {
		if k.ID == id {
			return k, true
		}
	}
	return KPI{}, false
}

// FormField looks up a form field by id.
func (c Catalog) FormField(id string) (FormField, bool) {
	for _, f := range c.FormFields {
		if f.ID == id {
			return f, true
		}
	}
	return FormField{}, false
}

// KPIKeys returns all KPI ids.
func (c Catalog) KPIKeys() []string {
	keys := make([]string, len(c.KPIs))
	for i, k := range c.KPIs {
		keys[i] = k.ID
	}
	return keys
}

// FormFieldKeys returns all form field ids.
func (c Catalog) FormFieldKeys() []string {
	keys := make([]string, len(c.FormFields))
	for i, f := range c.FormFields {
		keys[i] = f.ID
	}
	return keys
}
