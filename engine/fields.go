package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/fieldreport/schema"
)

// ============================================================================
// BUILT-IN FIELDS — Event, association, KPI and form-field accessors
// ============================================================================

// Prefixes of parameterized field families.
const (
	KPIPrefix       = "kpi:"
	FormFieldPrefix = "form_field:"
)

// lateAfter is how long an unsent event may stay Due before it is Late.
const lateAfter = 48 * time.Hour

// NewResolver creates a resolver holding every built-in field plus the
// kpi:<id> and form_field:<id> families described by the catalog.
func NewResolver(catalog schema.Catalog) *Resolver {
	r := NewRegistry()
	for _, f := range builtinFields() {
		r.Register(f)
	}
	r.RegisterPrefix(KPIPrefix, func(id string) (*Field, error) {
		kpi, ok := catalog.KPI(id)
		if !ok {
			return nil, fmt.Errorf("unknown kpi %s", id)
		}
		return kpiField(kpi), nil
	})
	r.RegisterPrefix(FormFieldPrefix, func(id string) (*Field, error) {
		ff, ok := catalog.FormField(id)
		if !ok {
			return nil, fmt.Errorf("unknown form field %s", id)
		}
		return formField(ff), nil
	})
	return r
}

func builtinFields() []*Field {
	return []*Field{
		// Event
		{Key: "event:start_date", Label: "Start Date", Kind: FieldDate,
			Values: func(e *Event, s Scope) []Value { return one(Date(s.local(e.StartAt))) }},
		{Key: "event:end_date", Label: "End Date", Kind: FieldDate,
			Values: func(e *Event, s Scope) []Value { return one(Date(s.local(e.EndAt))) }},
		{Key: "event:start_time", Label: "Start Time", Kind: FieldTimeOfDay,
			Values: func(e *Event, s Scope) []Value { return one(timeOfDay(e.StartAt, s)) }},
		{Key: "event:end_time", Label: "End Time", Kind: FieldTimeOfDay,
			Values: func(e *Event, s Scope) []Value { return one(timeOfDay(e.EndAt, s)) }},
		{Key: "event:active", Label: "Active State", Kind: FieldBoolean,
			Values: func(e *Event, _ Scope) []Value { return one(Bool(e.Active, "Active", "Inactive")) }},
		{Key: "event:state", Label: "Event State", Kind: FieldCategorical,
			Values: func(e *Event, _ Scope) []Value { return one(String(titleCase(e.State))) }},
		{Key: "event:event_status", Label: "Event Status", Kind: FieldCategorical,
			Values: func(e *Event, s Scope) []Value { return one(String(eventStatus(e, s))) }},
		{Key: "event:count", Label: "Events", Kind: FieldNumeric,
			Values:  func(*Event, Scope) []Value { return one(Number(1)) },
			Observe: func(*Event, Scope) []float64 { return []float64{1} }},
		countField("event:photos", "Photos", func(e *Event) int { return e.Photos }),
		countField("event:comments", "Comments", func(e *Event) int { return e.Comments }),
		countField("activity:count", "Activities", func(e *Event) int { return len(e.Activities) }),
		{Key: "event:expenses", Label: "Expenses", Kind: FieldNumeric,
			Values: func(e *Event, _ Scope) []Value {
				amounts := expenseAmounts(e)
				if len(amounts) == 0 {
					return one(Null())
				}
				var total float64
				for _, a := range amounts {
					total += a
				}
				return one(Number(total))
			},
			Observe: func(e *Event, _ Scope) []float64 { return expenseAmounts(e) }},
		{Key: "event:duration_hours", Label: "Duration (hours)", Kind: FieldNumeric,
			Values: func(e *Event, _ Scope) []Value {
				if h, ok := durationHours(e); ok {
					return one(Number(h))
				}
				return one(Null())
			},
			Observe: func(e *Event, _ Scope) []float64 {
				if h, ok := durationHours(e); ok {
					return []float64{h}
				}
				return nil
			}},

		// Campaign and brands
		{Key: "campaign:name", Label: "Campaign", Kind: FieldCategorical,
			Values: func(e *Event, _ Scope) []Value { return one(String(e.Campaign.Name)) }},
		{Key: "brand:name", Label: "Brand", Kind: FieldCategorical,
			Values: func(e *Event, _ Scope) []Value {
				out := make([]Value, len(e.Campaign.Brands))
				for i, b := range e.Campaign.Brands {
					out[i] = String(b.Name)
				}
				return out
			}},

		// Place and areas
		placeField("place:name", "Venue", func(p *Place) string { return p.Name }),
		placeField("place:city", "City", func(p *Place) string { return p.City }),
		placeField("place:state", "State", func(p *Place) string { return p.State }),
		placeField("place:country", "Country", func(p *Place) string { return p.Country }),
		placeField("place:zipcode", "Zip Code", func(p *Place) string { return p.Zipcode }),
		{Key: "area:name", Label: "Area", Kind: FieldCategorical,
			Values: func(e *Event, _ Scope) []Value {
				if e.Place == nil {
					return nil
				}
				out := make([]Value, len(e.Place.Areas))
				for i, a := range e.Place.Areas {
					out[i] = String(a.Name)
				}
				return out
			}},

		// Staff
		userField("user:full_name", "User", func(u User) string {
			return strings.TrimSpace(u.FirstName + " " + u.LastName)
		}),
		userField("user:first_name", "First Name", func(u User) string { return u.FirstName }),
		userField("user:last_name", "Last Name", func(u User) string { return u.LastName }),
		userField("user:role", "Role", func(u User) string { return u.Role }),
		{Key: "team:name", Label: "Team", Kind: FieldCategorical,
			Values: func(e *Event, _ Scope) []Value {
				out := make([]Value, len(e.Teams))
				for i, t := range e.Teams {
					out[i] = String(t.Name)
				}
				return out
			}},

		// Activities
		{Key: "activity_type:name", Label: "Activity Type", Kind: FieldCategorical,
			Values: func(e *Event, _ Scope) []Value {
				out := make([]Value, len(e.Activities))
				for i, a := range e.Activities {
					out[i] = String(a.TypeName)
				}
				return out
			}},
	}
}

func one(v Value) []Value { return []Value{v} }

func countField(key, label string, n func(*Event) int) *Field {
	return &Field{
		Key:     key,
		Label:   label,
		Kind:    FieldNumeric,
		Values:  func(e *Event, _ Scope) []Value { return one(Number(float64(n(e)))) },
		Observe: func(e *Event, _ Scope) []float64 { return []float64{float64(n(e))} },
		Count:   n,
	}
}

func placeField(key, label string, get func(*Place) string) *Field {
	return &Field{
		Key:   key,
		Label: label,
		Kind:  FieldCategorical,
		Values: func(e *Event, _ Scope) []Value {
			if e.Place == nil {
				return one(Null())
			}
			return one(String(get(e.Place)))
		},
	}
}

func userField(key, label string, get func(User) string) *Field {
	return &Field{
		Key:   key,
		Label: label,
		Kind:  FieldCategorical,
		Values: func(e *Event, _ Scope) []Value {
			out := make([]Value, len(e.Users))
			for i, u := range e.Users {
				out[i] = String(get(u))
			}
			return out
		},
	}
}

// kpiField builds the accessor for a catalog KPI.
func kpiField(kpi schema.KPI) *Field {
	id := kpi.ID
	if kpi.IsSegmented() {
		return &Field{
			Key:    KPIPrefix + id,
			Label:  kpi.Name,
			Kind:   FieldNumeric,
			Values: func(*Event, Scope) []Value { return one(Null()) },
			Segments: &Segmentation{
				Percentage: kpi.IsPercentage(),
				Values: func(e *Event) map[string]float64 {
					r, ok := e.Result(id)
					if !ok {
						return nil
					}
					return finiteSegments(r.Segments)
				},
				Name:  kpi.SegmentName,
				Index: kpi.SegmentIndex,
			},
		}
	}
	return &Field{
		Key:   KPIPrefix + id,
		Label: kpi.Name,
		Kind:  FieldNumeric,
		Values: func(e *Event, _ Scope) []Value {
			if n, ok := kpiValue(e, id); ok {
				return one(Number(n))
			}
			return one(Null())
		},
		Observe: func(e *Event, _ Scope) []float64 {
			if n, ok := kpiValue(e, id); ok {
				return []float64{n}
			}
			return nil
		},
	}
}

// kpiValue returns the finite scalar result of a KPI on an event.
func kpiValue(e *Event, id string) (float64, bool) {
	r, ok := e.Result(id)
	if !ok || r.Value == nil || !finite(*r.Value) {
		return 0, false
	}
	return *r.Value, true
}

// finiteSegments drops NaN and infinite segment readings.
func finiteSegments(m map[string]float64) map[string]float64 {
	for _, v := range m {
		if !finite(v) {
			out := make(map[string]float64, len(m))
			for k, v := range m {
				if finite(v) {
					out[k] = v
				}
			}
			return out
		}
	}
	return m
}

// formField builds the accessor for an activity form field. Answers from
// every activity of the event count.
func formField(ff schema.FormField) *Field {
	id := ff.ID
	answers := func(e *Event) []interface{} {
		var out []interface{}
		for _, a := range e.Activities {
			for _, r := range a.Results {
				if r.FieldID != id || r.Value == nil {
					continue
				}
				if list, ok := r.Value.([]interface{}); ok {
					out = append(out, list...)
					continue
				}
				out = append(out, r.Value)
			}
		}
		return out
	}

	f := &Field{Key: FormFieldPrefix + id, Label: ff.Name}
	switch {
	case ff.IsNumeric():
		f.Kind = FieldNumeric
		f.Observe = func(e *Event, _ Scope) []float64 {
			var out []float64
			for _, v := range answers(e) {
				if n, ok := toFloat(v); ok {
					out = append(out, n)
				}
			}
			return out
		}
		f.Values = func(e *Event, s Scope) []Value {
			obs := f.Observe(e, s)
			out := make([]Value, len(obs))
			for i, n := range obs {
				out[i] = Number(n)
			}
			return out
		}
	case ff.Type == "date":
		f.Kind = FieldDate
		f.Values = func(e *Event, _ Scope) []Value {
			var out []Value
			for _, v := range answers(e) {
				if t, ok := parseDate(fmt.Sprint(v)); ok {
					out = append(out, Date(t))
				}
			}
			return out
		}
	case ff.Type == "time":
		f.Kind = FieldTimeOfDay
		f.Values = func(e *Event, _ Scope) []Value {
			var out []Value
			for _, v := range answers(e) {
				if t, ok := parseClock(fmt.Sprint(v)); ok {
					out = append(out, TimeOfDay(t))
				}
			}
			return out
		}
	default:
		f.Kind = FieldCategorical
		f.Values = func(e *Event, _ Scope) []Value {
			var out []Value
			for _, v := range answers(e) {
				out = append(out, String(fmt.Sprint(v)))
			}
			return out
		}
	}
	return f
}

// eventStatus derives the workflow status shown on reports.
func eventStatus(e *Event, s Scope) string {
	switch e.State {
	case StateApproved, StateRejected, StateSubmitted:
		return titleCase(e.State)
	}
	if e.EndAt.IsZero() || !e.EndAt.Before(s.Now) {
		return "Scheduled"
	}
	if s.Now.Sub(e.EndAt) > lateAfter {
		return "Late"
	}
	return "Due"
}

func timeOfDay(t time.Time, s Scope) Value {
	if t.IsZero() {
		return Null()
	}
	return TimeOfDay(s.local(t))
}

func expenseAmounts(e *Event) []float64 {
	out := make([]float64, 0, len(e.Expenses))
	for _, x := range e.Expenses {
		if finite(x.Amount) {
			out = append(out, x.Amount)
		}
	}
	return out
}

func durationHours(e *Event) (float64, bool) {
	if e.StartAt.IsZero() || e.EndAt.IsZero() || e.EndAt.Before(e.StartAt) {
		return 0, false
	}
	return e.EndAt.Sub(e.StartAt).Hours(), true
}

func titleCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// toFloat reads numbers from JSON, BSON and string encodings. NaN and
// infinities have no numeric reading.
func toFloat(v interface{}) (float64, bool) {
	f, ok := rawFloat(v)
	if !ok || !finite(f) {
		return 0, false
	}
	return f, true
}

func rawFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "2006/01/02", time.RFC3339}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "03:04 PM", "3:04PM", "3:04 pm", "3:04pm"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseClock(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
