package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// FILTERS — Field-Typed Filtering via EventView
// ============================================================================
// Filter parameters arrive keyed by field key, in the shapes a report form
// posts:
//
//   {"min": 10, "max": 20}                 numeric range (inclusive)
//   {"start": "2024-01-01", "end": "..."}  date range (inclusive)
//   {"start": "22:00", "end": "02:00"}     time-of-day window (wraps midnight)
//   ["CA", "TX"]                           set membership
//   true / "Approved"                      equality
//
// A parameter whose shape does not fit its field is ignored for that field
// and logged. Fields are AND-combined; a multi-valued field passes when any
// of its values matches.
//
// Single-pass filter: checks ALL predicates per event in one loop.
// Returns a SubView (index list into parent), no data copy.
// ============================================================================

// StartDateField is the field whose date range sources may push down.
const StartDateField = "event:start_date"

// DateRange is an inclusive range of calendar dates. Zero bounds are open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Bounds returns the half-open instant range [from, to) covering the dates
// in loc. Zero results mean unbounded.
func (r DateRange) Bounds(loc *time.Location) (from, to time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	if !r.Start.IsZero() {
		from = time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, loc)
	}
	if !r.End.IsZero() {
		to = time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	}
	return from, to
}

type predicate struct {
	field *Field
	match func(Value) bool
}

// FilterSet is a compiled, immutable set of filter predicates.
type FilterSet struct {
	scope      Scope
	predicates []predicate
	window     *DateRange
}

// CompileFilters turns filter parameters into predicates for the given
// filterable fields. Parameters for fields not listed are ignored.
func CompileFilters(fields []*Field, params map[string]interface{}, s Scope, log *zap.Logger) FilterSet {
	if log == nil {
		log = zap.NewNop()
	}
	fs := FilterSet{scope: s.normalize()}
	for _, f := range fields {
		raw, ok := params[f.Key]
		if !ok || raw == nil {
			continue
		}
		match, window, err := compilePredicate(f, raw)
		if err != nil {
			log.Warn("ignoring malformed filter parameter",
				zap.String("field", f.Key),
				zap.String("kind", f.Kind.String()),
				zap.Any("value", raw),
				zap.Error(err))
			continue
		}
		if match == nil {
			continue
		}
		fs.predicates = append(fs.predicates, predicate{field: f, match: match})
		if f.Key == StartDateField && window != nil {
			fs.window = window
		}
	}
	return fs
}

// ApplyFilters narrows view to the events passing every filter parameter.
func ApplyFilters(view EventView, fields []*Field, params map[string]interface{}, s Scope, log *zap.Logger) EventView {
	return CompileFilters(fields, params, s, log).Apply(view)
}

// Len returns the number of active predicates.
func (fs FilterSet) Len() int { return len(fs.predicates) }

// StartWindow returns the start-date range, when one is filtered on.
func (fs FilterSet) StartWindow() (DateRange, bool) {
	if fs.window == nil {
		return DateRange{}, false
	}
	return *fs.window, true
}

// Matches reports whether an event belongs to the scope's company (when one
// is set) and passes every predicate.
func (fs FilterSet) Matches(e *Event) bool {
	if fs.scope.CompanyID != "" && e.CompanyID != fs.scope.CompanyID {
		return false
	}
	for _, p := range fs.predicates {
		values := p.field.Values(e, fs.scope)
		if len(values) == 0 {
			values = one(Null())
		}
		pass := false
		for _, v := range values {
			if p.match(v) {
				pass = true
				break
			}
		}
		if !pass {
			return false
		}
	}
	return true
}

// Apply returns a view of the events passing every predicate.
// No predicates and no company = no restriction (returns original view).
func (fs FilterSet) Apply(view EventView) EventView {
	if len(fs.predicates) == 0 && fs.scope.CompanyID == "" {
		return view
	}
	return selectView(view, fs.Matches)
}

// ============================================================================
// PREDICATE COMPILATION
// ============================================================================

func compilePredicate(f *Field, raw interface{}) (func(Value) bool, *DateRange, error) {
	switch p := raw.(type) {
	case map[string]interface{}:
		return compileRange(f, p)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(p))
		for k, v := range p {
			m[fmt.Sprint(k)] = v
		}
		return compileRange(f, m)
	case []interface{}:
		return compileSet(p), nil, nil
	case []string:
		list := make([]interface{}, len(p))
		for i, s := range p {
			list[i] = s
		}
		return compileSet(list), nil, nil
	case string, bool, float64, float32, int, int32, int64:
		return compileEquals(f, p), nil, nil
	}
	return nil, nil, fmt.Errorf("unsupported filter shape %T", raw)
}

func compileRange(f *Field, p map[string]interface{}) (func(Value) bool, *DateRange, error) {
	_, hasMin := p["min"]
	_, hasMax := p["max"]
	_, hasStart := p["start"]
	_, hasEnd := p["end"]

	switch {
	case (hasMin || hasMax) && f.Kind == FieldNumeric:
		return compileNumericRange(p["min"], p["max"])
	case (hasStart || hasEnd) && f.Kind == FieldDate:
		return compileDateRange(p["start"], p["end"])
	case (hasStart || hasEnd) && f.Kind == FieldTimeOfDay:
		return compileClockWindow(p["start"], p["end"])
	}
	return nil, nil, fmt.Errorf("range shape does not fit %s field", f.Kind)
}

func compileNumericRange(minRaw, maxRaw interface{}) (func(Value) bool, *DateRange, error) {
	lo, hasLo, err := bound(minRaw, toFloat)
	if err != nil {
		return nil, nil, err
	}
	hi, hasHi, err := bound(maxRaw, toFloat)
	if err != nil {
		return nil, nil, err
	}
	if !hasLo && !hasHi {
		return nil, nil, nil
	}
	return func(v Value) bool {
		n, ok := v.Float()
		if !ok || v.IsNull() {
			return false
		}
		return (!hasLo || n >= lo) && (!hasHi || n <= hi)
	}, nil, nil
}

func compileDateRange(startRaw, endRaw interface{}) (func(Value) bool, *DateRange, error) {
	start, hasStart, err := bound(startRaw, parseDateValue)
	if err != nil {
		return nil, nil, err
	}
	end, hasEnd, err := bound(endRaw, parseDateValue)
	if err != nil {
		return nil, nil, err
	}
	if !hasStart && !hasEnd {
		return nil, nil, nil
	}
	window := &DateRange{}
	if hasStart {
		window.Start = start
	}
	if hasEnd {
		window.End = end
	}
	return func(v Value) bool {
		t, ok := v.Time()
		if !ok {
			return false
		}
		return (!hasStart || !t.Before(start)) && (!hasEnd || !t.After(end))
	}, window, nil
}

func compileClockWindow(startRaw, endRaw interface{}) (func(Value) bool, *DateRange, error) {
	start, hasStart, err := bound(startRaw, parseClockValue)
	if err != nil {
		return nil, nil, err
	}
	end, hasEnd, err := bound(endRaw, parseClockValue)
	if err != nil {
		return nil, nil, err
	}
	if !hasStart && !hasEnd {
		return nil, nil, nil
	}
	wraps := hasStart && hasEnd && start.After(end)
	return func(v Value) bool {
		t, ok := v.Time()
		if !ok {
			return false
		}
		afterStart := !hasStart || !t.Before(start)
		beforeEnd := !hasEnd || !t.After(end)
		if wraps {
			return afterStart || beforeEnd
		}
		return afterStart && beforeEnd
	}, nil, nil
}

func compileSet(list []interface{}) func(Value) bool {
	if len(list) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(list))
	for _, item := range list {
		if item == nil {
			allowed[""] = true
			continue
		}
		allowed[strings.ToLower(paramLabel(item))] = true
	}
	return func(v Value) bool {
		if v.IsNull() {
			return allowed[""]
		}
		return allowed[strings.ToLower(v.Label())]
	}
}

func compileEquals(f *Field, raw interface{}) func(Value) bool {
	if b, ok := raw.(bool); ok {
		return func(v Value) bool {
			n, ok := v.Float()
			return ok && !v.IsNull() && (n == 1) == b
		}
	}
	want := paramLabel(raw)
	if strings.TrimSpace(want) == "" {
		return nil
	}
	if f.Kind == FieldNumeric {
		if target, ok := toFloat(raw); ok {
			return func(v Value) bool {
				n, ok := v.Float()
				return ok && !v.IsNull() && n == target
			}
		}
	}
	return func(v Value) bool {
		return !v.IsNull() && strings.EqualFold(v.Label(), want)
	}
}

// bound parses an optional range bound. Nil and blank strings are absent.
func bound[T any](raw interface{}, parse func(interface{}) (T, bool)) (T, bool, error) {
	var zero T
	if raw == nil {
		return zero, false, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return zero, false, nil
	}
	v, ok := parse(raw)
	if !ok {
		return zero, false, fmt.Errorf("cannot parse bound %v", raw)
	}
	return v, true, nil
}

func parseDateValue(raw interface{}) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	t, ok := parseDate(s)
	if !ok {
		return time.Time{}, false
	}
	d, _ := Date(t).Time()
	return d, true
}

func parseClockValue(raw interface{}) (time.Time, bool) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, false
	}
	t, ok := parseClock(s)
	if !ok {
		return time.Time{}, false
	}
	d, _ := TimeOfDay(t).Time()
	return d, true
}

func paramLabel(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}
