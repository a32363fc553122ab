package engine

import (
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// VALUE — Resolved dimension value
// ============================================================================
// Every dimension resolves to a Value. Grouping uses Key() for identity,
// sorting uses Compare(), rendering uses Label().
//
// Ordering policy: numbers and times ascend, strings and booleans sort by
// folded label, null sorts after everything else.
// ============================================================================

// Kind identifies the type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindTime
	KindBool
)

const (
	dateLabelLayout = "2006/01/02"
	timeLabelLayout = "03:04 PM"
)

// Value is an immutable resolved value. The zero Value is null.
type Value struct {
	kind  Kind
	str   string
	num   float64
	t     time.Time
	label string
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value. Empty strings are null.
func String(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null()
	}
	return Value{kind: KindString, str: s, label: s}
}

// Number returns a numeric value.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n, label: strconv.FormatFloat(n, 'f', -1, 64)}
}

// Date returns a calendar date value. The time of day is dropped.
func Date(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Value{kind: KindTime, t: d, label: d.Format(dateLabelLayout)}
}

// TimeOfDay returns a wall-clock value. The date is dropped.
func TimeOfDay(t time.Time) Value {
	if t.IsZero() {
		return Null()
	}
	d := time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
	return Value{kind: KindTime, t: d, label: d.Format(timeLabelLayout)}
}

// Bool returns a boolean value labeled with the given true/false labels.
func Bool(b bool, yes, no string) Value {
	v := Value{kind: KindBool, label: no}
	if b {
		v.num = 1
		v.label = yes
	}
	return v
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) Label() string { return v.label }

// Time returns the held time for KindTime values.
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Float returns the numeric reading of a value, if it has one.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber, KindBool:
		return v.num, true
	case KindString:
		f, err := strconv.ParseFloat(v.str, 64)
		return f, err == nil
	}
	return 0, false
}

// Key is the canonical identity of the value, unique across kinds.
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return "s:" + v.str
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindTime:
		return "t:" + strconv.FormatInt(v.t.Unix(), 10) + "." + strconv.Itoa(v.t.Nanosecond())
	case KindBool:
		if v.num == 1 {
			return "b:1"
		}
		return "b:0"
	}
	return "nil"
}

// Compare orders two values. Null is greater than any non-null value.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind == KindNull {
			return 1
		}
		if b.kind == KindNull {
			return -1
		}
		return cmpInt(int(a.kind), int(b.kind))
	}
	switch a.kind {
	case KindNumber:
		return cmpFloat(a.num, b.num)
	case KindBool:
		return strings.Compare(strings.ToLower(a.label), strings.ToLower(b.label))
	case KindTime:
		switch {
		case a.t.Before(b.t):
			return -1
		case a.t.After(b.t):
			return 1
		}
		return 0
	case KindString:
		la, lb := strings.ToLower(a.str), strings.ToLower(b.str)
		if c := strings.Compare(la, lb); c != 0 {
			return c
		}
		return strings.Compare(a.str, b.str)
	}
	return 0
}

// ============================================================================
// GROUP KEY — Tuple of resolved dimension values
// ============================================================================

// GroupKey is the tuple of values identifying one row or column group.
type GroupKey []Value

// ID returns a string usable as a map key. Equal tuples share an ID.
func (k GroupKey) ID() string {
	if len(k) == 0 {
		return ""
	}
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = v.Key()
	}
	return strings.Join(parts, "\x1f")
}

// Labels returns the display labels of the tuple, with nullLabel for nulls.
func (k GroupKey) Labels(nullLabel string) []string {
	out := make([]string, len(k))
	for i, v := range k {
		if v.IsNull() {
			out[i] = nullLabel
			continue
		}
		out[i] = v.Label()
	}
	return out
}

// CompareKeys orders tuples lexicographically by position.
func CompareKeys(a, b GroupKey) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
