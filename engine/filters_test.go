package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func ids(view EventView) []string {
	out := make([]string, view.Len())
	for i := range out {
		out[i] = view.Event(i).ID
	}
	return out
}

func TestApplyFiltersNumericRange(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "kpi:imp")
	view := NewSliceView(pivotEvents())

	tests := []struct {
		name   string
		params map[string]interface{}
		want   []string
	}{
		{"min and max inclusive", map[string]interface{}{"kpi:imp": map[string]interface{}{"min": 100, "max": 200}}, []string{"1", "2", "4"}},
		{"open max", map[string]interface{}{"kpi:imp": map[string]interface{}{"min": 650.0}}, []string{"3"}},
		{"blank bounds ignored", map[string]interface{}{"kpi:imp": map[string]interface{}{"min": "", "max": nil}}, []string{"1", "2", "3", "4", "5", "6"}},
		{"no params", nil, []string{"1", "2", "3", "4", "5", "6"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(view, fields, tt.params, Scope{}, nil)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyFiltersDateRangeInclusive(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "event:start_date")
	view := NewSliceView(pivotEvents())

	got := ApplyFilters(view, fields, map[string]interface{}{
		"event:start_date": map[string]interface{}{"start": "2024-03-02", "end": "03/04/2024"},
	}, Scope{}, nil)
	assert.Equal(t, []string{"2", "3", "4"}, ids(got))
}

func TestApplyFiltersDateRangeInScopeTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	fields := mustResolve(NewResolver(testCatalog), "event:start_date")
	view := NewSliceView([]Event{{ID: "late-night", StartAt: time.Date(2024, 3, 3, 2, 0, 0, 0, time.UTC)}})
	params := map[string]interface{}{
		"event:start_date": map[string]interface{}{"start": "2024-03-01", "end": "2024-03-02"},
	}

	assert.Empty(t, ids(ApplyFilters(view, fields, params, Scope{}, nil)))
	assert.Equal(t, []string{"late-night"}, ids(ApplyFilters(view, fields, params, Scope{Location: ny}, nil)))
}

func TestApplyFiltersClockWindowWrapsMidnight(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "event:start_time")
	view := NewSliceView([]Event{
		{ID: "night", StartAt: day(2024, 3, 1, 23)},
		{ID: "noon", StartAt: day(2024, 3, 2, 12)},
		{ID: "early", StartAt: day(2024, 3, 3, 1)},
	})

	got := ApplyFilters(view, fields, map[string]interface{}{
		"event:start_time": map[string]interface{}{"start": "22:00", "end": "2:00 AM"},
	}, Scope{}, nil)
	assert.Equal(t, []string{"night", "early"}, ids(got))

	got = ApplyFilters(view, fields, map[string]interface{}{
		"event:start_time": map[string]interface{}{"start": "11:00", "end": "13:00"},
	}, Scope{}, nil)
	assert.Equal(t, []string{"noon"}, ids(got))
}

func TestApplyFiltersSetMembership(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "place:state")
	events := append(pivotEvents(), ev("7", "Gamma", "", day(2024, 3, 7, 10), nil))
	view := NewSliceView(events)

	got := ApplyFilters(view, fields, map[string]interface{}{"place:state": []interface{}{"tx"}}, Scope{}, nil)
	assert.Equal(t, []string{"3", "5", "6"}, ids(got))

	got = ApplyFilters(view, fields, map[string]interface{}{"place:state": []string{"CA"}}, Scope{}, nil)
	assert.Equal(t, []string{"1", "2", "4"}, ids(got))

	got = ApplyFilters(view, fields, map[string]interface{}{"place:state": []interface{}{"CA", nil}}, Scope{}, nil)
	assert.Equal(t, []string{"1", "2", "4", "7"}, ids(got), "nil admits events without a value")
}

func TestApplyFiltersEquality(t *testing.T) {
	r := NewResolver(testCatalog)
	events := pivotEvents()
	events[0].Active = false
	events[1].State = StateRejected
	view := NewSliceView(events)

	got := ApplyFilters(view, mustResolve(r, "event:active"), map[string]interface{}{"event:active": false}, Scope{}, nil)
	assert.Equal(t, []string{"1"}, ids(got))

	got = ApplyFilters(view, mustResolve(r, "event:state"), map[string]interface{}{"event:state": "rejected"}, Scope{}, nil)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestApplyFiltersMultiValuedAnyMatch(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "user:last_name")
	view := NewSliceView([]Event{
		{ID: "a", Users: []User{{LastName: "Lee"}, {LastName: "Chan"}}},
		{ID: "b", Users: []User{{LastName: "Diaz"}}},
	})
	got := ApplyFilters(view, fields, map[string]interface{}{"user:last_name": []interface{}{"Chan"}}, Scope{}, nil)
	assert.Equal(t, []string{"a"}, ids(got))
}

func TestApplyFiltersANDAcrossFields(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "place:state", "kpi:imp")
	view := NewSliceView(pivotEvents())
	got := ApplyFilters(view, fields, map[string]interface{}{
		"place:state": []interface{}{"CA"},
		"kpi:imp":     map[string]interface{}{"min": 150},
	}, Scope{}, nil)
	assert.Equal(t, []string{"2", "4"}, ids(got))
}

func TestMalformedFilterIsIgnoredAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fields := mustResolve(NewResolver(testCatalog), "kpi:imp", "place:state", "event:start_date")
	view := NewSliceView(pivotEvents())

	fs := CompileFilters(fields, map[string]interface{}{
		"kpi:imp":          map[string]interface{}{"min": "lots"},
		"place:state":      map[string]interface{}{"min": 1},
		"event:start_date": map[string]interface{}{"start": "not a date"},
	}, Scope{}, zap.New(core))

	assert.Equal(t, 0, fs.Len())
	assert.Equal(t, 6, fs.Apply(view).Len())
	assert.Equal(t, 3, logs.FilterMessage("ignoring malformed filter parameter").Len())
	_, ok := fs.StartWindow()
	assert.False(t, ok)
}

func TestFilterSetScopesToCompany(t *testing.T) {
	events := pivotEvents()
	events[2].CompanyID = "other"
	fs := CompileFilters(nil, nil, Scope{CompanyID: "acme"}, nil)

	got := fs.Apply(NewSliceView(events))
	assert.Equal(t, []string{"1", "2", "4", "5", "6"}, ids(got))
}

func TestStartWindowBounds(t *testing.T) {
	fields := mustResolve(NewResolver(testCatalog), "event:start_date")
	fs := CompileFilters(fields, map[string]interface{}{
		"event:start_date": map[string]interface{}{"start": "2024-03-01", "end": "2024-03-31"},
	}, Scope{}, nil)

	window, ok := fs.StartWindow()
	require.True(t, ok)
	from, to := window.Bounds(time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), to)
}
