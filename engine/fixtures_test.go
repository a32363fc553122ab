package engine

import (
	"sort"
	"time"

	"github.com/spektr-org/fieldreport/schema"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

var testCatalog = schema.Catalog{
	Name: "Test Company",
	KPIs: []schema.KPI{
		{ID: "imp", Name: "Impressions", Kind: schema.KindNumber},
		{ID: "int", Name: "Interactions", Kind: schema.KindNumber},
		{ID: "smp", Name: "Samples", Kind: schema.KindNumber},
		{ID: "gender", Name: "Gender", Kind: schema.KindPercentage, Segments: []schema.Segment{
			{ID: "f", Name: "Female"},
			{ID: "m", Name: "Male"},
		}},
		{ID: "age", Name: "Age", Kind: schema.KindCount, Segments: []schema.Segment{
			{ID: "a1", Name: "18-24"},
			{ID: "a2", Name: "25-34"},
		}},
	},
	FormFields: []schema.FormField{
		{ID: "10", Name: "Rating", Type: "likert"},
		{ID: "11", Name: "Favorite Flavor", Type: "dropdown"},
		{ID: "12", Name: "Visit Date", Type: "date"},
	},
}

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func num(f float64) *float64 { return &f }

// ev builds an event for campaign at a venue in state, with scalar KPI values.
func ev(id, campaign, state string, start time.Time, kpis map[string]float64) Event {
	e := Event{
		ID:        id,
		CompanyID: "acme",
		Active:    true,
		State:     StateApproved,
		StartAt:   start,
		EndAt:     start.Add(4 * time.Hour),
		Campaign:  Campaign{ID: campaign, Name: campaign},
	}
	if state != "" {
		e.Place = &Place{Name: state + " Venue", State: state}
	}
	for _, k := range sortedKeys(kpis) {
		e.Results = append(e.Results, KPIResult{KPIID: k, Value: num(kpis[k])})
	}
	return e
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pivotEvents yields per-campaign sums of
//
//	Alpha: imp CA 300, TX 700; int CA 20, TX 40; smp CA 10, TX 10
//	Beta:  imp CA 200, TX 100; int CA 80, TX 60; smp CA 40, TX 60
func pivotEvents() []Event {
	return []Event{
		ev("1", "Alpha", "CA", day(2024, 3, 1, 10), map[string]float64{"imp": 100, "int": 5, "smp": 4}),
		ev("2", "Alpha", "CA", day(2024, 3, 2, 10), map[string]float64{"imp": 200, "int": 15, "smp": 6}),
		ev("3", "Alpha", "TX", day(2024, 3, 3, 10), map[string]float64{"imp": 700, "int": 40, "smp": 10}),
		ev("4", "Beta", "CA", day(2024, 3, 4, 10), map[string]float64{"imp": 200, "int": 80, "smp": 40}),
		ev("5", "Beta", "TX", day(2024, 3, 5, 10), map[string]float64{"imp": 60, "int": 20, "smp": 25}),
		ev("6", "Beta", "TX", day(2024, 3, 6, 10), map[string]float64{"imp": 40, "int": 40, "smp": 35}),
	}
}

func pivotDefinition() ReportDefinition {
	p1, p0 := 1, 0
	return ReportDefinition{
		Name:    "Campaign performance",
		Rows:    []FieldSpec{{Field: "campaign:name", Label: "Campaign"}},
		Columns: []FieldSpec{{Field: ValuesPlaceholder}, {Field: "place:state", Label: "State"}},
		Values: []ValueSpec{
			{Field: "kpi:imp", Aggregate: AggSum, Display: DisplayPercentRow},
			{Field: "kpi:int", Aggregate: AggSum, Display: DisplayPercentTotal, Precision: &p1},
			{Field: "kpi:smp", Aggregate: AggSum, Display: DisplayPercentColumn, Precision: &p0},
		},
		Filters: []FieldSpec{
			{Field: "event:start_date"},
			{Field: "place:state"},
			{Field: "kpi:imp"},
		},
	}
}

func mustResolve(r *Resolver, keys ...string) []*Field {
	out := make([]*Field, len(keys))
	for i, k := range keys {
		f, err := r.Resolve(k)
		if err != nil {
			panic(err)
		}
		out[i] = f
	}
	return out
}
