package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/spektr-org/fieldreport/engine"
	"github.com/spektr-org/fieldreport/schema"
)

func startDateFilters(t *testing.T, params map[string]interface{}, s engine.Scope) engine.FilterSet {
	t.Helper()
	r := engine.NewResolver(schema.Catalog{})
	f, err := r.Resolve(engine.StartDateField)
	require.NoError(t, err)
	return engine.CompileFilters([]*engine.Field{f}, params, s, nil)
}

func TestBuildFilterCompanyOnly(t *testing.T) {
	s := engine.Scope{CompanyID: "acme"}
	q := engine.Query{CompanyID: "acme", Filters: startDateFilters(t, nil, s), Scope: s}

	assert.Equal(t, bson.D{{Key: "company_id", Value: "acme"}}, BuildFilter(q))
}

func TestBuildFilterStartWindow(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	s := engine.Scope{CompanyID: "acme", Location: ny}
	fs := startDateFilters(t, map[string]interface{}{
		engine.StartDateField: map[string]interface{}{"start": "2024-03-01", "end": "2024-03-31"},
	}, s)

	filter := BuildFilter(engine.Query{CompanyID: "acme", Filters: fs, Scope: s})
	require.Len(t, filter, 2)
	assert.Equal(t, "start_at", filter[1].Key)

	rng, ok := filter[1].Value.(bson.D)
	require.True(t, ok)
	require.Len(t, rng, 2)
	assert.Equal(t, "$gte", rng[0].Key)
	assert.True(t, rng[0].Value.(time.Time).Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, ny)))
	assert.Equal(t, "$lt", rng[1].Key)
	assert.True(t, rng[1].Value.(time.Time).Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, ny)))
}

func TestBuildFilterOpenEndedWindow(t *testing.T) {
	s := engine.Scope{}
	fs := startDateFilters(t, map[string]interface{}{
		engine.StartDateField: map[string]interface{}{"start": "2024-03-01"},
	}, s)

	filter := BuildFilter(engine.Query{Filters: fs, Scope: s})
	require.Len(t, filter, 1)
	rng := filter[0].Value.(bson.D)
	require.Len(t, rng, 1)
	assert.Equal(t, "$gte", rng[0].Key)
}

func TestNormalizeAnswers(t *testing.T) {
	e := engine.Event{Activities: []engine.Activity{{
		Results: []engine.FormFieldResult{
			{FieldID: "1", Value: primitive.A{"Red", "Blue"}},
			{FieldID: "2", Value: int32(4)},
		},
	}}}
	normalizeAnswers(&e)

	assert.Equal(t, []interface{}{"Red", "Blue"}, e.Activities[0].Results[0].Value)
	assert.Equal(t, int32(4), e.Activities[0].Results[1].Value)
}
