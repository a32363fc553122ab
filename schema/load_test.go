package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `
name: Acme Beverages
kpis:
  - id: "1"
    name: Impressions
    kind: number
  - id: "2"
    name: Gender
    kind: percentage
    segments:
      - id: f
        name: Female
      - id: m
        name: Male
  - id: "3"
    name: Age
    kind: count
    segments:
      - id: a1
        name: 18-24
  - id: "4"
    name: Samples
    kind: count
form_fields:
  - id: "10"
    name: Rating
    type: likert
  - id: "11"
    name: Comments
    type: textarea
`

func TestParseCatalog(t *testing.T) {
	c, err := Parse([]byte(catalogYAML))
	require.NoError(t, err)

	assert.Equal(t, "Acme Beverages", c.Name)
	assert.Equal(t, []string{"1", "2", "3", "4"}, c.KPIKeys())
	assert.Equal(t, []string{"10", "11"}, c.FormFieldKeys())

	gender, ok := c.KPI("2")
	require.True(t, ok)
	assert.True(t, gender.IsSegmented())
	assert.True(t, gender.IsPercentage())
	assert.Equal(t, "Male", gender.SegmentName("m"))
	assert.Equal(t, "other", gender.SegmentName("other"))
	assert.Equal(t, 1, gender.SegmentIndex("m"))
	assert.Equal(t, -1, gender.SegmentIndex("other"))

	age, _ := c.KPI("3")
	assert.True(t, age.IsSegmented())
	samples, _ := c.KPI("4")
	assert.False(t, samples.IsSegmented(), "count KPIs without segments are scalar")
	imp, _ := c.KPI("1")
	assert.False(t, imp.IsSegmented())

	_, ok = c.KPI("99")
	assert.False(t, ok)

	rating, ok := c.FormField("10")
	require.True(t, ok)
	assert.True(t, rating.IsNumeric())
	comments, _ := c.FormField("11")
	assert.False(t, comments.IsNumeric())
}

func TestParseCatalogRejects(t *testing.T) {
	tests := map[string]string{
		"duplicate kpi":        "kpis:\n  - {id: a, name: A}\n  - {id: a, name: B}\n",
		"duplicate form field": "form_fields:\n  - {id: a, name: A, type: text}\n  - {id: a, name: B, type: text}\n",
		"missing name":         "kpis:\n  - {id: a}\n",
		"unknown kind":         "kpis:\n  - {id: a, name: A, kind: ratio}\n",
		"segment without id":   "kpis:\n  - {id: a, name: A, kind: count, segments: [{name: X}]}\n",
		"not yaml":             "kpis: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.KPIs, 4)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
