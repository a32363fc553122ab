package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Compile once, evaluate many
// ============================================================================
// Entry points: Compile(def, resolver, opts...) and Report.FetchPage(...)
//
// Compile resolves every field key and checks every aggregate, so broken
// definitions fail at configuration time. A compiled Report is immutable and
// safe for concurrent FetchPage calls.
//
// FetchPage pipeline:
//   1. Compile filter parameters → FilterSet
//   2. Query the Source, apply filters → SubView
//   3. Group rows × columns
//   4. Discover segment universes over the whole filtered view
//   5. Assemble the matrix, compute totals
//   6. Slice the requested page
// ============================================================================

// Params are the per-call inputs of FetchPage.
type Params struct {
	Filters map[string]interface{} `json:"filters,omitempty"`
	Page    int                    `json:"page,omitempty"`    // 1-based; <= 0 means 1
	PerPage int                    `json:"perPage,omitempty"` // <= 0 means all rows
}

// Report is a compiled report definition.
type Report struct {
	def     ReportDefinition
	rows    []*Field
	cols    []*Field
	filters []*Field
	layout  Layout
	cfg     *config
}

// Compile resolves a definition against the field registry.
func Compile(def ReportDefinition, resolver *Resolver, opts ...Option) (*Report, error) {
	if resolver == nil {
		return nil, fmt.Errorf("%w: nil resolver", ErrInvalidDefinition)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	r := &Report{def: def, cfg: cfg}

	var err error
	if r.rows, err = resolveSpecs(resolver, "rows", def.Rows); err != nil {
		return nil, err
	}
	if r.filters, err = resolveSpecs(resolver, "filters", def.Filters); err != nil {
		return nil, err
	}

	var dims []FieldSpec
	for _, c := range def.Columns {
		if c.Field == ValuesPlaceholder {
			r.layout.Placeholder = len(dims)
			continue
		}
		dims = append(dims, c)
	}
	if r.cols, err = resolveSpecs(resolver, "columns", dims); err != nil {
		return nil, err
	}

	for _, spec := range def.Values {
		f, err := resolver.Resolve(spec.Field)
		if err != nil {
			return nil, &FieldError{Section: "values", Key: spec.Field, Err: err}
		}
		agg := spec.aggregate()
		if err := CheckAggregate(f, agg); err != nil {
			return nil, &FieldError{Section: "values", Key: spec.Field, Err: err}
		}
		label := spec.Label
		if label == "" {
			label = f.Label
		}
		r.layout.Values = append(r.layout.Values, CompiledValue{
			Spec:      spec,
			Field:     f,
			Label:     label,
			Aggregate: agg,
			Display:   spec.display(),
			Precision: spec.precision(),
		})
	}
	r.layout.Separator = cfg.Separator
	r.layout.NullLabel = cfg.NullLabel

	cfg.Logger.Debug("compiled report",
		zap.String("report", def.Name),
		zap.Int("rows", len(r.rows)),
		zap.Int("columns", len(r.cols)),
		zap.Int("values", len(r.layout.Values)),
		zap.Int("filters", len(r.filters)))
	return r, nil
}

func resolveSpecs(resolver *Resolver, section string, specs []FieldSpec) ([]*Field, error) {
	out := make([]*Field, 0, len(specs))
	for _, spec := range specs {
		f, err := resolver.Resolve(spec.Field)
		if err != nil {
			return nil, &FieldError{Section: section, Key: spec.Field, Err: err}
		}
		out = append(out, f)
	}
	return out, nil
}

// Definition returns the definition the report was compiled from.
func (r *Report) Definition() ReportDefinition { return r.def }

// FilterFields returns the fields filter parameters may target.
func (r *Report) FilterFields() []*Field { return r.filters }

// FetchPage evaluates the report. An incomplete definition (no rows or no
// values) yields nil, nil.
func (r *Report) FetchPage(ctx context.Context, src Source, params Params, s Scope) (*Page, error) {
	if !r.def.IsComplete() {
		r.cfg.Logger.Debug("report definition incomplete", zap.String("report", r.def.Name))
		return nil, nil
	}
	if src == nil {
		return nil, fmt.Errorf("fetch page: nil source")
	}
	s = s.normalize()
	log := r.cfg.Logger.With(
		zap.String("evaluation", uuid.NewString()),
		zap.String("report", r.def.Name),
		zap.String("company", s.CompanyID))

	// 1–2. Filter
	fs := CompileFilters(r.filters, params.Filters, s, log)
	view, err := src.Events(ctx, Query{CompanyID: s.CompanyID, Filters: fs, Scope: s})
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	read := view.Len()
	view = fs.Apply(view)

	// 3. Group
	g := GroupEvents(view, r.rows, r.cols, s)

	// 4. Segment universes, fixed before assembly
	segments := make([][]Segment, len(r.layout.Values))
	for i, v := range r.layout.Values {
		if v.Field.Segmented() {
			segments[i] = DiscoverSegments(view, v.Field)
		}
	}

	// 5. Assemble
	columns, rows := Assemble(g, r.layout, segments, s)
	page := &Page{
		RowLabels: r.rowLabels(),
		Columns:   columns,
		TotalRows: len(rows),
		values:    r.layout.Values,
		all:       rows,
		totals:    columnsTotals(columns, rows),
	}

	// 6. Paginate
	page.PageNumber, page.PerPage, page.Rows = paginate(rows, params.Page, params.PerPage)

	log.Info("report evaluated",
		zap.Int("events_read", read),
		zap.Int("events_matched", view.Len()),
		zap.Int("filters", fs.Len()),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)))
	return page, nil
}

func (r *Report) rowLabels() []string {
	out := make([]string, len(r.rows))
	for i, f := range r.rows {
		out[i] = r.def.Rows[i].Label
		if out[i] == "" {
			out[i] = f.Label
		}
	}
	return out
}

func paginate(rows []ResultRow, page, perPage int) (int, int, []ResultRow) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		return 1, len(rows), rows
	}
	start := (page - 1) * perPage
	if start >= len(rows) {
		return page, perPage, []ResultRow{}
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return page, perPage, rows[start:end]
}

// AllRows returns every row of the evaluation, ignoring pagination.
func (p *Page) AllRows() []ResultRow { return p.all }
