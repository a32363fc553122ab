package engine

// ============================================================================
// FIELDREPORT ENGINE TYPES — Pivot result and export shapes
// ============================================================================

// ============================================================================
// REPORT COLUMNS — Flattened column identities
// ============================================================================

// ReportColumn is one flattened output column: a column-dimension tuple
// crossed with a value metric and, for segmented metrics, one segment.
type ReportColumn struct {
	Index       int      `json:"index"`
	Column      GroupKey `json:"-"`
	Value       int      `json:"value"` // index into the definition's values
	ValueLabel  string   `json:"valueLabel"`
	Segment     string   `json:"segment,omitempty"`
	SegmentName string   `json:"segmentName,omitempty"`
	Label       string   `json:"label"`
}

// ResultRow is one row group with raw values aligned to the report columns.
// A nil value means the row has no events for that column.
type ResultRow struct {
	Key    GroupKey   `json:"-"`
	Labels []string   `json:"labels"`
	Values []*float64 `json:"values"`
}

// ============================================================================
// PAGE — One evaluation result, paginated
// ============================================================================

// Page is the result of one FetchPage call. Rows holds the requested page;
// totals and percentages are computed over every row of the evaluation.
type Page struct {
	RowLabels  []string       `json:"rowLabels"`
	Columns    []ReportColumn `json:"columns"`
	Rows       []ResultRow    `json:"rows"`
	TotalRows  int            `json:"totalRows"`
	PageNumber int            `json:"page"`
	PerPage    int            `json:"perPage"`

	values []CompiledValue
	all    []ResultRow
	totals []float64
}

// ============================================================================
// TABLE TYPES — Flattened export
// ============================================================================

// TableData is a render-ready table: header columns, formatted body rows and
// an optional totals footer.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "percentage"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table, keyed by column key.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}
