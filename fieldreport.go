// Package fieldreport provides an ad-hoc report and pivot engine for
// field-marketing event data.
//
// Usage:
//
//	import "github.com/spektr-org/fieldreport/engine"
//
//	resolver := engine.NewResolver(catalog)
//	report, err := engine.Compile(definition, resolver,
//	    engine.WithLogger(logger),
//	)
//	page, err := report.FetchPage(ctx, source, params, engine.Scope{
//	    CompanyID: "acme",
//	    Location:  loc,
//	})
//
// A report definition declares row dimensions, column dimensions and value
// metrics. The engine filters the event records, groups them, aggregates each
// metric (expanding segmented KPIs into one column per segment), and returns
// a rectangular matrix with stable column headers. Formatting (percent of
// row / column / total) happens on demand from the raw values.
//
// The engine is read-only and keeps no state between calls. Data access goes
// through engine.Source; store.MongoSource reads events from MongoDB.
package fieldreport
