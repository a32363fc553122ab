package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/spektr-org/fieldreport/engine"
	"github.com/spektr-org/fieldreport/helpers"
	"github.com/spektr-org/fieldreport/schema"
	"github.com/spektr-org/fieldreport/store"
)

// ============================================================================
// FIELDREPORT CLI — Evaluate a report definition against event data
// ============================================================================

const version = "0.1.0"

func main() {
	// ── Flags ─────────────────────────────────────────────────────────────
	defPath := flag.String("definition", "", "Path to report definition YAML/JSON (required)")
	catalogPath := flag.String("catalog", "", "Path to KPI / form-field catalog YAML/JSON")
	eventsPath := flag.String("events", "", "Path to events file (.json or .csv); reads MongoDB when empty")
	filtersPath := flag.String("filters", "", "Path to filter parameters YAML/JSON")
	company := flag.String("company", "", "Company id (overrides FIELDREPORT_COMPANY_ID)")
	timezone := flag.String("timezone", "", "IANA timezone (overrides FIELDREPORT_TIMEZONE)")
	now := flag.String("now", "", "Reference time, RFC3339 (default: current time)")
	page := flag.Int("page", 1, "Page number")
	perPage := flag.Int("per-page", 0, "Rows per page (0 = all)")
	format := flag.String("format", "pretty", "Output format: json, pretty, csv, xlsx")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	envFile := flag.String("env", ".env", "Dotenv file to load before reading the environment")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `fieldreport: pivot reports over field-marketing events

Usage:
  fieldreport --definition report.yaml --catalog catalog.yaml --events events.csv --format csv
  fieldreport --definition report.yaml --filters filters.yaml --company acme

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment:
  FIELDREPORT_MONGO_URI          MongoDB connection string (when --events is empty)
  FIELDREPORT_MONGO_DATABASE     Database name (default fieldreport)
  FIELDREPORT_MONGO_COLLECTION   Events collection (default events)
  FIELDREPORT_COMPANY_ID         Company whose events are read
  FIELDREPORT_TIMEZONE           Timezone dates are cut in (default UTC)
  FIELDREPORT_LOG_LEVEL          debug, info, warn, error (default info)
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("fieldreport %s\n", version)
		os.Exit(0)
	}

	if *defPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --definition is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*envFile)
	if err != nil {
		fatalf("Config: %v", err)
	}
	if *company != "" {
		cfg.CompanyID = *company
	}
	if *timezone != "" {
		cfg.Timezone = *timezone
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fatalf("Logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(context.Background(), logger, cfg, runArgs{
		definition: *defPath,
		catalog:    *catalogPath,
		events:     *eventsPath,
		filters:    *filtersPath,
		now:        *now,
		page:       *page,
		perPage:    *perPage,
		format:     *format,
		out:        *outFile,
	}); err != nil {
		logger.Error("report failed", zap.Error(err))
		os.Exit(1)
	}
}

type runArgs struct {
	definition string
	catalog    string
	events     string
	filters    string
	now        string
	page       int
	perPage    int
	format     string
	out        string
}

func run(ctx context.Context, log *zap.Logger, cfg *Configuration, args runArgs) (err error) {
	// ── Definition and catalog ────────────────────────────────────────────
	def, err := engine.LoadDefinition(args.definition)
	if err != nil {
		return err
	}
	var catalog schema.Catalog
	if args.catalog != "" {
		if catalog, err = schema.Load(args.catalog); err != nil {
			return err
		}
		log.Info("catalog loaded",
			zap.String("catalog", catalog.Name),
			zap.Int("kpis", len(catalog.KPIs)),
			zap.Int("form_fields", len(catalog.FormFields)))
	}

	report, err := engine.Compile(def, engine.NewResolver(catalog), engine.WithLogger(log))
	if err != nil {
		return err
	}

	// ── Scope and params ──────────────────────────────────────────────────
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	scope := engine.Scope{CompanyID: cfg.CompanyID, Location: loc}
	if args.now != "" {
		if scope.Now, err = time.Parse(time.RFC3339, args.now); err != nil {
			return fmt.Errorf("--now: %w", err)
		}
	}

	params := engine.Params{Page: args.page, PerPage: args.perPage}
	if args.filters != "" {
		if params.Filters, err = loadFilters(args.filters); err != nil {
			return err
		}
	}

	// ── Source ────────────────────────────────────────────────────────────
	src, closeSrc, err := openSource(ctx, log, cfg, args.events)
	if err != nil {
		return err
	}
	defer closeSrc()

	result, err := report.FetchPage(ctx, src, params, scope)
	if err != nil {
		return err
	}

	// ── Output ────────────────────────────────────────────────────────────
	var w io.Writer = os.Stdout
	if args.out != "" {
		f, createErr := os.Create(args.out)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer closeOutput(f, &err)
		w = f
	}

	if result == nil {
		log.Warn("report definition needs at least one row and one value")
		return nil
	}

	switch args.format {
	case "csv":
		return helpers.WriteCSV(w, result.Export(def.Name))
	case "xlsx":
		return helpers.WriteXLSX(w, result.Export(def.Name))
	case "json":
		return json.NewEncoder(w).Encode(result.Export(def.Name))
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Export(def.Name))
	}
}

func openSource(ctx context.Context, log *zap.Logger, cfg *Configuration, path string) (engine.Source, func(), error) {
	if path != "" {
		events, err := loadEvents(path)
		if err != nil {
			return nil, nil, err
		}
		log.Info("events loaded", zap.String("file", path), zap.Int("events", len(events)))
		return engine.NewSliceSource(events), func() {}, nil
	}

	client, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("disconnect mongo failed", zap.Error(err))
		}
	}
	return store.NewMongoSource(coll, log), closeFn, nil
}

func loadEvents(path string) ([]engine.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return helpers.ParseEventsCSV(data)
	}
	var events []engine.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("parse events JSON: %w", err)
	}
	return events, nil
}

func loadFilters(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read filters: %w", err)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse filters: %w", err)
	}
	return raw, nil
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// closeOutput closes c and reports its error through err unless an earlier
// error is already set.
func closeOutput(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("close output file: %w", cerr)
	}
}
