package helpers

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/fieldreport/engine"
)

// ============================================================================
// CSV HELPER — Flat event CSV in, report table out
// ============================================================================
// ParseEventsCSV reads one event per row. Recognised headers:
//
//   id, company_id, event_state, active, start_at, end_at,
//   campaign, brands, place, city, place_state, country, zipcode, areas,
//   users, teams, activity_types, photos, comments, expenses,
//   kpi:<id>, kpi:<id>:<segment>
//
// List columns (brands, areas, users, teams, activity_types) are separated
// by ";". Users are "First Last[|role]". Unknown columns are skipped.
// ============================================================================

const listSeparator = ";"

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02"}

type colMapping struct {
	key     string
	kpi     string
	segment string
}

// ParseEventsCSV parses CSV bytes into events.
func ParseEventsCSV(data []byte) ([]engine.Event, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	mappings := make([]colMapping, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if strings.HasPrefix(h, engine.KPIPrefix) {
			parts := strings.SplitN(strings.TrimPrefix(h, engine.KPIPrefix), ":", 2)
			m := colMapping{kpi: parts[0]}
			if len(parts) == 2 {
				m.segment = parts[1]
			}
			mappings[i] = m
			continue
		}
		mappings[i] = colMapping{key: strings.ToLower(h)}
	}

	var events []engine.Event
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		e := engine.Event{ID: strconv.Itoa(line - 1)}
		for i, val := range row {
			if i >= len(mappings) {
				break
			}
			val = strings.TrimSpace(val)
			if val == "" {
				continue
			}
			m := mappings[i]
			if m.kpi != "" {
				if err := setResult(&e, m, val); err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				continue
			}
			if err := setColumn(&e, m.key, val); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		events = append(events, e)
	}

	return events, nil
}

func setColumn(e *engine.Event, key, val string) error {
	switch key {
	case "id":
		e.ID = val
	case "company_id":
		e.CompanyID = val
	case "event_state":
		e.State = strings.ToLower(val)
	case "active":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("active: %w", err)
		}
		e.Active = b
	case "start_at", "end_at":
		t, err := parseTime(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "start_at" {
			e.StartAt = t
		} else {
			e.EndAt = t
		}
	case "campaign":
		e.Campaign.Name = val
	case "brands":
		for _, name := range splitList(val) {
			e.Campaign.Brands = append(e.Campaign.Brands, engine.Brand{Name: name})
		}
	case "place", "city", "place_state", "country", "zipcode", "areas":
		setPlace(e, key, val)
	case "users":
		for _, u := range splitList(val) {
			name, role, _ := strings.Cut(u, "|")
			first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
			e.Users = append(e.Users, engine.User{
				FirstName: first,
				LastName:  strings.TrimSpace(last),
				Role:      strings.TrimSpace(role),
			})
		}
	case "teams":
		for _, name := range splitList(val) {
			e.Teams = append(e.Teams, engine.Team{Name: name})
		}
	case "activity_types":
		for _, name := range splitList(val) {
			e.Activities = append(e.Activities, engine.Activity{TypeName: name})
		}
	case "photos", "comments":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if key == "photos" {
			e.Photos = n
		} else {
			e.Comments = n
		}
	case "expenses":
		for _, s := range splitList(val) {
			amount, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("expenses: %w", err)
			}
			e.Expenses = append(e.Expenses, engine.Expense{Amount: amount})
		}
	}
	return nil
}

func setPlace(e *engine.Event, key, val string) {
	if e.Place == nil {
		e.Place = &engine.Place{}
	}
	switch key {
	case "place":
		e.Place.Name = val
	case "city":
		e.Place.City = val
	case "place_state":
		e.Place.State = val
	case "country":
		e.Place.Country = val
	case "zipcode":
		e.Place.Zipcode = val
	case "areas":
		for _, name := range splitList(val) {
			e.Place.Areas = append(e.Place.Areas, engine.Area{Name: name})
		}
	}
}

func setResult(e *engine.Event, m colMapping, val string) error {
	n, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fmt.Errorf("kpi %s: %w", m.kpi, err)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return fmt.Errorf("kpi %s: non-finite value %q", m.kpi, val)
	}
	idx := -1
	for i := range e.Results {
		if e.Results[i].KPIID == m.kpi {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.Results = append(e.Results, engine.KPIResult{KPIID: m.kpi})
		idx = len(e.Results) - 1
	}
	r := &e.Results[idx]
	if m.segment == "" {
		r.Value = &n
		return nil
	}
	if r.Segments == nil {
		r.Segments = make(map[string]float64)
	}
	r.Segments[m.segment] = n
	return nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// WriteCSV writes a report table as CSV: header, body rows and a totals
// footer when the table has a summary.
func WriteCSV(w io.Writer, table *engine.TableData) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(tableRecords(table)); err != nil {
		return fmt.Errorf("write CSV: %w", err)
	}
	return nil
}

// tableRecords flattens a table into header, body and footer records.
func tableRecords(table *engine.TableData) [][]string {
	records := make([][]string, 0, len(table.Rows)+2)

	header := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c.Label
	}
	records = append(records, header)
	records = append(records, table.Rows...)

	if table.Summary != nil && len(table.Columns) > 0 {
		footer := make([]string, len(table.Columns))
		for i, c := range table.Columns {
			footer[i] = table.Summary.Values[c.Key]
		}
		footer[0] = table.Summary.Label
		records = append(records, footer)
	}
	return records
}
