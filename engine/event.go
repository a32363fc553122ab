package engine

import "time"

// ============================================================================
// EVENT — The record the engine reports on
// ============================================================================
// One Event carries its associations already joined: campaign and brands,
// venue and areas, staff and teams, KPI results, activities with their form
// results, plus photo/comment/expense children.
//
// Tags serve both JSON files and MongoDB documents.
// ============================================================================

// Event states, as stored in State.
const (
	StateUnsent    = "unsent"
	StateSubmitted = "submitted"
	StateApproved  = "approved"
	StateRejected  = "rejected"
)

// Event is a single field-marketing event joined to its associations.
type Event struct {
	ID         string      `json:"id" bson:"_id"`
	CompanyID  string      `json:"company_id" bson:"company_id"`
	Active     bool        `json:"active" bson:"active"`
	State      string      `json:"state" bson:"aasm_state"`
	StartAt    time.Time   `json:"start_at" bson:"start_at"`
	EndAt      time.Time   `json:"end_at" bson:"end_at"`
	Campaign   Campaign    `json:"campaign" bson:"campaign"`
	Place      *Place      `json:"place,omitempty" bson:"place,omitempty"`
	Users      []User      `json:"users,omitempty" bson:"users,omitempty"`
	Teams      []Team      `json:"teams,omitempty" bson:"teams,omitempty"`
	Results    []KPIResult `json:"results,omitempty" bson:"results,omitempty"`
	Activities []Activity  `json:"activities,omitempty" bson:"activities,omitempty"`
	Photos     int         `json:"photos" bson:"photos"`
	Comments   int         `json:"comments" bson:"comments"`
	Expenses   []Expense   `json:"expenses,omitempty" bson:"expenses,omitempty"`
}

// Campaign is the campaign an event belongs to.
type Campaign struct {
	ID     string  `json:"id" bson:"id"`
	Name   string  `json:"name" bson:"name"`
	Brands []Brand `json:"brands,omitempty" bson:"brands,omitempty"`
}

// Brand is promoted by a campaign.
type Brand struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// Place is the venue of an event.
type Place struct {
	ID      string `json:"id" bson:"id"`
	Name    string `json:"name" bson:"name"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	Country string `json:"country" bson:"country"`
	Zipcode string `json:"zipcode" bson:"zipcode"`
	Areas   []Area `json:"areas,omitempty" bson:"areas,omitempty"`
}

// Area groups places geographically.
type Area struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// User is a staff member assigned to an event.
type User struct {
	ID        string `json:"id" bson:"id"`
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Role      string `json:"role" bson:"role"`
}

// Team is a group of users assigned to an event.
type Team struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// KPIResult is the value captured for one KPI on an event. Segmented KPIs
// fill Segments (segment id → value) instead of Value.
type KPIResult struct {
	KPIID    string             `json:"kpi_id" bson:"kpi_id"`
	Value    *float64           `json:"value,omitempty" bson:"value,omitempty"`
	Segments map[string]float64 `json:"segments,omitempty" bson:"segments,omitempty"`
}

// Activity is a form submitted during an event.
type Activity struct {
	ID       string            `json:"id" bson:"id"`
	TypeID   string            `json:"type_id" bson:"type_id"`
	TypeName string            `json:"type_name" bson:"type_name"`
	Results  []FormFieldResult `json:"results,omitempty" bson:"results,omitempty"`
}

// FormFieldResult is one answer on an activity form.
type FormFieldResult struct {
	FieldID string      `json:"field_id" bson:"field_id"`
	Value   interface{} `json:"value" bson:"value"`
}

// Expense is a cost recorded against an event.
type Expense struct {
	Name   string  `json:"name" bson:"name"`
	Amount float64 `json:"amount" bson:"amount"`
}

// Result returns the KPI result for a KPI id, if captured.
func (e *Event) Result(kpiID string) (KPIResult, bool) {
	for _, r := range e.Results {
		if r.KPIID == kpiID {
			return r, true
		}
	}
	return KPIResult{}, false
}
