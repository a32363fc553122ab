package engine

import "time"

// Scope is the evaluation context passed into every call: the tenant whose
// events are read, the timezone dates are cut in, and the reference "now".
type Scope struct {
	CompanyID string
	Location  *time.Location
	Now       time.Time
}

// normalize fills defaults: UTC for a missing location, wall clock for a
// missing now.
func (s Scope) normalize() Scope {
	if s.Location == nil {
		s.Location = time.UTC
	}
	if s.Now.IsZero() {
		s.Now = time.Now()
	}
	s.Now = s.Now.In(s.Location)
	return s
}

// local converts t into the scope's timezone.
func (s Scope) local(t time.Time) time.Time {
	if s.Location == nil {
		return t.UTC()
	}
	return t.In(s.Location)
}
