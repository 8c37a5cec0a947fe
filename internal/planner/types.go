package planner

import (
	"slices"
	"time"
)

// Occurrence is one dated instance of a route template.
type Occurrence struct {
	Departure  time.Time
	Arrival    time.Time
	TemplateID string
}

// Signature identifies an occurrence by instants rather than zone-specific wall times.
type Signature struct {
	Departure  int64
	Arrival    int64
	TemplateID string
}

// NewSignature builds the ban key for a (departure, arrival, template) triple.
func NewSignature(departure, arrival time.Time, templateID string) Signature {
	return Signature{Departure: departure.UnixNano(), Arrival: arrival.UnixNano(), TemplateID: templateID}
}

// Signature returns the occurrence's ban key.
func (o Occurrence) Signature() Signature {
	return NewSignature(o.Departure, o.Arrival, o.TemplateID)
}

// ScheduleEntry is an occurrence with an aircraft assigned.
type ScheduleEntry struct {
	Departure  time.Time
	Arrival    time.Time
	AircraftID string
	TemplateID string
}

// Schedule is the output of one successful assignment attempt.
type Schedule struct {
	Attempt int
	Entries []ScheduleEntry
}

// ScheduleCandidates holds every successful attempt of a run, in attempt order.
type ScheduleCandidates struct {
	HorizonStart time.Time
	Attempts     int
	Schedules    []Schedule
}

// AircraftSet is a set of aircraft ids.
type AircraftSet map[string]struct{}

// NewAircraftSet builds a set from ids.
func NewAircraftSet(ids ...string) AircraftSet {
	s := make(AircraftSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s AircraftSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Clone copies the set.
func (s AircraftSet) Clone() AircraftSet {
	out := make(AircraftSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Sorted returns the members in ascending order.
func (s AircraftSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
