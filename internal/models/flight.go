package models

import (
	"time"

	"github.com/lib/pq"
)

// Flight is a dated instance of a route template.
type Flight struct {
	ID                  string         `db:"id" json:"id"`
	TemplateID          string         `db:"template_id" json:"template_id"`
	PlannedDeparture    time.Time      `db:"planned_departure" json:"planned_departure"`
	PlannedArrival      time.Time      `db:"planned_arrival" json:"planned_arrival"`
	ActualDeparture     *time.Time     `db:"actual_departure" json:"actual_departure,omitempty"`
	ActualArrival       *time.Time     `db:"actual_arrival" json:"actual_arrival,omitempty"`
	ActualDestinationID *string        `db:"actual_destination_id" json:"actual_destination_id,omitempty"`
	Canceled            bool           `db:"canceled" json:"canceled"`
	AircraftID          *string        `db:"aircraft_id" json:"aircraft_id,omitempty"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`

	// Joined from route_templates and flight_employees.
	FlightCode    string         `db:"flight_code" json:"flight_code"`
	SourceID      string         `db:"source_id" json:"source_id"`
	DestinationID string         `db:"destination_id" json:"destination_id"`
	EmployeeIDs   pq.StringArray `db:"employee_ids" json:"employee_ids"`
}

// FlightCrew links an employee to a flight.
type FlightCrew struct {
	FlightID   string `db:"flight_id"`
	EmployeeID string `db:"employee_id"`
}

// Departed reports whether an actual departure was recorded.
func (f Flight) Departed() bool { return f.ActualDeparture != nil }

// Arrived reports whether an actual arrival was recorded.
func (f Flight) Arrived() bool { return f.ActualArrival != nil }

// EffectiveDestination is the diverted destination when one was recorded, else the planned one.
func (f Flight) EffectiveDestination() string {
	if f.ActualDestinationID != nil && *f.ActualDestinationID != "" {
		return *f.ActualDestinationID
	}
	return f.DestinationID
}

// PlannedDuration is the scheduled block time.
func (f Flight) PlannedDuration() time.Duration {
	return f.PlannedArrival.Sub(f.PlannedDeparture)
}

// Aircraft returns the assigned aircraft id or "".
func (f Flight) Aircraft() string {
	if f.AircraftID == nil {
		return ""
	}
	return *f.AircraftID
}

// EmployeeLocation is the last known position of a crew member.
type EmployeeLocation struct {
	EmployeeID string    `db:"employee_id"`
	AirportID  string    `db:"airport_id"`
	FreeAt     time.Time `db:"free_at"`
}
