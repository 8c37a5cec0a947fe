package models

import (
	"time"

	"github.com/lib/pq"
)

// TemplateStatus tracks a route template through a generation run.
type TemplateStatus string

const (
	TemplatePending    TemplateStatus = "PENDING"
	TemplateProcessing TemplateStatus = "PROCESSING"
	TemplateError      TemplateStatus = "ERROR"
	TemplateSuccess    TemplateStatus = "SUCCESS"
)

// RouteTemplate is a recurring flight plan (FlightPlan in the operations vocabulary).
// DaysOfWeek holds weekday indexes with 0 = Monday.
type RouteTemplate struct {
	ID                string         `db:"id" json:"id"`
	FlightCode        string         `db:"flight_code" json:"flight_code"`
	SourceID          string         `db:"source_id" json:"source_id"`
	DestinationID     string         `db:"destination_id" json:"destination_id"`
	DepartureTime     ClockTime      `db:"departure_time" json:"departure_time"`
	ArrivalTime       ClockTime      `db:"arrival_time" json:"arrival_time"`
	DaysOfWeek        pq.Int64Array  `db:"days_of_week" json:"days_of_week"`
	StartDate         time.Time      `db:"start_date" json:"start_date"`
	EndDate           time.Time      `db:"end_date" json:"end_date"`
	PassengerCapacity int            `db:"passenger_capacity" json:"passenger_capacity"`
	Status            TemplateStatus `db:"status" json:"status"`
	Description       string         `db:"description" json:"description"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`

	// Joined from the airports table.
	SourceTimezone      string `db:"source_timezone" json:"-"`
	DestinationTimezone string `db:"destination_timezone" json:"-"`
}

// SourceLocation returns the departure airport's zone.
func (t RouteTemplate) SourceLocation() *time.Location {
	return LoadZone(t.SourceTimezone)
}

// DestinationLocation returns the arrival airport's zone.
func (t RouteTemplate) DestinationLocation() *time.Location {
	return LoadZone(t.DestinationTimezone)
}
