package dto

import "time"

// FlightStatusItem is one row of the flight board.
type FlightStatusItem struct {
	FlightID         string     `json:"flightId"`
	FlightCode       string     `json:"flightCode"`
	TemplateID       string     `json:"templateId"`
	SourceID         string     `json:"sourceId"`
	DestinationID    string     `json:"destinationId"`
	AircraftID       string     `json:"aircraftId,omitempty"`
	PlannedDeparture time.Time  `json:"plannedDeparture"`
	PlannedArrival   time.Time  `json:"plannedArrival"`
	ActualDeparture  *time.Time `json:"actualDeparture,omitempty"`
	ActualArrival    *time.Time `json:"actualArrival,omitempty"`
	EmployeeIDs      []string   `json:"employeeIds"`
	Label            string     `json:"label"`
	// Healthy is true when the label lets the aircraft's next flight rely on this one.
	Healthy bool `json:"healthy"`
}

// FlightBoard is the compatibility view over the display window.
type FlightBoard struct {
	From        time.Time          `json:"from"`
	To          time.Time          `json:"to"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Flights     []FlightStatusItem `json:"flights"`
	Summary     map[string]int     `json:"summary"`
}

// CheckRequest asks for the compatibility of an arbitrary set of flights.
type CheckRequest struct {
	FlightIDs []string `json:"flightIds" validate:"required,min=1,max=500,dive,required"`
}

// EmployeeLocationResponse tells where an employee is planned to be.
type EmployeeLocationResponse struct {
	EmployeeID string    `json:"employeeId"`
	AirportID  string    `json:"airportId"`
	At         time.Time `json:"at"`
	FreeAt     time.Time `json:"freeAt"`
}
