package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrScheduleConfigMissing is returned when a run starts without a schedule configuration.
	ErrScheduleConfigMissing = errors.New("schedule configuration missing")
	// ErrWrongLocationQuery means a flight was replayed against an airport it does not touch.
	ErrWrongLocationQuery = errors.New("flight is not connected with the queried airport")
)

// TemplateInfeasibleError reports an occurrence for which no aircraft could be found.
type TemplateInfeasibleError struct {
	TemplateID        string
	Departure         time.Time
	Candidates        []string
	RequestedCapacity int
}

func (e *TemplateInfeasibleError) Error() string {
	return fmt.Sprintf("cannot create flight by plan %s with departure %s: no available aircraft (requested capacity %d, candidates [%s])",
		e.TemplateID, e.Departure.Format(time.RFC3339), e.RequestedCapacity, strings.Join(e.Candidates, ", "))
}

// GenerationFailedError means every attempt of a run was infeasible.
type GenerationFailedError struct {
	Attempts int
	Last     *TemplateInfeasibleError
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("all %d generation attempts failed: %v", e.Attempts, e.Last)
}

func (e *GenerationFailedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// ScheduleInconsistencyError reports committed history that contradicts itself, such as an
// aircraft departing an airport it is not at.
type ScheduleInconsistencyError struct {
	AirportID  string
	AircraftID string
	FlightID   string
	At         time.Time
	Reason     string
}

func (e *ScheduleInconsistencyError) Error() string {
	return fmt.Sprintf("inconsistent history at airport %s: aircraft %s %s (flight %s at %s)",
		e.AirportID, e.AircraftID, e.Reason, e.FlightID, e.At.Format(time.RFC3339))
}

// CrewInfeasibleError means one leg of a schedule could not be crewed.
type CrewInfeasibleError struct {
	Attempt            int
	TemplateID         string
	Departure          time.Time
	RequiredPilots     int
	FoundPilots        int
	RequiredAttendants int
	FoundAttendants    int
}

func (e *CrewInfeasibleError) Error() string {
	return fmt.Sprintf("attempt %d: cannot crew plan %s departing %s (pilots %d/%d, attendants %d/%d)",
		e.Attempt, e.TemplateID, e.Departure.Format(time.RFC3339),
		e.FoundPilots, e.RequiredPilots, e.FoundAttendants, e.RequiredAttendants)
}

// NoFeasibleCrewError means no candidate schedule could be crewed.
type NoFeasibleCrewError struct {
	Failures []*CrewInfeasibleError
}

func (e *NoFeasibleCrewError) Error() string {
	return fmt.Sprintf("no feasible crew assignment across %d candidate schedules", len(e.Failures))
}

func (e *NoFeasibleCrewError) Unwrap() []error {
	out := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f
	}
	return out
}
