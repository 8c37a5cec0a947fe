package planner

import (
	"time"

	_ "time/tzdata"

	"github.com/lib/pq"

	"github.com/noah-isme/route-network-api/internal/models"
)

var baseDay = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(dayOffset int, clock string) time.Time {
	c := models.MustClockTime(clock)
	return c.On(baseDay.AddDate(0, 0, dayOffset), time.UTC)
}

func ptr[T any](v T) *T { return &v }

func template(id, src, dst, dep, arr string, capacity int) models.RouteTemplate {
	return models.RouteTemplate{
		ID:                id,
		FlightCode:        "SU" + id,
		SourceID:          src,
		DestinationID:     dst,
		DepartureTime:     models.MustClockTime(dep),
		ArrivalTime:       models.MustClockTime(arr),
		DaysOfWeek:        pq.Int64Array{0, 1, 2, 3, 4, 5, 6},
		StartDate:         baseDay,
		EndDate:           baseDay.AddDate(0, 1, 0),
		PassengerCapacity: capacity,
		Status:            models.TemplatePending,
	}
}

func aircraft(id string, capacity, pilots, attendants int) models.Aircraft {
	return models.Aircraft{
		ID:               id,
		TailCode:         "RA-" + id,
		EconomyClassCap:  capacity,
		PilotsNumber:     pilots,
		AttendantsNumber: attendants,
	}
}

type flightOpt func(*models.Flight)

func departedAt(t time.Time) flightOpt { return func(f *models.Flight) { f.ActualDeparture = ptr(t) } }
func arrivedAt(t time.Time) flightOpt  { return func(f *models.Flight) { f.ActualArrival = ptr(t) } }
func divertedTo(airport string) flightOpt {
	return func(f *models.Flight) { f.ActualDestinationID = ptr(airport) }
}
func canceled() flightOpt { return func(f *models.Flight) { f.Canceled = true } }
func crew(ids ...string) flightOpt {
	return func(f *models.Flight) { f.EmployeeIDs = pq.StringArray(ids) }
}

func flight(id, aircraftID, src, dst string, dep, arr time.Time, opts ...flightOpt) models.Flight {
	f := models.Flight{
		ID:               id,
		TemplateID:       "tpl-" + src + dst,
		SourceID:         src,
		DestinationID:    dst,
		PlannedDeparture: dep,
		PlannedArrival:   arr,
	}
	if aircraftID != "" {
		f.AircraftID = ptr(aircraftID)
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

func scheduleConfig() *models.ScheduleConfig {
	cfg := models.DefaultScheduleConfig()
	cfg.MinBetweenFlightsDelay = 30 * time.Minute
	cfg.MaxFlightGenerationAttempts = 5
	return &cfg
}
