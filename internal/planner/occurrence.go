package planner

import (
	"cmp"
	"iter"
	"slices"
	"time"

	"github.com/noah-isme/route-network-api/internal/models"
)

const day = 24 * time.Hour

// Occurrences lazily expands a template into dated occurrences departing at or after
// horizonStart. Each range over the result walks the dates again from the start.
func Occurrences(t models.RouteTemplate, horizonStart time.Time) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		srcLoc := t.SourceLocation()
		dstLoc := t.DestinationLocation()
		weekdays := activeWeekdays(t.DaysOfWeek)
		if weekdays == ([7]bool{}) {
			return
		}

		current := civilDate(t.StartDate)
		if h := civilDate(horizonStart.In(srcLoc)); current.Before(h) {
			current = h
		}
		end := civilDate(t.EndDate)

		for ; !current.After(end); current = current.AddDate(0, 0, 1) {
			if !weekdays[WeekdayIndex(current.Weekday())] {
				continue
			}
			departure := t.DepartureTime.On(current, srcLoc)
			if departure.Before(horizonStart) {
				continue
			}
			arrival := t.ArrivalTime.On(current, dstLoc)
			if arrival.Before(departure) {
				arrival = arrival.Add(day)
			}
			if !yield(Occurrence{Departure: departure, Arrival: arrival, TemplateID: t.ID}) {
				return
			}
		}
	}
}

// CollectOccurrences merges the occurrences of all templates ordered by departure.
func CollectOccurrences(templates []models.RouteTemplate, horizonStart time.Time) []Occurrence {
	var out []Occurrence
	for _, t := range templates {
		for occ := range Occurrences(t, horizonStart) {
			out = append(out, occ)
		}
	}
	slices.SortStableFunc(out, compareOccurrences)
	return out
}

func compareOccurrences(a, b Occurrence) int {
	if c := a.Departure.Compare(b.Departure); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TemplateID, b.TemplateID); c != 0 {
		return c
	}
	return a.Arrival.Compare(b.Arrival)
}

// WeekdayIndex maps a time.Weekday onto 0 = Monday ... 6 = Sunday.
func WeekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func activeWeekdays(days []int64) [7]bool {
	var out [7]bool
	for _, d := range days {
		if d >= 0 && d < 7 {
			out[d] = true
		}
	}
	return out
}

// civilDate strips the clock and zone, keeping the calendar date as read in t's own zone.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
