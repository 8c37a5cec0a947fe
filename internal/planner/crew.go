package planner

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/route-network-api/internal/models"
)

// Category groups occupations by the seat they can fill.
type Category int

const (
	CategoryNone Category = iota
	CategoryPilot
	CategoryAttendant
)

// CategoryOf maps an occupation code to its crew category.
func CategoryOf(code models.OccupationCode) Category {
	switch code {
	case models.OccupationPilot, models.OccupationSecondPilot:
		return CategoryPilot
	case models.OccupationSeniorAttendant, models.OccupationAttendant:
		return CategoryAttendant
	default:
		return CategoryNone
	}
}

// AvailabilityFunc reports whether an employee can work during [start, end].
type AvailabilityFunc func(employeeID string, start, end time.Time) bool

// AvailabilityFromLogs builds an AvailabilityFunc from employee logs.
func AvailabilityFromLogs(logs []models.EmployeeLog) AvailabilityFunc {
	byEmployee := make(map[string][]models.EmployeeLog)
	for _, l := range logs {
		byEmployee[l.EmployeeID] = append(byEmployee[l.EmployeeID], l)
	}
	return func(employeeID string, start, end time.Time) bool {
		for _, l := range byEmployee[employeeID] {
			if l.Blocks(start, end) {
				return false
			}
		}
		return true
	}
}

// EmployeeSeed is where an employee is, and from when, at the horizon start.
type EmployeeSeed struct {
	AirportID string
	FreeAt    time.Time
}

// CrewInput is everything crew assignment reads. It is shared read-only between variants.
type CrewInput struct {
	Employees []models.Employee
	// Seeds holds the last known position per employee; others start at HomeBase.
	Seeds     map[string]EmployeeSeed
	HomeBase  string
	Aircraft  map[string]models.Aircraft
	Templates map[string]models.RouteTemplate
	Available AvailabilityFunc
}

// CrewLeg is a schedule entry with its crew.
type CrewLeg struct {
	ScheduleEntry
	EmployeeIDs []string
}

// CrewVariant is a fully crewed schedule.
type CrewVariant struct {
	Attempt int
	Legs    []CrewLeg
	// Uncrewable counts the candidate schedules of the same run that could not be crewed.
	Uncrewable int
}

type crewMember struct {
	id       string
	category Category
	airport  string
	freeAt   time.Time
}

// AssignCrew walks the schedule in order and crews every leg from the employees at the
// source airport, first available first. Any uncrewable leg fails the whole variant.
func AssignCrew(ctx context.Context, schedule Schedule, in *CrewInput) (CrewVariant, error) {
	members := make([]*crewMember, 0, len(in.Employees))
	for _, e := range in.Employees {
		category := CategoryOf(e.OccupationCode)
		if category == CategoryNone {
			continue
		}
		m := &crewMember{id: e.ID, category: category, airport: in.HomeBase}
		if seed, ok := in.Seeds[e.ID]; ok && seed.AirportID != "" {
			m.airport = seed.AirportID
			m.freeAt = seed.FreeAt
		}
		members = append(members, m)
	}

	variant := CrewVariant{Attempt: schedule.Attempt, Legs: make([]CrewLeg, 0, len(schedule.Entries))}
	for i, entry := range schedule.Entries {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return CrewVariant{}, err
			}
		}
		tpl, ok := in.Templates[entry.TemplateID]
		if !ok {
			return CrewVariant{}, fmt.Errorf("schedule references unknown template %s", entry.TemplateID)
		}
		craft, ok := in.Aircraft[entry.AircraftID]
		if !ok {
			return CrewVariant{}, fmt.Errorf("schedule references unknown aircraft %s", entry.AircraftID)
		}

		pool := make([]*crewMember, 0)
		for _, m := range members {
			if m.airport != tpl.SourceID || m.freeAt.After(entry.Departure) {
				continue
			}
			if in.Available != nil && !in.Available(m.id, entry.Departure, entry.Arrival) {
				continue
			}
			pool = append(pool, m)
		}
		slices.SortFunc(pool, func(a, b *crewMember) int {
			if c := a.freeAt.Compare(b.freeAt); c != 0 {
				return c
			}
			return cmp.Compare(a.id, b.id)
		})

		pilots := pick(pool, CategoryPilot, craft.PilotsNumber)
		attendants := pick(pool, CategoryAttendant, craft.AttendantsNumber)
		if len(pilots) < craft.PilotsNumber || len(attendants) < craft.AttendantsNumber {
			return CrewVariant{}, &CrewInfeasibleError{
				Attempt:            schedule.Attempt,
				TemplateID:         entry.TemplateID,
				Departure:          entry.Departure,
				RequiredPilots:     craft.PilotsNumber,
				FoundPilots:        len(pilots),
				RequiredAttendants: craft.AttendantsNumber,
				FoundAttendants:    len(attendants),
			}
		}

		leg := CrewLeg{ScheduleEntry: entry, EmployeeIDs: make([]string, 0, len(pilots)+len(attendants))}
		for _, m := range append(pilots, attendants...) {
			m.airport = tpl.DestinationID
			m.freeAt = entry.Arrival
			leg.EmployeeIDs = append(leg.EmployeeIDs, m.id)
		}
		variant.Legs = append(variant.Legs, leg)
	}
	return variant, nil
}

func pick(pool []*crewMember, category Category, n int) []*crewMember {
	out := make([]*crewMember, 0, n)
	for _, m := range pool {
		if len(out) == n {
			break
		}
		if m.category == category {
			out = append(out, m)
		}
	}
	return out
}

// VariantRanker reports whether a should be preferred over b.
type VariantRanker func(a, b CrewVariant) bool

// FirstFeasible prefers the earliest attempt.
func FirstFeasible(a, b CrewVariant) bool {
	return a.Attempt < b.Attempt
}

// FewestCrewChanges prefers variants whose aircraft keep the same crew between consecutive
// legs, falling back to attempt order.
func FewestCrewChanges(a, b CrewVariant) bool {
	ca, cb := CrewChanges(a), CrewChanges(b)
	if ca != cb {
		return ca < cb
	}
	return a.Attempt < b.Attempt
}

// RankerByName resolves a configured ranking policy; unknown names fall back to FirstFeasible.
func RankerByName(name string) VariantRanker {
	if name == "fewest_crew_changes" {
		return FewestCrewChanges
	}
	return FirstFeasible
}

// CrewChanges counts legs whose crew differs from the previous leg of the same aircraft.
func CrewChanges(v CrewVariant) int {
	last := make(map[string][]string)
	changes := 0
	for _, leg := range v.Legs {
		crew := slices.Clone(leg.EmployeeIDs)
		slices.Sort(crew)
		if prev, ok := last[leg.AircraftID]; ok && !slices.Equal(prev, crew) {
			changes++
		}
		last[leg.AircraftID] = crew
	}
	return changes
}

// ChooseBest returns the preferred variant. Variants must be in attempt order and non-empty.
func ChooseBest(variants []CrewVariant, ranker VariantRanker) CrewVariant {
	if ranker == nil {
		ranker = FirstFeasible
	}
	best := variants[0]
	for _, v := range variants[1:] {
		if ranker(v, best) {
			best = v
		}
	}
	return best
}

// AssignCrewVariants crews every candidate schedule in parallel and returns the preferred
// feasible variant. When no candidate can be crewed it returns a *NoFeasibleCrewError.
func AssignCrewVariants(ctx context.Context, candidates *ScheduleCandidates, in *CrewInput, ranker VariantRanker, parallelism int) (*CrewVariant, error) {
	type outcome struct {
		variant *CrewVariant
		failure *CrewInfeasibleError
	}
	outcomes := make([]outcome, len(candidates.Schedules))

	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, schedule := range candidates.Schedules {
		g.Go(func() error {
			variant, err := AssignCrew(gctx, schedule, in)
			var infeasible *CrewInfeasibleError
			switch {
			case errors.As(err, &infeasible):
				outcomes[i].failure = infeasible
				return nil
			case err != nil:
				return err
			}
			outcomes[i].variant = &variant
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var variants []CrewVariant
	var failures []*CrewInfeasibleError
	for _, o := range outcomes {
		if o.variant != nil {
			variants = append(variants, *o.variant)
		} else if o.failure != nil {
			failures = append(failures, o.failure)
		}
	}
	if len(variants) == 0 {
		return nil, &NoFeasibleCrewError{Failures: failures}
	}
	best := ChooseBest(variants, ranker)
	best.Uncrewable = len(failures)
	return &best, nil
}
