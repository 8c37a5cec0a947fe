package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/route-network-api/internal/models"
)

// AssignmentInput is everything an attempt reads. It is shared read-only between attempts.
type AssignmentInput struct {
	Occurrences []Occurrence
	Templates   map[string]models.RouteTemplate
	Aircraft    map[string]models.Aircraft
	Banned      map[Signature]struct{}
	Config      *models.ScheduleConfig
	Locator     Locator
	// Equipment, when set, gates candidates on device life. Each attempt works on a clone.
	Equipment *EquipmentPredictor
}

// GenerationOptions tunes a multi-attempt run.
type GenerationOptions struct {
	Seed        uint64
	Parallelism int
}

type release struct {
	at       time.Time
	airport  string
	aircraft string
}

type attempt struct {
	index     int
	input     *AssignmentInput
	available map[string]AircraftSet
	inFlight  []release
	equipment *EquipmentPredictor
	rng       *rand.Rand
}

// NewAttemptRand returns the random stream of one attempt. The same seed and index always
// yield the same stream.
func NewAttemptRand(seed uint64, index int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(index)))
}

// Attempt runs one independent assignment pass over the occurrences. It fails with a
// *TemplateInfeasibleError when an occurrence has no eligible aircraft, or with the
// locator's error when the committed history cannot be replayed.
func Attempt(ctx context.Context, in *AssignmentInput, index int, rng *rand.Rand) (Schedule, error) {
	if in.Config == nil {
		return Schedule{}, ErrScheduleConfigMissing
	}
	a := &attempt{
		index:     index,
		input:     in,
		available: make(map[string]AircraftSet),
		rng:       rng,
	}
	if in.Equipment != nil {
		a.equipment = in.Equipment.Clone()
	}

	schedule := Schedule{Attempt: index, Entries: make([]ScheduleEntry, 0, len(in.Occurrences))}
	for i, occ := range in.Occurrences {
		if i%64 == 0 {
			if err := ctx.Err(); err != nil {
				return Schedule{}, err
			}
		}
		if _, banned := in.Banned[occ.Signature()]; banned {
			continue
		}
		tpl, ok := in.Templates[occ.TemplateID]
		if !ok {
			return Schedule{}, fmt.Errorf("occurrence references unknown template %s", occ.TemplateID)
		}

		if err := a.releaseUntil(occ.Departure); err != nil {
			return Schedule{}, err
		}
		pool, err := a.pool(tpl.SourceID, occ.Departure)
		if err != nil {
			return Schedule{}, err
		}

		chosen, candidates := a.choose(pool, tpl, occ)
		if chosen == "" {
			return Schedule{}, &TemplateInfeasibleError{
				TemplateID:        tpl.ID,
				Departure:         occ.Departure,
				Candidates:        candidates,
				RequestedCapacity: tpl.PassengerCapacity,
			}
		}

		delete(pool, chosen)
		if a.equipment != nil {
			a.equipment.Permit(chosen, occ.Departure, occ.Arrival)
		}
		a.push(release{at: occ.Arrival.Add(in.Config.MinBetweenFlightsDelay), airport: tpl.DestinationID, aircraft: chosen})
		schedule.Entries = append(schedule.Entries, ScheduleEntry{
			Departure:  occ.Departure,
			Arrival:    occ.Arrival,
			AircraftID: chosen,
			TemplateID: tpl.ID,
		})
	}
	return schedule, nil
}

// pool returns the airport's available set, seeding it from the locator on first use.
// Committed flights still inbound at that moment are queued for release like our own legs.
func (a *attempt) pool(airportID string, at time.Time) (AircraftSet, error) {
	if set, ok := a.available[airportID]; ok {
		return set, nil
	}
	set, err := a.input.Locator.PlannedPresence(airportID, at)
	if err != nil {
		return nil, err
	}
	a.available[airportID] = set
	for _, in := range a.input.Locator.InboundAfter(airportID, at) {
		a.push(release{at: in.At.Add(a.input.Config.MinBetweenFlightsDelay), airport: airportID, aircraft: in.AircraftID})
	}
	return set, nil
}

// releaseUntil returns aircraft whose turnaround completes at or before t to their airport.
func (a *attempt) releaseUntil(t time.Time) error {
	for len(a.inFlight) > 0 && !a.inFlight[0].at.After(t) {
		r := a.inFlight[0]
		a.inFlight = a.inFlight[1:]
		set, err := a.pool(r.airport, r.at)
		if err != nil {
			return err
		}
		set[r.aircraft] = struct{}{}
	}
	return nil
}

func (a *attempt) push(r release) {
	i, _ := slices.BinarySearchFunc(a.inFlight, r, func(e, target release) int {
		if c := e.at.Compare(target.at); c != 0 {
			return c
		}
		// equal instants keep insertion order
		return -1
	})
	a.inFlight = slices.Insert(a.inFlight, i, r)
}

// choose picks uniformly among qualifying aircraft. Candidates are sorted first so the
// random stream alone determines the outcome.
func (a *attempt) choose(pool AircraftSet, tpl models.RouteTemplate, occ Occurrence) (string, []string) {
	candidates := pool.Sorted()
	qualifying := make([]string, 0, len(candidates))
	for _, id := range candidates {
		craft, ok := a.input.Aircraft[id]
		if !ok || craft.PassengerCapacity() < tpl.PassengerCapacity {
			continue
		}
		if a.equipment != nil && !a.equipment.Check(id, occ.Departure, occ.Arrival) {
			continue
		}
		qualifying = append(qualifying, id)
	}
	if len(qualifying) == 0 {
		return "", candidates
	}
	return qualifying[a.rng.IntN(len(qualifying))], candidates
}

// GenerateSchedules runs Config.MaxFlightGenerationAttempts independent attempts and keeps
// every success in attempt order. When none succeeds the last attempt's failure is
// returned inside a *GenerationFailedError. Errors other than infeasibility abort the run.
func GenerateSchedules(ctx context.Context, in *AssignmentInput, opts GenerationOptions) (*ScheduleCandidates, error) {
	if in.Config == nil {
		return nil, ErrScheduleConfigMissing
	}
	attempts := in.Config.MaxFlightGenerationAttempts
	if attempts <= 0 {
		attempts = 1
	}

	type outcome struct {
		schedule *Schedule
		failure  *TemplateInfeasibleError
	}
	outcomes := make([]outcome, attempts)

	g, gctx := errgroup.WithContext(ctx)
	if opts.Parallelism > 0 {
		g.SetLimit(opts.Parallelism)
	}
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			schedule, err := Attempt(gctx, in, i, NewAttemptRand(opts.Seed, i))
			var infeasible *TemplateInfeasibleError
			switch {
			case errors.As(err, &infeasible):
				outcomes[i].failure = infeasible
				return nil
			case err != nil:
				return err
			}
			outcomes[i].schedule = &schedule
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &ScheduleCandidates{Attempts: attempts}
	for _, o := range outcomes {
		if o.schedule != nil {
			result.Schedules = append(result.Schedules, *o.schedule)
		}
	}
	if len(result.Schedules) == 0 {
		return nil, &GenerationFailedError{Attempts: attempts, Last: outcomes[attempts-1].failure}
	}
	return result, nil
}
