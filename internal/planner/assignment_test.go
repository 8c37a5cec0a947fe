package planner

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/route-network-api/internal/models"
)

type assignmentFixture struct {
	templates []models.RouteTemplate
	fleet     []models.Aircraft
	history   []models.Flight
	config    *models.ScheduleConfig
	banned    map[Signature]struct{}
	equipment *EquipmentPredictor
}

func newAssignmentFixture() *assignmentFixture {
	ab := template("AB", "A", "B", "08:00", "10:00", 100)
	ba := template("BA", "B", "A", "12:00", "14:00", 100)
	ab.EndDate = baseDay.AddDate(0, 0, 2)
	ba.EndDate = baseDay.AddDate(0, 0, 2)
	return &assignmentFixture{
		templates: []models.RouteTemplate{ab, ba},
		fleet:     []models.Aircraft{aircraft("X", 150, 2, 1), aircraft("Y", 150, 2, 1)},
		history: []models.Flight{
			flight("hX", "X", "B", "A", at(-1, "18:00"), at(-1, "20:00"), departedAt(at(-1, "18:00")), arrivedAt(at(-1, "20:00"))),
			flight("hY", "Y", "B", "A", at(-1, "19:00"), at(-1, "21:00"), departedAt(at(-1, "19:00")), arrivedAt(at(-1, "21:00"))),
		},
		config: scheduleConfig(),
	}
}

func (f *assignmentFixture) input() *AssignmentInput {
	in := &AssignmentInput{
		Occurrences: CollectOccurrences(f.templates, baseDay),
		Templates:   make(map[string]models.RouteTemplate),
		Aircraft:    make(map[string]models.Aircraft),
		Banned:      f.banned,
		Config:      f.config,
		Locator:     NewTracker(f.history, baseDay, 0),
		Equipment:   f.equipment,
	}
	for _, t := range f.templates {
		in.Templates[t.ID] = t
	}
	for _, a := range f.fleet {
		in.Aircraft[a.ID] = a
	}
	return in
}

func assertFeasibleRotation(t *testing.T, in *AssignmentInput, s Schedule) {
	t.Helper()
	byAircraft := map[string][]ScheduleEntry{}
	for _, e := range s.Entries {
		byAircraft[e.AircraftID] = append(byAircraft[e.AircraftID], e)
	}
	for id, legs := range byAircraft {
		for i := 1; i < len(legs); i++ {
			prev, next := legs[i-1], legs[i]
			assert.False(t, next.Departure.Before(prev.Arrival.Add(in.Config.MinBetweenFlightsDelay)),
				"aircraft %s leaves before its turnaround completes", id)
			assert.Equal(t, in.Templates[prev.TemplateID].DestinationID, in.Templates[next.TemplateID].SourceID,
				"aircraft %s teleported", id)
		}
	}
}

func TestAttemptBuildsFeasibleRotation(t *testing.T) {
	in := newAssignmentFixture().input()

	s, err := Attempt(context.Background(), in, 0, NewAttemptRand(7, 0))
	require.NoError(t, err)
	require.Len(t, s.Entries, 6)
	assert.True(t, slices.IsSortedFunc(s.Entries, func(a, b ScheduleEntry) int { return a.Departure.Compare(b.Departure) }))
	assertFeasibleRotation(t, in, s)
}

func TestAttemptReportsCapacityShortfall(t *testing.T) {
	fx := newAssignmentFixture()
	big := template("BIG", "A", "B", "07:00", "09:00", 300)
	big.EndDate = baseDay
	fx.templates = append(fx.templates, big)

	_, err := Attempt(context.Background(), fx.input(), 0, NewAttemptRand(1, 0))
	var infeasible *TemplateInfeasibleError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, "BIG", infeasible.TemplateID)
	assert.Equal(t, at(0, "07:00"), infeasible.Departure)
	assert.Equal(t, 300, infeasible.RequestedCapacity)
	assert.Equal(t, []string{"X", "Y"}, infeasible.Candidates)
}

func TestAttemptHonoursTurnaroundGap(t *testing.T) {
	fx := newAssignmentFixture()
	fx.history = fx.history[:1]
	ab := template("AB", "A", "B", "08:00", "10:00", 100)
	quick := template("BA", "B", "A", "10:15", "12:00", 100)
	ab.EndDate, quick.EndDate = baseDay, baseDay
	fx.templates = []models.RouteTemplate{ab, quick}

	_, err := Attempt(context.Background(), fx.input(), 0, NewAttemptRand(1, 0))
	var infeasible *TemplateInfeasibleError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, "BA", infeasible.TemplateID)
	assert.Empty(t, infeasible.Candidates)

	fx.config.MinBetweenFlightsDelay = 0
	s, err := Attempt(context.Background(), fx.input(), 0, NewAttemptRand(1, 0))
	require.NoError(t, err)
	assert.Len(t, s.Entries, 2)
}

func TestAttemptSkipsBannedSignatures(t *testing.T) {
	fx := newAssignmentFixture()
	ban := NewSignature(at(2, "12:00"), at(2, "14:00"), "BA")
	fx.banned = map[Signature]struct{}{ban: {}}

	s, err := Attempt(context.Background(), fx.input(), 0, NewAttemptRand(3, 0))
	require.NoError(t, err)
	require.Len(t, s.Entries, 5)
	for _, e := range s.Entries {
		assert.NotEqual(t, ban, NewSignature(e.Departure, e.Arrival, e.TemplateID))
	}
}

func TestAttemptEquipmentGate(t *testing.T) {
	fx := newAssignmentFixture()
	fx.history = fx.history[:1]
	fx.equipment = NewEquipmentPredictor(func(aircraftID string) []models.AircraftDeviceLife {
		if aircraftID != "X" {
			return nil
		}
		return []models.AircraftDeviceLife{{
			ID: "engine-1", AircraftID: "X",
			MaxOperationTimeH: 10000, MaxOperationCycles: 1000,
			ServiceTimePeriodH: 500, ServiceCyclesPeriod: 1,
		}}
	})

	_, err := Attempt(context.Background(), fx.input(), 0, NewAttemptRand(1, 0))
	var infeasible *TemplateInfeasibleError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, "BA", infeasible.TemplateID)
	assert.Equal(t, []string{"X"}, infeasible.Candidates)
	assert.Empty(t, fx.equipment.Snapshot(), "attempts work on a clone")
}

func TestGenerateSchedulesIsDeterministicForSeed(t *testing.T) {
	in := newAssignmentFixture().input()
	opts := GenerationOptions{Seed: 42, Parallelism: 3}

	first, err := GenerateSchedules(context.Background(), in, opts)
	require.NoError(t, err)
	second, err := GenerateSchedules(context.Background(), in, opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Schedules, 5)
	for i, s := range first.Schedules {
		assert.Equal(t, i, s.Attempt)
		assertFeasibleRotation(t, in, s)
	}
}

func TestGenerateSchedulesFailsWhenEveryAttemptFails(t *testing.T) {
	fx := newAssignmentFixture()
	fx.templates[0].PassengerCapacity = 500

	_, err := GenerateSchedules(context.Background(), fx.input(), GenerationOptions{Seed: 1})
	var failed *GenerationFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 5, failed.Attempts)

	var infeasible *TemplateInfeasibleError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, "AB", infeasible.TemplateID)
}

func TestGenerateSchedulesRequiresConfig(t *testing.T) {
	fx := newAssignmentFixture()
	fx.config = nil
	_, err := GenerateSchedules(context.Background(), fx.input(), GenerationOptions{})
	assert.ErrorIs(t, err, ErrScheduleConfigMissing)
}

type brokenLocator struct{}

func (brokenLocator) PlannedPresence(airportID string, at time.Time) (AircraftSet, error) {
	return nil, &ScheduleInconsistencyError{AirportID: airportID, AircraftID: "X", FlightID: "f1", At: at, Reason: "departs while absent"}
}

func (brokenLocator) InboundAfter(string, time.Time) []Inbound { return nil }

func TestGenerateSchedulesAbortsOnInconsistentHistory(t *testing.T) {
	in := newAssignmentFixture().input()
	in.Locator = brokenLocator{}

	_, err := GenerateSchedules(context.Background(), in, GenerationOptions{Seed: 1, Parallelism: 2})
	var inconsistency *ScheduleInconsistencyError
	assert.True(t, errors.As(err, &inconsistency))
	var failed *GenerationFailedError
	assert.False(t, errors.As(err, &failed))
}

func TestGenerateSchedulesHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateSchedules(ctx, newAssignmentFixture().input(), GenerationOptions{Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
