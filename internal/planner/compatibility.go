package planner

import (
	"cmp"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/route-network-api/internal/models"
)

// Label is the health classification of a scheduled flight.
type Label string

const (
	LabelArrived                        Label = "ARRIVED"
	LabelScheduled                      Label = "SCHEDULED"
	LabelDeparted                       Label = "DEPARTED"
	LabelCanceled                       Label = "CANCELED"
	LabelAircraftDeviceProblem          Label = "AIRCRAFT_DEVICE_PROBLEM"
	LabelEmployeeNotAvailable           Label = "EMPLOYEE_NOT_AVAILABLE"
	LabelAircraftWillBeInAnotherAirport Label = "AIRCRAFT_WILL_BE_IN_ANOTHER_AIRPORT"
	LabelAircraftInAnotherAirport       Label = "AIRCRAFT_IN_ANOTHER_AIRPORT"
	LabelPreviousArrivedTooLate         Label = "PREVIOUS_ARRIVED_TOO_LATE"
	LabelPreviousCanArriveTooLate       Label = "PREVIOUS_CAN_ARRIVE_TOO_LATE"
	LabelPreviousNotDepartedTooLong     Label = "PREVIOUS_NOT_DEPARTED_TOO_LONG"
	LabelDepartureDelay                 Label = "DEPARTURE_DELAY"
	LabelArrivalDelay                   Label = "ARRIVAL_DELAY"
	LabelArrivalShifted                 Label = "ARRIVAL_SHIFTED"
)

// Labels lists every label in display order.
var Labels = []Label{
	LabelArrived, LabelScheduled, LabelDeparted, LabelCanceled,
	LabelAircraftDeviceProblem, LabelEmployeeNotAvailable,
	LabelAircraftWillBeInAnotherAirport, LabelAircraftInAnotherAirport,
	LabelPreviousArrivedTooLate, LabelPreviousCanArriveTooLate, LabelPreviousNotDepartedTooLong,
	LabelDepartureDelay, LabelArrivalDelay, LabelArrivalShifted,
}

// PermitsSuccessor reports whether a flight with this label can be the predecessor that
// positions the aircraft for its next flight.
func (l Label) PermitsSuccessor() bool {
	switch l {
	case LabelArrived, LabelScheduled, LabelDeparted,
		LabelArrivalShifted, LabelArrivalDelay, LabelDepartureDelay:
		return true
	default:
		return false
	}
}

// CheckEnv is the context the classifier reads.
type CheckEnv struct {
	Config models.ScheduleConfig
	Now    time.Time
	// Equipment, when set, checks device life for flights that have not departed yet.
	Equipment *EquipmentPredictor
	Available AvailabilityFunc
	Logger    *zap.Logger
}

// Accumulator is the classifier state carried between flights.
type Accumulator struct {
	Labels  map[string]Label
	history map[string][]models.Flight
}

// NewAccumulator returns empty classifier state.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		Labels:  make(map[string]Label),
		history: make(map[string][]models.Flight),
	}
}

// previous returns the latest earlier flight of the aircraft whose label permits a
// successor, and whether the aircraft had any earlier flight at all.
func (a *Accumulator) previous(aircraftID string) (*models.Flight, bool) {
	earlier := a.history[aircraftID]
	for i := len(earlier) - 1; i >= 0; i-- {
		if a.Labels[earlier[i].ID].PermitsSuccessor() {
			return &earlier[i], true
		}
	}
	return nil, len(earlier) > 0
}

func (a *Accumulator) record(f models.Flight, label Label) {
	a.Labels[f.ID] = label
	if aircraft := f.Aircraft(); aircraft != "" {
		a.history[aircraft] = append(a.history[aircraft], f)
	}
}

// Classify labels one flight given the flights of the same aircraft classified before it,
// and records the result in acc. Flights must be fed in planned departure order.
func Classify(f models.Flight, acc *Accumulator, env *CheckEnv) Label {
	label := classify(f, acc, env)
	acc.record(f, label)
	return label
}

func classify(f models.Flight, acc *Accumulator, env *CheckEnv) Label {
	if f.Canceled {
		return LabelCanceled
	}

	aircraft := f.Aircraft()
	if aircraft != "" && !f.Departed() && env.Equipment != nil {
		if !env.Equipment.Permit(aircraft, f.PlannedDeparture, f.PlannedArrival) {
			return LabelAircraftDeviceProblem
		}
	}

	if env.Available != nil {
		for _, id := range f.EmployeeIDs {
			if !env.Available(id, f.PlannedDeparture, f.PlannedArrival) {
				return LabelEmployeeNotAvailable
			}
		}
	}

	if aircraft != "" {
		if label, broken := continuity(f, acc, env); broken {
			return label
		}
	}

	return delayLabel(f, env)
}

func continuity(f models.Flight, acc *Accumulator, env *CheckEnv) (Label, bool) {
	prev, hadEarlier := acc.previous(f.Aircraft())
	if prev == nil {
		if hadEarlier && f.SourceID != f.DestinationID {
			logger(env).Error("no usable predecessor for flight",
				zap.String("flight_id", f.ID),
				zap.String("aircraft_id", f.Aircraft()),
				zap.Time("planned_departure", f.PlannedDeparture))
			return LabelCanceled, true
		}
		return "", false
	}

	if prev.EffectiveDestination() != f.SourceID {
		if prev.Arrived() {
			return LabelAircraftInAnotherAirport, true
		}
		return LabelAircraftWillBeInAnotherAirport, true
	}

	if f.Departed() {
		return "", false
	}

	gap := env.Config.MinBetweenFlightsDelay
	switch {
	case prev.Arrived():
		if prev.ActualArrival.Add(gap).After(f.PlannedDeparture) {
			return LabelPreviousArrivedTooLate, true
		}
	case prev.Departed():
		if prev.ActualDeparture.Add(prev.PlannedDuration()).Add(gap).After(f.PlannedDeparture) {
			return LabelPreviousCanArriveTooLate, true
		}
	case env.Now.After(prev.PlannedDeparture):
		if env.Now.Add(prev.PlannedDuration()).Add(gap).After(f.PlannedDeparture) {
			return LabelPreviousNotDepartedTooLong, true
		}
	default:
		if prev.PlannedArrival.Add(gap).After(f.PlannedDeparture) {
			return LabelPreviousCanArriveTooLate, true
		}
	}
	return "", false
}

func delayLabel(f models.Flight, env *CheckEnv) Label {
	cfg := env.Config
	switch {
	case f.Arrived():
		if absDuration(f.ActualArrival.Sub(f.PlannedArrival)) > cfg.WarningArrivalShiftedTime {
			return LabelArrivalShifted
		}
	case f.Departed():
		predicted := f.ActualDeparture.Add(f.PlannedDuration())
		if !predicted.Add(cfg.WarningArrivalDelayTime).After(env.Now) {
			return LabelArrivalDelay
		}
	default:
		if !f.PlannedDeparture.Add(cfg.WarningScheduleDelayTime).After(env.Now) {
			return LabelDepartureDelay
		}
	}

	switch {
	case f.Arrived():
		return LabelArrived
	case f.Departed():
		return LabelDeparted
	default:
		return LabelScheduled
	}
}

// CheckCompatibility labels every flight. Flights are grouped per aircraft implicitly by
// walking them in planned departure order.
func CheckCompatibility(flights []models.Flight, env CheckEnv) map[string]Label {
	ordered := slices.Clone(flights)
	slices.SortStableFunc(ordered, func(a, b models.Flight) int {
		if c := a.PlannedDeparture.Compare(b.PlannedDeparture); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	acc := NewAccumulator()
	for _, f := range ordered {
		Classify(f, acc, &env)
	}
	return acc.Labels
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func logger(env *CheckEnv) *zap.Logger {
	if env.Logger == nil {
		return zap.NewNop()
	}
	return env.Logger
}
