package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/route-network-api/internal/models"
)

func trackerHistory() []models.Flight {
	return []models.Flight{
		// X: A -> B, landed
		flight("f1", "X", "A", "B", at(-1, "08:00"), at(-1, "10:00"), departedAt(at(-1, "08:05")), arrivedAt(at(-1, "10:02"))),
		// Y: C -> A, landed
		flight("f2", "Y", "C", "A", at(-1, "09:00"), at(-1, "11:00"), departedAt(at(-1, "09:00")), arrivedAt(at(-1, "11:00"))),
		// Z: landed at A then left again for B, still airborne
		flight("f3", "Z", "C", "A", at(-1, "06:00"), at(-1, "07:00"), departedAt(at(-1, "06:00")), arrivedAt(at(-1, "07:00"))),
		flight("f4", "Z", "A", "B", at(-1, "23:00"), at(0, "01:00"), departedAt(at(-1, "23:10"))),
		// W: planned to B but diverted to C
		flight("f5", "W", "A", "B", at(-1, "12:00"), at(-1, "14:00"), departedAt(at(-1, "12:00")), arrivedAt(at(-1, "14:30")), divertedTo("C")),
		// cancelled flights never move aircraft
		flight("f6", "X", "B", "C", at(-1, "15:00"), at(-1, "16:00"), canceled()),
	}
}

func TestTrackerPresentNow(t *testing.T) {
	tr := NewTracker(trackerHistory(), at(0, "00:30"), 0)

	assert.Equal(t, []string{"Y"}, tr.PresentNow("A").Sorted())
	assert.Equal(t, []string{"X"}, tr.PresentNow("B").Sorted())
	assert.Equal(t, []string{"W"}, tr.PresentNow("C").Sorted())
	assert.Empty(t, tr.PresentNow("D"))
}

func TestTrackerAircraftAtMostOneAirport(t *testing.T) {
	tr := NewTracker(trackerHistory(), at(0, "00:30"), 0)
	instants := []string{"00:30", "01:00", "06:00", "23:00"}
	for _, clock := range instants {
		seen := map[string]string{}
		for _, airport := range []string{"A", "B", "C"} {
			set, err := tr.PlannedPresence(airport, at(0, clock))
			require.NoError(t, err)
			for id := range set {
				other, dup := seen[id]
				assert.False(t, dup, "aircraft %s at %s and %s at %s", id, other, airport, clock)
				seen[id] = airport
			}
		}
	}
}

func TestTrackerPlannedPresenceReplaysCommittedFlights(t *testing.T) {
	history := append(trackerHistory(),
		// Y scheduled out of A after now, not yet departed
		flight("f7", "Y", "A", "B", at(0, "02:00"), at(0, "04:00")),
	)
	tr := NewTracker(history, at(0, "00:30"), 0)

	set, err := tr.PlannedPresence("A", at(0, "01:59"))
	require.NoError(t, err)
	assert.True(t, set.Has("Y"))

	set, err = tr.PlannedPresence("A", at(0, "02:00"))
	require.NoError(t, err)
	assert.False(t, set.Has("Y"))

	set, err = tr.PlannedPresence("B", at(0, "03:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Z"}, set.Sorted(), "Y is still airborne at 03:00")

	set, err = tr.PlannedPresence("B", at(0, "04:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "Y", "Z"}, set.Sorted())
}

func TestTrackerReplaysAirborneArrival(t *testing.T) {
	tr := NewTracker(trackerHistory(), at(0, "00:30"), 0)

	set, err := tr.PlannedPresence("B", at(0, "00:59"))
	require.NoError(t, err)
	assert.False(t, set.Has("Z"))

	set, err = tr.PlannedPresence("B", at(0, "01:00"))
	require.NoError(t, err)
	assert.True(t, set.Has("Z"))
}

func TestTrackerServiceBufferDefersRecentArrivals(t *testing.T) {
	tr := NewTracker(trackerHistory(), at(-1, "11:30"), time.Hour)

	assert.False(t, tr.PresentNow("A").Has("Y"), "arrival at 11:00 is inside the buffer")
	assert.False(t, tr.PresentNow("A").Has("Z"), "Z has a recorded departure after its arrival")

	set, err := tr.PlannedPresence("A", at(-1, "11:30"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Y", "Z"}, set.Sorted(), "Z departs A only at 23:10")

	set, err = tr.PlannedPresence("A", at(-1, "23:30"))
	require.NoError(t, err)
	assert.False(t, set.Has("Z"))
}

func TestTrackerServiceBufferReplaysRecentDepartures(t *testing.T) {
	history := []models.Flight{
		flight("f0", "P1", "Y", "X", at(0, "11:00"), at(0, "11:50"), departedAt(at(0, "11:00")), arrivedAt(at(0, "11:50"))),
		flight("f1", "P1", "X", "Z", at(0, "11:55"), at(0, "13:00"), departedAt(at(0, "11:55"))),
	}
	tr := NewTracker(history, at(0, "12:00"), 30*time.Minute)

	for _, clock := range []string{"11:52", "12:30", "15:00"} {
		seen := map[string]string{}
		for _, airport := range []string{"X", "Y", "Z"} {
			set, err := tr.PlannedPresence(airport, at(0, clock))
			require.NoError(t, err)
			for id := range set {
				other, dup := seen[id]
				assert.False(t, dup, "aircraft %s at %s and %s at %s", id, other, airport, clock)
				seen[id] = airport
			}
		}
	}

	set, err := tr.PlannedPresence("X", at(0, "11:52"))
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, set.Sorted())

	set, err = tr.PlannedPresence("X", at(0, "15:00"))
	require.NoError(t, err)
	assert.Empty(t, set)

	set, err = tr.PlannedPresence("Z", at(0, "15:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, set.Sorted())
}

func TestTrackerCachedSetsAreIndependent(t *testing.T) {
	tr := NewTracker(trackerHistory(), at(0, "00:30"), 0)

	first, err := tr.PlannedPresence("A", at(0, "05:00"))
	require.NoError(t, err)
	delete(first, "Y")

	second, err := tr.PlannedPresence("A", at(0, "05:00"))
	require.NoError(t, err)
	assert.True(t, second.Has("Y"))
}

func TestTrackerInboundAfter(t *testing.T) {
	tr := NewTracker(trackerHistory(), at(0, "00:30"), 0)

	inbound := tr.InboundAfter("B", at(0, "00:30"))
	require.Len(t, inbound, 1)
	assert.Equal(t, Inbound{AircraftID: "Z", FlightID: "f4", At: at(0, "01:00")}, inbound[0])

	assert.Empty(t, tr.InboundAfter("B", at(0, "01:00")))
}

func TestReplayPresenceSameAirportRoundTripIsNoop(t *testing.T) {
	snapshot := NewAircraftSet("X")
	flights := []models.Flight{flight("loop", "X", "A", "A", at(0, "08:00"), at(0, "09:00"))}

	set, err := ReplayPresence("A", snapshot, flights, at(0, "00:00"), at(0, "12:00"))
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, set.Sorted())
}

func TestReplayPresenceArrivalsBeforeDeparturesOnTies(t *testing.T) {
	flights := []models.Flight{
		flight("out", "X", "A", "B", at(0, "10:00"), at(0, "11:00")),
		flight("in", "X", "C", "A", at(0, "09:00"), at(0, "10:00")),
	}
	set, err := ReplayPresence("A", NewAircraftSet(), flights, at(0, "00:00"), at(0, "10:00"))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestReplayPresenceDetectsInconsistency(t *testing.T) {
	flights := []models.Flight{flight("ghost", "X", "A", "B", at(0, "08:00"), at(0, "09:00"))}

	_, err := ReplayPresence("A", NewAircraftSet(), flights, at(0, "00:00"), at(0, "12:00"))
	var inconsistency *ScheduleInconsistencyError
	require.True(t, errors.As(err, &inconsistency))
	assert.Equal(t, "X", inconsistency.AircraftID)
	assert.Equal(t, "ghost", inconsistency.FlightID)

	_, err = ReplayPresence("B", NewAircraftSet("X"), flights, at(0, "00:00"), at(0, "12:00"))
	require.True(t, errors.As(err, &inconsistency))
	assert.Equal(t, "arrives while already present", inconsistency.Reason)
}

func TestReplayPresenceIgnoresRecordedDepartureOfUntrackedAircraft(t *testing.T) {
	flights := []models.Flight{
		flight("first", "N", "A", "B", at(0, "08:00"), at(0, "09:00"), departedAt(at(0, "08:05"))),
	}
	set, err := ReplayPresence("A", NewAircraftSet(), flights, at(0, "07:00"), at(0, "12:00"))
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestReplayPresenceRejectsUnrelatedFlight(t *testing.T) {
	flights := []models.Flight{flight("far", "X", "C", "D", at(0, "08:00"), at(0, "09:00"))}
	_, err := ReplayPresence("A", NewAircraftSet(), flights, at(0, "00:00"), at(0, "12:00"))
	assert.ErrorIs(t, err, ErrWrongLocationQuery)
}
