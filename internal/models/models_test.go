package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockTimeScan(t *testing.T) {
	var c ClockTime

	require.NoError(t, c.Scan(time.Date(0, 1, 1, 7, 45, 30, 0, time.UTC)))
	assert.Equal(t, ClockTime{Hour: 7, Minute: 45, Second: 30}, c)

	require.NoError(t, c.Scan([]byte("23:05")))
	assert.Equal(t, "23:05:00", c.String())

	require.NoError(t, c.Scan(nil))
	assert.Equal(t, ClockTime{}, c)

	assert.Error(t, c.Scan("25:99"))
	assert.Error(t, c.Scan(42))
}

func TestClockTimeOnAndJSON(t *testing.T) {
	c := MustClockTime("06:30")
	moscow := time.FixedZone("MSK", 3*3600)

	at := c.On(time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC), moscow)
	assert.Equal(t, time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC), at.UTC())

	raw, err := c.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `"06:30:00"`, string(raw))

	var back ClockTime
	require.NoError(t, back.UnmarshalJSON(raw))
	assert.Equal(t, c, back)
}

func TestEmployeeLogBlocks(t *testing.T) {
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	sick := EmployeeLog{Status: EmployeeLogLeaveSick, DisabilityStart: &start, DisabilityEnd: &end}

	assert.True(t, sick.Blocks(end, end.Add(time.Hour)), "period end is inclusive")
	assert.False(t, sick.Blocks(start.Add(-2*time.Hour), start), "window end is exclusive")
	assert.True(t, sick.Blocks(start.Add(-time.Hour), start.Add(time.Hour)))
	assert.False(t, sick.Blocks(end.Add(time.Minute), end.Add(time.Hour)))

	ok := sick
	ok.Status = EmployeeLogOK
	assert.False(t, ok.Blocks(start, end))

	open := sick
	open.DisabilityEnd = nil
	assert.False(t, open.Blocks(start, end))
}

func TestFlightHelpers(t *testing.T) {
	dep := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	f := Flight{SourceID: "A", DestinationID: "B", PlannedDeparture: dep, PlannedArrival: dep.Add(150 * time.Minute)}

	assert.Equal(t, "B", f.EffectiveDestination())
	assert.Equal(t, "", f.Aircraft())
	assert.Equal(t, 150*time.Minute, f.PlannedDuration())
	assert.False(t, f.Departed())

	diverted := "C"
	aircraft := "X"
	f.ActualDestinationID = &diverted
	f.AircraftID = &aircraft
	assert.Equal(t, "C", f.EffectiveDestination())
	assert.Equal(t, "X", f.Aircraft())
}

func TestLoadZoneFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, LoadZone(""))
	assert.Equal(t, time.UTC, LoadZone("Not/AZone"))
}

func TestAircraftPassengerCapacity(t *testing.T) {
	a := Aircraft{EconomyClassCap: 120, BusinessClassCap: 20, FirstClassCap: 8}
	assert.Equal(t, 148, a.PassengerCapacity())
}
