package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/route-network-api/internal/dto"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "generate")
	assert.Contains(t, names, "health")
	assert.Contains(t, names, "migrate")
}

func TestParseHorizon(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("MSK", 3*3600))

	got, err := parseHorizon("", now)
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), got)

	got, err = parseHorizon("2024-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = parseHorizon("2024-02-01T06:00:00+03:00", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 3, 0, 0, 0, time.UTC), got)

	_, err = parseHorizon("next week", now)
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	chosen := 2
	var buf bytes.Buffer
	printReport(&buf, &dto.GenerationReport{
		RunID:              "run-1",
		Status:             dto.GenerationSucceeded,
		HorizonStart:       time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Templates:          3,
		Occurrences:        42,
		Attempts:           10,
		SuccessfulAttempts: 4,
		ChosenAttempt:      &chosen,
		FlightsCommitted:   42,
	})

	out := buf.String()
	assert.Contains(t, out, "run run-1: SUCCEEDED")
	assert.Contains(t, out, "10 (4 successful)")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "committed    42 flights")
	assert.NotContains(t, out, "failed at")
}

func TestPrintBoard(t *testing.T) {
	var buf bytes.Buffer
	err := printBoard(&buf, &dto.FlightBoard{
		From: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		Flights: []dto.FlightStatusItem{
			{FlightCode: "SU1", SourceID: "A", DestinationID: "B", AircraftID: "X", Label: "ARRIVED", Healthy: true},
			{FlightCode: "SU2", SourceID: "C", DestinationID: "B", AircraftID: "X", Label: "AIRCRAFT_IN_ANOTHER_AIRPORT"},
		},
		Summary: map[string]int{"ARRIVED": 1, "AIRCRAFT_IN_ANOTHER_AIRPORT": 1},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "AIRCRAFT_IN_ANOTHER_AIRPORT !")
	assert.Contains(t, out, "2 flights between 2024-01-09 and 2024-01-11")
}
