package models

import "time"

// ScheduleConfig is the singleton row of tunables for generation and the flight board.
type ScheduleConfig struct {
	ShowPastFlightsTime         time.Duration `json:"show_past_flights_time"`
	ShowFutureFlightsTime       time.Duration `json:"show_future_flights_time"`
	WarningScheduleDelayTime    time.Duration `json:"warning_schedule_delay_time"`
	WarningArrivalDelayTime     time.Duration `json:"warning_arrival_delay_time"`
	WarningArrivalShiftedTime   time.Duration `json:"warning_arrival_shifted_time"`
	MinBetweenFlightsDelay      time.Duration `json:"min_between_flights_delay"`
	MaxFlightGenerationAttempts int           `json:"max_flight_generation_attempts"`
	FlightGenerationTimeout     time.Duration `json:"flight_generation_timeout"`
	UpdatedAt                   time.Time     `json:"updated_at"`
}

// DefaultScheduleConfig mirrors the values seeded into a fresh installation.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		ShowPastFlightsTime:         7 * 24 * time.Hour,
		ShowFutureFlightsTime:       31 * 24 * time.Hour,
		WarningScheduleDelayTime:    15 * time.Minute,
		WarningArrivalDelayTime:     15 * time.Minute,
		WarningArrivalShiftedTime:   15 * time.Minute,
		MinBetweenFlightsDelay:      30 * time.Minute,
		MaxFlightGenerationAttempts: 10,
		FlightGenerationTimeout:     5 * time.Minute,
	}
}
