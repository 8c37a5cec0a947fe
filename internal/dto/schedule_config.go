package dto

import "time"

// ScheduleConfigPayload updates the schedule configuration. Durations use Go syntax ("15m", "168h").
type ScheduleConfigPayload struct {
	ShowPastFlightsTime         string `json:"showPastFlightsTime" validate:"required"`
	ShowFutureFlightsTime       string `json:"showFutureFlightsTime" validate:"required"`
	WarningScheduleDelayTime    string `json:"warningScheduleDelayTime" validate:"required"`
	WarningArrivalDelayTime     string `json:"warningArrivalDelayTime" validate:"required"`
	WarningArrivalShiftedTime   string `json:"warningArrivalShiftedTime" validate:"required"`
	MinBetweenFlightsDelay      string `json:"minBetweenFlightsDelay" validate:"required"`
	MaxFlightGenerationAttempts int    `json:"maxFlightGenerationAttempts" validate:"required,min=1,max=1000"`
	FlightGenerationTimeout     string `json:"flightGenerationTimeout" validate:"required"`
}

// ScheduleConfigResponse renders the stored configuration.
type ScheduleConfigResponse struct {
	ScheduleConfigPayload
	UpdatedAt time.Time `json:"updatedAt"`
}
