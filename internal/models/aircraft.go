package models

import "time"

// Aircraft is an airframe joined with its dynamic (configuration) info.
type Aircraft struct {
	ID               string    `db:"id" json:"id"`
	TailCode         string    `db:"tail_code" json:"tail_code"`
	Model            string    `db:"model" json:"model"`
	MTOWKg           int       `db:"mtow_kg" json:"mtow_kg"`
	MaxPayloadKg     int       `db:"max_payload_kg" json:"max_payload_kg"`
	RangeKm          int       `db:"range_km" json:"range_km"`
	SpeedKmh         int       `db:"speed_kmh" json:"speed_kmh"`
	EconomyClassCap  int       `db:"economy_class_cap" json:"economy_class_cap"`
	BusinessClassCap int       `db:"business_class_cap" json:"business_class_cap"`
	FirstClassCap    int       `db:"first_class_cap" json:"first_class_cap"`
	PilotsNumber     int       `db:"pilots_number" json:"pilots_number"`
	AttendantsNumber int       `db:"attendants_number" json:"attendants_number"`
	FuelRemainingKg  int       `db:"fuel_remaining_kg" json:"fuel_remaining_kg"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// PassengerCapacity sums the cabin classes.
func (a Aircraft) PassengerCapacity() int {
	return a.EconomyClassCap + a.BusinessClassCap + a.FirstClassCap
}

// AircraftDeviceLife tracks the wear of one life-limited device installed on an aircraft.
// Hours are whole flight hours and cycles are take-off/landing pairs.
type AircraftDeviceLife struct {
	ID                   string    `db:"id" json:"id"`
	AircraftID           string    `db:"aircraft_id" json:"aircraft_id"`
	DeviceName           string    `db:"device_name" json:"device_name"`
	LatestUpdate         time.Time `db:"latest_update" json:"latest_update"`
	MaxOperationTimeH    int64     `db:"max_operation_time_h" json:"max_operation_time_h"`
	MaxOperationCycles   int64     `db:"max_operation_cycles" json:"max_operation_cycles"`
	TotalOperationTimeH  int64     `db:"total_operation_time_h" json:"total_operation_time_h"`
	TotalOperationCycles int64     `db:"total_operation_cycles" json:"total_operation_cycles"`
	AfterServiceTimeH    int64     `db:"after_service_time_h" json:"after_service_time_h"`
	AfterServiceCycles   int64     `db:"after_service_cycles" json:"after_service_cycles"`
	ServiceTimePeriodH   int64     `db:"service_time_period_h" json:"service_time_period_h"`
	ServiceCyclesPeriod  int64     `db:"service_cycles_period" json:"service_cycles_period"`
}
