package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/route-network-api/internal/models"
)

// AircraftRepository reads the fleet and its device lives.
type AircraftRepository struct {
	db *sqlx.DB
}

// NewAircraftRepository constructs the repository.
func NewAircraftRepository(db *sqlx.DB) *AircraftRepository {
	return &AircraftRepository{db: db}
}

// ListWithDynamicInfo returns the fleet joined with cabin and crew configuration.
// Aircraft without a configuration row need one pilot and no attendants.
func (r *AircraftRepository) ListWithDynamicInfo(ctx context.Context) ([]models.Aircraft, error) {
	const query = `SELECT a.id, a.tail_code, a.model, a.mtow_kg, a.max_payload_kg, a.range_km, a.speed_kmh, a.created_at,
COALESCE(d.economy_class_cap, 0) AS economy_class_cap,
COALESCE(d.business_class_cap, 0) AS business_class_cap,
COALESCE(d.first_class_cap, 0) AS first_class_cap,
COALESCE(d.pilots_number, 1) AS pilots_number,
COALESCE(d.attendants_number, 0) AS attendants_number,
COALESCE(d.fuel_remaining_kg, 0) AS fuel_remaining_kg
FROM aircraft a
LEFT JOIN aircraft_dynamic_info d ON d.aircraft_id = a.id
ORDER BY a.id`
	var fleet []models.Aircraft
	if err := r.db.SelectContext(ctx, &fleet, query); err != nil {
		return nil, fmt.Errorf("list aircraft: %w", err)
	}
	return fleet, nil
}

// ListDeviceLives returns the life records of devices installed on the given aircraft.
func (r *AircraftRepository) ListDeviceLives(ctx context.Context, aircraftIDs []string) ([]models.AircraftDeviceLife, error) {
	if len(aircraftIDs) == 0 {
		return nil, nil
	}
	const query = `SELECT id, aircraft_id, device_name, latest_update, max_operation_time_h, max_operation_cycles,
total_operation_time_h, total_operation_cycles, after_service_time_h, after_service_cycles,
service_time_period_h, service_cycles_period
FROM aircraft_device_lives WHERE aircraft_id = ANY($1) ORDER BY aircraft_id, id`
	var devices []models.AircraftDeviceLife
	if err := r.db.SelectContext(ctx, &devices, query, pq.Array(aircraftIDs)); err != nil {
		return nil, fmt.Errorf("list device lives: %w", err)
	}
	return devices, nil
}
