package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/route-network-api/internal/models"
)

// FlightRepository persists dated flights and their crews.
type FlightRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewFlightRepository constructs the repository.
func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// WithObserver times every flight listing query through o.
func (r *FlightRepository) WithObserver(o QueryObserver) *FlightRepository {
	r.observer = o
	return r
}

func (r *FlightRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const flightSelect = `SELECT f.id, f.template_id, f.planned_departure, f.planned_arrival, f.actual_departure, f.actual_arrival,
f.actual_destination_id, f.canceled, f.aircraft_id, f.created_at, f.updated_at,
rt.flight_code, rt.source_id, rt.destination_id,
COALESCE(ARRAY_AGG(fe.employee_id ORDER BY fe.employee_id) FILTER (WHERE fe.employee_id IS NOT NULL), '{}') AS employee_ids
FROM flights f
JOIN route_templates rt ON rt.id = f.template_id
LEFT JOIN flight_employees fe ON fe.flight_id = f.id`

const flightGroupOrder = `
GROUP BY f.id, rt.flight_code, rt.source_id, rt.destination_id
ORDER BY f.planned_departure ASC, f.id ASC`

func (r *FlightRepository) list(ctx context.Context, label, where string, args ...interface{}) ([]models.Flight, error) {
	defer observeSince(r.observer, label, time.Now())
	var flights []models.Flight
	if err := r.db.SelectContext(ctx, &flights, flightSelect+"\nWHERE "+where+flightGroupOrder, args...); err != nil {
		return nil, err
	}
	return flights, nil
}

// ListCommitted returns the flight history a generation run must respect: non-cancelled
// flights that were due before the horizon or have already departed.
func (r *FlightRepository) ListCommitted(ctx context.Context, horizon time.Time) ([]models.Flight, error) {
	flights, err := r.list(ctx, "flights.list_committed", `f.canceled = FALSE AND (f.planned_departure < $1 OR f.actual_departure IS NOT NULL)`, horizon)
	if err != nil {
		return nil, fmt.Errorf("list committed flights: %w", err)
	}
	return flights, nil
}

// ListCanceledFrom returns cancelled flights planned at or after the horizon.
func (r *FlightRepository) ListCanceledFrom(ctx context.Context, horizon time.Time) ([]models.Flight, error) {
	flights, err := r.list(ctx, "flights.list_canceled", `f.canceled = TRUE AND f.planned_departure >= $1`, horizon)
	if err != nil {
		return nil, fmt.Errorf("list canceled flights: %w", err)
	}
	return flights, nil
}

// ListWindow returns flights planned to depart within [from, to].
func (r *FlightRepository) ListWindow(ctx context.Context, from, to time.Time) ([]models.Flight, error) {
	flights, err := r.list(ctx, "flights.list_window", `f.planned_departure BETWEEN $1 AND $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list flights in window: %w", err)
	}
	return flights, nil
}

// ListByIDs returns the requested flights.
func (r *FlightRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Flight, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	flights, err := r.list(ctx, "flights.list_by_ids", `f.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list flights by id: %w", err)
	}
	return flights, nil
}

// ListByAircraftWindow returns the flights of the given aircraft planned within [from, to].
func (r *FlightRepository) ListByAircraftWindow(ctx context.Context, aircraftIDs []string, from, to time.Time) ([]models.Flight, error) {
	if len(aircraftIDs) == 0 {
		return nil, nil
	}
	flights, err := r.list(ctx, "flights.list_by_aircraft", `f.aircraft_id = ANY($1) AND f.planned_departure BETWEEN $2 AND $3`, pq.Array(aircraftIDs), from, to)
	if err != nil {
		return nil, fmt.Errorf("list aircraft flights: %w", err)
	}
	return flights, nil
}

// LastEmployeeLocations returns, per employee, the destination and landing time of the
// latest committed flight they crewed before the horizon.
func (r *FlightRepository) LastEmployeeLocations(ctx context.Context, horizon time.Time) ([]models.EmployeeLocation, error) {
	const query = `SELECT DISTINCT ON (fe.employee_id) fe.employee_id,
COALESCE(f.actual_destination_id, rt.destination_id) AS airport_id,
COALESCE(f.actual_arrival, f.planned_arrival) AS free_at
FROM flight_employees fe
JOIN flights f ON f.id = fe.flight_id
JOIN route_templates rt ON rt.id = f.template_id
WHERE f.canceled = FALSE AND (f.planned_departure < $1 OR f.actual_departure IS NOT NULL)
ORDER BY fe.employee_id, f.planned_arrival DESC`
	var locations []models.EmployeeLocation
	if err := r.db.SelectContext(ctx, &locations, query, horizon); err != nil {
		return nil, fmt.Errorf("list employee locations: %w", err)
	}
	return locations, nil
}

// DeleteUncommittedFrom removes flights at or after the horizon that are neither cancelled
// nor departed, together with their crew rows.
func (r *FlightRepository) DeleteUncommittedFrom(ctx context.Context, exec sqlx.ExtContext, horizon time.Time) (int64, error) {
	target := r.exec(exec)
	const crewQuery = `DELETE FROM flight_employees WHERE flight_id IN (
SELECT id FROM flights WHERE planned_departure >= $1 AND canceled = FALSE AND actual_departure IS NULL)`
	if _, err := target.ExecContext(ctx, crewQuery, horizon); err != nil {
		return 0, fmt.Errorf("delete uncommitted crews: %w", err)
	}
	const flightQuery = `DELETE FROM flights WHERE planned_departure >= $1 AND canceled = FALSE AND actual_departure IS NULL`
	res, err := target.ExecContext(ctx, flightQuery, horizon)
	if err != nil {
		return 0, fmt.Errorf("delete uncommitted flights: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete uncommitted flights rows: %w", err)
	}
	return affected, nil
}

// Insert stores a flight and its crew. A missing id is generated.
func (r *FlightRepository) Insert(ctx context.Context, exec sqlx.ExtContext, flight *models.Flight) error {
	if flight == nil {
		return fmt.Errorf("flight payload is nil")
	}
	if flight.ID == "" {
		flight.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	flight.CreatedAt = now
	flight.UpdatedAt = now

	target := r.exec(exec)
	const query = `INSERT INTO flights (id, template_id, planned_departure, planned_arrival, aircraft_id, canceled, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7)`
	if _, err := target.ExecContext(ctx, query, flight.ID, flight.TemplateID, flight.PlannedDeparture, flight.PlannedArrival,
		nullString(flight.AircraftID), flight.CreatedAt, flight.UpdatedAt); err != nil {
		return fmt.Errorf("insert flight: %w", err)
	}

	const crewQuery = `INSERT INTO flight_employees (flight_id, employee_id) VALUES ($1, $2)`
	for _, employeeID := range flight.EmployeeIDs {
		if _, err := target.ExecContext(ctx, crewQuery, flight.ID, employeeID); err != nil {
			return fmt.Errorf("insert flight crew: %w", err)
		}
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil || *v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

// EmployeePlannedLocation returns where the employee is planned to be at the instant: the
// destination of their latest non-cancelled flight departing at or before it. It returns
// sql.ErrNoRows when the employee has no such flight.
func (r *FlightRepository) EmployeePlannedLocation(ctx context.Context, employeeID string, at time.Time) (*models.EmployeeLocation, error) {
	const query = `SELECT fe.employee_id,
COALESCE(f.actual_destination_id, rt.destination_id) AS airport_id,
COALESCE(f.actual_arrival, f.planned_arrival) AS free_at
FROM flight_employees fe
JOIN flights f ON f.id = fe.flight_id
JOIN route_templates rt ON rt.id = f.template_id
WHERE fe.employee_id = $1 AND f.canceled = FALSE AND f.planned_departure <= $2
ORDER BY f.planned_arrival DESC
LIMIT 1`
	var location models.EmployeeLocation
	if err := r.db.GetContext(ctx, &location, query, employeeID, at); err != nil {
		return nil, err
	}
	return &location, nil
}
