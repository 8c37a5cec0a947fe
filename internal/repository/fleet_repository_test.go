package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/route-network-api/internal/models"
)

func TestAircraftRepositoryListWithDynamicInfo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAircraftRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "tail_code", "model", "mtow_kg", "max_payload_kg", "range_km", "speed_kmh", "created_at",
		"economy_class_cap", "business_class_cap", "first_class_cap", "pilots_number", "attendants_number", "fuel_remaining_kg",
	}).
		AddRow("X", "RA-1", "A320", 78000, 20000, 6100, 830, time.Now(), 150, 12, 0, 2, 4, 9000).
		AddRow("Y", "RA-2", "SSJ", 49000, 12000, 3000, 830, time.Now(), 0, 0, 0, 1, 0, 0)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN aircraft_dynamic_info d ON d.aircraft_id = a.id")).WillReturnRows(rows)

	fleet, err := repo.ListWithDynamicInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, fleet, 2)
	assert.Equal(t, 162, fleet[0].PassengerCapacity())
	assert.Equal(t, 1, fleet[1].PilotsNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAircraftRepositoryListDeviceLives(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAircraftRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "aircraft_id", "device_name", "latest_update", "max_operation_time_h", "max_operation_cycles",
		"total_operation_time_h", "total_operation_cycles", "after_service_time_h", "after_service_cycles",
		"service_time_period_h", "service_cycles_period",
	}).AddRow("D1", "X", "landing gear", time.Now(), 1000, 500, 990, 100, 10, 10, 100, 50)
	mock.ExpectQuery(regexp.QuoteMeta("FROM aircraft_device_lives WHERE aircraft_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	devices, err := repo.ListDeviceLives(context.Background(), []string{"X"})
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, int64(990), devices[0].TotalOperationTimeH)

	devices, err = repo.ListDeviceLives(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, devices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListLogsOverlapping(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	rows := sqlmock.NewRows([]string{"id", "employee_id", "status", "disability_start", "disability_end", "description"}).
		AddRow("L1", "E1", "LEAVE_SICK", from.Add(time.Hour), from.Add(48*time.Hour), "flu")
	mock.ExpectQuery(regexp.QuoteMeta("AND disability_end >= $1 AND disability_start < $2")).
		WithArgs(from, to).
		WillReturnRows(rows)

	logs, err := repo.ListLogsOverlapping(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EmployeeLogLeaveSick, logs[0].Status)
	assert.True(t, logs[0].Blocks(from, from.Add(2*time.Hour)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryListCrewError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees")).WillReturnError(errors.New("connection reset"))

	_, err := repo.ListCrew(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list crew")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAirportRepositoryCountActiveRunways(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAirportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE AND airport_id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"airport_id", "runways"}).AddRow("A", 2))

	counts, err := repo.CountActiveRunways(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts["A"])
	assert.Zero(t, counts["B"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAirportRepositoryFindByIATANotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAirportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM airports WHERE iata = $1")).
		WithArgs("ZZZ").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIATA(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
