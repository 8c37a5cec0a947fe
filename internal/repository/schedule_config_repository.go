package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/route-network-api/internal/models"
)

// ScheduleConfigRepository persists the singleton schedule configuration row.
type ScheduleConfigRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewScheduleConfigRepository constructs the repository.
func NewScheduleConfigRepository(db *sqlx.DB) *ScheduleConfigRepository {
	return &ScheduleConfigRepository{db: db}
}

// WithObserver times configuration reads through o.
func (r *ScheduleConfigRepository) WithObserver(o QueryObserver) *ScheduleConfigRepository {
	r.observer = o
	return r
}

// scheduleConfigRow stores durations as whole seconds.
type scheduleConfigRow struct {
	ID                          int       `db:"id"`
	ShowPastFlightsSeconds      int64     `db:"show_past_flights_seconds"`
	ShowFutureFlightsSeconds    int64     `db:"show_future_flights_seconds"`
	WarningScheduleDelaySeconds int64     `db:"warning_schedule_delay_seconds"`
	WarningArrivalDelaySeconds  int64     `db:"warning_arrival_delay_seconds"`
	WarningArrivalShiftSeconds  int64     `db:"warning_arrival_shifted_seconds"`
	MinBetweenFlightsSeconds    int64     `db:"min_between_flights_seconds"`
	MaxFlightGenerationAttempts int       `db:"max_flight_generation_attempts"`
	GenerationTimeoutSeconds    int64     `db:"flight_generation_timeout_seconds"`
	UpdatedAt                   time.Time `db:"updated_at"`
}

func seconds(n int64) time.Duration { return time.Duration(n) * time.Second }

func (row scheduleConfigRow) model() *models.ScheduleConfig {
	return &models.ScheduleConfig{
		ShowPastFlightsTime:         seconds(row.ShowPastFlightsSeconds),
		ShowFutureFlightsTime:       seconds(row.ShowFutureFlightsSeconds),
		WarningScheduleDelayTime:    seconds(row.WarningScheduleDelaySeconds),
		WarningArrivalDelayTime:     seconds(row.WarningArrivalDelaySeconds),
		WarningArrivalShiftedTime:   seconds(row.WarningArrivalShiftSeconds),
		MinBetweenFlightsDelay:      seconds(row.MinBetweenFlightsSeconds),
		MaxFlightGenerationAttempts: row.MaxFlightGenerationAttempts,
		FlightGenerationTimeout:     seconds(row.GenerationTimeoutSeconds),
		UpdatedAt:                   row.UpdatedAt,
	}
}

func rowFromModel(cfg *models.ScheduleConfig) scheduleConfigRow {
	return scheduleConfigRow{
		ID:                          1,
		ShowPastFlightsSeconds:      int64(cfg.ShowPastFlightsTime / time.Second),
		ShowFutureFlightsSeconds:    int64(cfg.ShowFutureFlightsTime / time.Second),
		WarningScheduleDelaySeconds: int64(cfg.WarningScheduleDelayTime / time.Second),
		WarningArrivalDelaySeconds:  int64(cfg.WarningArrivalDelayTime / time.Second),
		WarningArrivalShiftSeconds:  int64(cfg.WarningArrivalShiftedTime / time.Second),
		MinBetweenFlightsSeconds:    int64(cfg.MinBetweenFlightsDelay / time.Second),
		MaxFlightGenerationAttempts: cfg.MaxFlightGenerationAttempts,
		GenerationTimeoutSeconds:    int64(cfg.FlightGenerationTimeout / time.Second),
		UpdatedAt:                   cfg.UpdatedAt,
	}
}

const scheduleConfigColumns = `id, show_past_flights_seconds, show_future_flights_seconds, warning_schedule_delay_seconds,
warning_arrival_delay_seconds, warning_arrival_shifted_seconds, min_between_flights_seconds,
max_flight_generation_attempts, flight_generation_timeout_seconds, updated_at`

// Get returns the configuration or sql.ErrNoRows when it was never saved.
func (r *ScheduleConfigRepository) Get(ctx context.Context) (*models.ScheduleConfig, error) {
	defer observeSince(r.observer, "schedule_config.get", time.Now())
	query := `SELECT ` + scheduleConfigColumns + ` FROM schedule_config WHERE id = 1`
	var row scheduleConfigRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, err
	}
	return row.model(), nil
}

// Upsert writes the configuration row.
func (r *ScheduleConfigRepository) Upsert(ctx context.Context, cfg *models.ScheduleConfig) error {
	if cfg == nil {
		return fmt.Errorf("schedule config payload is nil")
	}
	cfg.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO schedule_config (` + scheduleConfigColumns + `)
VALUES (:id, :show_past_flights_seconds, :show_future_flights_seconds, :warning_schedule_delay_seconds,
:warning_arrival_delay_seconds, :warning_arrival_shifted_seconds, :min_between_flights_seconds,
:max_flight_generation_attempts, :flight_generation_timeout_seconds, :updated_at)
ON CONFLICT (id)
DO UPDATE SET show_past_flights_seconds = EXCLUDED.show_past_flights_seconds,
              show_future_flights_seconds = EXCLUDED.show_future_flights_seconds,
              warning_schedule_delay_seconds = EXCLUDED.warning_schedule_delay_seconds,
              warning_arrival_delay_seconds = EXCLUDED.warning_arrival_delay_seconds,
              warning_arrival_shifted_seconds = EXCLUDED.warning_arrival_shifted_seconds,
              min_between_flights_seconds = EXCLUDED.min_between_flights_seconds,
              max_flight_generation_attempts = EXCLUDED.max_flight_generation_attempts,
              flight_generation_timeout_seconds = EXCLUDED.flight_generation_timeout_seconds,
              updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, rowFromModel(cfg)); err != nil {
		return fmt.Errorf("upsert schedule config: %w", err)
	}
	return nil
}
