package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/route-network-api/internal/models"
)

// EmployeeRepository reads crew members and their availability logs.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs the repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// ListCrew returns employees whose occupation can fill a seat on board.
func (r *EmployeeRepository) ListCrew(ctx context.Context) ([]models.Employee, error) {
	const query = `SELECT id, full_name, occupation_code, created_at FROM employees
WHERE occupation_code IN ('PILOT', 'SECOND_PILOT', 'SENIOR_ATTENDANT', 'ATTENDANT')
ORDER BY id`
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query); err != nil {
		return nil, fmt.Errorf("list crew: %w", err)
	}
	return employees, nil
}

// ListLogsOverlapping returns non-OK log entries whose disability period overlaps [from, to].
func (r *EmployeeRepository) ListLogsOverlapping(ctx context.Context, from, to time.Time) ([]models.EmployeeLog, error) {
	const query = `SELECT id, employee_id, status, disability_start, disability_end, COALESCE(description, '') AS description
FROM employee_logs
WHERE status <> 'OK' AND disability_start IS NOT NULL AND disability_end IS NOT NULL
AND disability_end >= $1 AND disability_start < $2
ORDER BY employee_id, disability_start`
	var logs []models.EmployeeLog
	if err := r.db.SelectContext(ctx, &logs, query, from, to); err != nil {
		return nil, fmt.Errorf("list employee logs: %w", err)
	}
	return logs, nil
}
