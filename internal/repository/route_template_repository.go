package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/route-network-api/internal/models"
)

// RouteTemplateRepository persists recurring flight plans.
type RouteTemplateRepository struct {
	db *sqlx.DB
}

// NewRouteTemplateRepository constructs the repository.
func NewRouteTemplateRepository(db *sqlx.DB) *RouteTemplateRepository {
	return &RouteTemplateRepository{db: db}
}

func (r *RouteTemplateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const routeTemplateColumns = `rt.id, rt.flight_code, rt.source_id, rt.destination_id, rt.departure_time, rt.arrival_time,
rt.days_of_week, rt.start_date, rt.end_date, rt.passenger_capacity, rt.status, rt.description, rt.updated_at,
src.timezone AS source_timezone, dst.timezone AS destination_timezone`

// ListActiveFrom returns templates whose validity has not ended before the given date.
func (r *RouteTemplateRepository) ListActiveFrom(ctx context.Context, from time.Time) ([]models.RouteTemplate, error) {
	query := `SELECT ` + routeTemplateColumns + `
FROM route_templates rt
JOIN airports src ON src.id = rt.source_id
JOIN airports dst ON dst.id = rt.destination_id
WHERE rt.end_date >= $1
ORDER BY rt.id`
	var templates []models.RouteTemplate
	if err := r.db.SelectContext(ctx, &templates, query, from.Format(time.DateOnly)); err != nil {
		return nil, fmt.Errorf("list route templates: %w", err)
	}
	return templates, nil
}

// UpdateStatus sets status and diagnostic text on the given templates.
func (r *RouteTemplateRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, ids []string, status models.TemplateStatus, description string) error {
	if len(ids) == 0 {
		return nil
	}
	const query = `UPDATE route_templates SET status = $1, description = $2, updated_at = $3 WHERE id = ANY($4)`
	if _, err := r.exec(exec).ExecContext(ctx, query, string(status), description, time.Now().UTC(), pq.Array(ids)); err != nil {
		return fmt.Errorf("update route template status: %w", err)
	}
	return nil
}
