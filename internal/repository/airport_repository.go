package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/route-network-api/internal/models"
)

// AirportRepository reads airports and their runways.
type AirportRepository struct {
	db *sqlx.DB
}

// NewAirportRepository constructs the repository.
func NewAirportRepository(db *sqlx.DB) *AirportRepository {
	return &AirportRepository{db: db}
}

// FindByIATA returns the airport with the given IATA code or sql.ErrNoRows.
func (r *AirportRepository) FindByIATA(ctx context.Context, iata string) (*models.Airport, error) {
	const query = `SELECT id, iata, icao, name, city, country, latitude, longitude, altitude, timezone, created_at
FROM airports WHERE iata = $1`
	var airport models.Airport
	if err := r.db.GetContext(ctx, &airport, query, iata); err != nil {
		return nil, err
	}
	return &airport, nil
}

// CountActiveRunways returns the number of active runways per airport id. Airports without
// any active runway are absent from the map.
func (r *AirportRepository) CountActiveRunways(ctx context.Context, airportIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(airportIDs))
	if len(airportIDs) == 0 {
		return counts, nil
	}
	const query = `SELECT airport_id, COUNT(*) AS runways FROM runways
WHERE is_active = TRUE AND airport_id = ANY($1)
GROUP BY airport_id`
	var rows []struct {
		AirportID string `db:"airport_id"`
		Runways   int    `db:"runways"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(airportIDs)); err != nil {
		return nil, fmt.Errorf("count active runways: %w", err)
	}
	for _, row := range rows {
		counts[row.AirportID] = row.Runways
	}
	return counts, nil
}
