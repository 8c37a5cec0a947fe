package models

import (
	"sync"
	"time"
)

// Airport is a node of the route network.
type Airport struct {
	ID        string    `db:"id" json:"id"`
	IATA      string    `db:"iata" json:"iata"`
	ICAO      string    `db:"icao" json:"icao"`
	Name      string    `db:"name" json:"name"`
	City      string    `db:"city" json:"city"`
	Country   string    `db:"country" json:"country"`
	Latitude  float64   `db:"latitude" json:"latitude"`
	Longitude float64   `db:"longitude" json:"longitude"`
	Altitude  int       `db:"altitude" json:"altitude"`
	Timezone  string    `db:"timezone" json:"timezone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Runway belongs to an airport; only active runways accept traffic.
type Runway struct {
	ID        string `db:"id" json:"id"`
	AirportID string `db:"airport_id" json:"airport_id"`
	Length    int    `db:"length" json:"length"`
	Category  string `db:"category" json:"category"`
	IsActive  bool   `db:"is_active" json:"is_active"`
}

var zoneCache sync.Map

// LoadZone resolves an IANA zone name, falling back to UTC when unknown.
func LoadZone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	if loc, ok := zoneCache.Load(name); ok {
		return loc.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	zoneCache.Store(name, loc)
	return loc
}

// Location returns the airport's time zone.
func (a Airport) Location() *time.Location {
	return LoadZone(a.Timezone)
}
