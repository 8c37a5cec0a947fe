package planner

import (
	"math"
	"slices"
	"time"

	"github.com/noah-isme/route-network-api/internal/models"
)

// DeviceSource loads the life records of the devices installed on an aircraft.
type DeviceSource func(aircraftID string) []models.AircraftDeviceLife

// DeviceState is the predicted wear of one device.
type DeviceState struct {
	DeviceID            string
	AircraftID          string
	MaxHours            int64
	MaxCycles           int64
	TotalHours          int64
	TotalCycles         int64
	HoursSinceService   int64
	CyclesSinceService  int64
	ServiceHoursPeriod  int64
	ServiceCyclesPeriod int64
}

// RemainingHours is the flight-hour budget before a limit or service is due.
func (d DeviceState) RemainingHours() int64 {
	return min(d.MaxHours-d.TotalHours, d.ServiceHoursPeriod-d.HoursSinceService)
}

// RemainingCycles is the cycle budget before a limit or service is due.
func (d DeviceState) RemainingCycles() int64 {
	return min(d.MaxCycles-d.TotalCycles, d.ServiceCyclesPeriod-d.CyclesSinceService)
}

func deviceState(d models.AircraftDeviceLife) *DeviceState {
	return &DeviceState{
		DeviceID:            d.ID,
		AircraftID:          d.AircraftID,
		MaxHours:            d.MaxOperationTimeH,
		MaxCycles:           d.MaxOperationCycles,
		TotalHours:          d.TotalOperationTimeH,
		TotalCycles:         d.TotalOperationCycles,
		HoursSinceService:   d.AfterServiceTimeH,
		CyclesSinceService:  d.AfterServiceCycles,
		ServiceHoursPeriod:  d.ServiceTimePeriodH,
		ServiceCyclesPeriod: d.ServiceCyclesPeriod,
	}
}

// EquipmentPredictor keeps an in-memory wear ledger for a sequence of hypothetical flights.
// Aircraft are seeded from the source the first time they are seen. A predictor is not safe
// for concurrent use; give each attempt or variant its own Clone. The source may be called
// from several clones at once.
type EquipmentPredictor struct {
	source  DeviceSource
	devices map[string][]string
	ledger  map[string]*DeviceState
}

// NewEquipmentPredictor builds an empty ledger backed by source.
func NewEquipmentPredictor(source DeviceSource) *EquipmentPredictor {
	return &EquipmentPredictor{
		source:  source,
		devices: make(map[string][]string),
		ledger:  make(map[string]*DeviceState),
	}
}

// FlightHours rounds a flight's block time up to whole hours.
func FlightHours(departure, arrival time.Time) int64 {
	d := arrival.Sub(departure)
	if d <= 0 {
		return 0
	}
	return int64(math.Ceil(d.Hours()))
}

func (p *EquipmentPredictor) seed(aircraftID string) []string {
	if ids, ok := p.devices[aircraftID]; ok {
		return ids
	}
	var ids []string
	if p.source != nil {
		for _, d := range p.source(aircraftID) {
			if _, seen := p.ledger[d.ID]; !seen {
				p.ledger[d.ID] = deviceState(d)
			}
			ids = append(ids, d.ID)
		}
	}
	slices.Sort(ids)
	p.devices[aircraftID] = ids
	return ids
}

// Check reports whether every device of the aircraft can absorb the flight.
// An aircraft without tracked devices is always permitted.
func (p *EquipmentPredictor) Check(aircraftID string, departure, arrival time.Time) bool {
	hours := FlightHours(departure, arrival)
	for _, id := range p.seed(aircraftID) {
		d := p.ledger[id]
		if d.RemainingHours() < hours || d.RemainingCycles() < 1 {
			return false
		}
	}
	return true
}

// Permit checks the flight and, when allowed, records its wear.
func (p *EquipmentPredictor) Permit(aircraftID string, departure, arrival time.Time) bool {
	if !p.Check(aircraftID, departure, arrival) {
		return false
	}
	p.advance(aircraftID, FlightHours(departure, arrival))
	return true
}

func (p *EquipmentPredictor) advance(aircraftID string, hours int64) {
	for _, id := range p.seed(aircraftID) {
		d := p.ledger[id]
		d.TotalHours += hours
		d.HoursSinceService += hours
		d.TotalCycles++
		d.CyclesSinceService++
	}
}

// Clone returns an independent copy of the ledger sharing the same source.
func (p *EquipmentPredictor) Clone() *EquipmentPredictor {
	out := &EquipmentPredictor{
		source:  p.source,
		devices: make(map[string][]string, len(p.devices)),
		ledger:  make(map[string]*DeviceState, len(p.ledger)),
	}
	for aircraft, ids := range p.devices {
		out.devices[aircraft] = slices.Clone(ids)
	}
	for id, d := range p.ledger {
		c := *d
		out.ledger[id] = &c
	}
	return out
}

// Snapshot returns the current state of every seeded device keyed by device id.
func (p *EquipmentPredictor) Snapshot() map[string]DeviceState {
	out := make(map[string]DeviceState, len(p.ledger))
	for id, d := range p.ledger {
		out[id] = *d
	}
	return out
}
