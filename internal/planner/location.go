package planner

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/noah-isme/route-network-api/internal/models"
)

// Locator answers aircraft presence questions for the assignment engine.
type Locator interface {
	PlannedPresence(airportID string, at time.Time) (AircraftSet, error)
	InboundAfter(airportID string, at time.Time) []Inbound
}

// Inbound is a committed flight that will land at an airport after some instant.
type Inbound struct {
	AircraftID string
	FlightID   string
	At         time.Time
}

// Tracker derives aircraft presence from committed flight history. Results are cached per
// (airport, instant) for the lifetime of the tracker, so build one per generation run.
// It is safe for concurrent use.
type Tracker struct {
	history []models.Flight
	cutoff  time.Time

	once       sync.Once
	snapshot   map[string]AircraftSet
	presentNow map[string]AircraftSet
	byAirport  map[string][]models.Flight

	mu    sync.Mutex
	cache map[presenceKey]AircraftSet
}

type presenceKey struct {
	airport string
	at      int64
}

// NewTracker builds a tracker over committed history. Movements recorded later than
// now - serviceBuffer are not trusted for the snapshot and are replayed instead.
func NewTracker(history []models.Flight, now time.Time, serviceBuffer time.Duration) *Tracker {
	usable := make([]models.Flight, 0, len(history))
	for _, f := range history {
		if f.Canceled || f.Aircraft() == "" {
			continue
		}
		usable = append(usable, f)
	}
	return &Tracker{
		history: usable,
		cutoff:  now.Add(-serviceBuffer),
		cache:   make(map[presenceKey]AircraftSet),
	}
}

// Cutoff is the instant up to which recorded movements are folded into the snapshot.
func (t *Tracker) Cutoff() time.Time {
	return t.cutoff
}

func (t *Tracker) init() {
	t.once.Do(func() {
		type arrival struct {
			at      time.Time
			airport string
		}
		lastArrival := make(map[string]arrival)
		// foldedDeparture only holds departures at or before the cutoff
		foldedDeparture := make(map[string]time.Time)
		lastDeparture := make(map[string]time.Time)
		t.byAirport = make(map[string][]models.Flight)

		for _, f := range t.history {
			aircraft := f.Aircraft()
			if f.ActualArrival != nil && !f.ActualArrival.After(t.cutoff) {
				if cur, ok := lastArrival[aircraft]; !ok || f.ActualArrival.After(cur.at) {
					lastArrival[aircraft] = arrival{at: *f.ActualArrival, airport: f.EffectiveDestination()}
				}
			}
			if f.ActualDeparture != nil {
				keepLatest(lastDeparture, aircraft, *f.ActualDeparture)
				if !f.ActualDeparture.After(t.cutoff) {
					keepLatest(foldedDeparture, aircraft, *f.ActualDeparture)
				}
			}
			t.byAirport[f.SourceID] = append(t.byAirport[f.SourceID], f)
			if dst := f.EffectiveDestination(); dst != f.SourceID {
				t.byAirport[dst] = append(t.byAirport[dst], f)
			}
		}

		t.snapshot = make(map[string]AircraftSet)
		t.presentNow = make(map[string]AircraftSet)
		for aircraft, last := range lastArrival {
			if dep, ok := foldedDeparture[aircraft]; ok && dep.After(last.at) {
				continue
			}
			addPresent(t.snapshot, last.airport, aircraft)
			if dep, ok := lastDeparture[aircraft]; ok && dep.After(last.at) {
				continue
			}
			addPresent(t.presentNow, last.airport, aircraft)
		}
	})
}

// PresentNow returns the aircraft whose latest completed arrival is into the airport and
// that have not departed since. The returned set is owned by the caller.
func (t *Tracker) PresentNow(airportID string) AircraftSet {
	t.init()
	return t.presentNow[airportID].Clone()
}

func keepLatest(m map[string]time.Time, aircraft string, at time.Time) {
	if cur, ok := m[aircraft]; !ok || at.After(cur) {
		m[aircraft] = at
	}
}

func addPresent(sets map[string]AircraftSet, airportID, aircraft string) {
	set, ok := sets[airportID]
	if !ok {
		set = make(AircraftSet)
		sets[airportID] = set
	}
	set[aircraft] = struct{}{}
}

// PlannedPresence returns the aircraft expected at the airport at the given instant by
// replaying every movement after the cutoff over the snapshot taken at the cutoff. The
// returned set is owned by the caller.
func (t *Tracker) PlannedPresence(airportID string, at time.Time) (AircraftSet, error) {
	t.init()
	key := presenceKey{airport: airportID, at: at.UnixNano()}

	t.mu.Lock()
	cached, ok := t.cache[key]
	t.mu.Unlock()
	if ok {
		return cached.Clone(), nil
	}

	set, err := ReplayPresence(airportID, t.snapshot[airportID].Clone(), t.byAirport[airportID], t.cutoff, at)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.cache[key] = set
	t.mu.Unlock()
	return set.Clone(), nil
}

// InboundAfter lists committed flights landing at the airport strictly after the instant,
// ordered by landing time.
func (t *Tracker) InboundAfter(airportID string, at time.Time) []Inbound {
	t.init()
	var out []Inbound
	for _, f := range t.byAirport[airportID] {
		if f.EffectiveDestination() != airportID || f.SourceID == airportID || arrivalFolded(f, t.cutoff) {
			continue
		}
		landing := arrivalTime(f)
		if landing.After(at) {
			out = append(out, Inbound{AircraftID: f.Aircraft(), FlightID: f.ID, At: landing})
		}
	}
	slices.SortFunc(out, func(a, b Inbound) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return cmp.Compare(a.FlightID, b.FlightID)
	})
	return out
}

type presenceEvent struct {
	at       time.Time
	arrival  bool
	recorded bool
	aircraft string
	flightID string
}

// ReplayPresence folds the flights touching an airport into a presence set, in time order,
// up to and including until. Departures and arrivals recorded at or before since are treated
// as part of the snapshot and skipped. A recorded departure of an aircraft that is not
// present is ignored. The snapshot is modified in place.
func ReplayPresence(airportID string, snapshot AircraftSet, flights []models.Flight, since, until time.Time) (AircraftSet, error) {
	if snapshot == nil {
		snapshot = make(AircraftSet)
	}

	events := make([]presenceEvent, 0, len(flights))
	for _, f := range flights {
		if f.Canceled || f.Aircraft() == "" {
			continue
		}
		src, dst := f.SourceID, f.EffectiveDestination()
		if src != airportID && dst != airportID {
			return nil, fmt.Errorf("flight %s (%s -> %s) queried for %s: %w", f.ID, src, dst, airportID, ErrWrongLocationQuery)
		}
		if src == dst {
			continue
		}
		if src == airportID && !departureFolded(f, since) {
			events = append(events, presenceEvent{at: departureTime(f), recorded: f.ActualDeparture != nil, aircraft: f.Aircraft(), flightID: f.ID})
		}
		if dst == airportID && !arrivalFolded(f, since) {
			events = append(events, presenceEvent{at: arrivalTime(f), arrival: true, aircraft: f.Aircraft(), flightID: f.ID})
		}
	}

	slices.SortFunc(events, func(a, b presenceEvent) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		if a.arrival != b.arrival {
			if a.arrival {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.flightID, b.flightID)
	})

	for _, ev := range events {
		if ev.at.After(until) {
			break
		}
		present := snapshot.Has(ev.aircraft)
		switch {
		case !ev.arrival && !present && ev.recorded:
			// an actual departure of an aircraft with no known arrival here
			continue
		case ev.arrival && present:
			return nil, &ScheduleInconsistencyError{AirportID: airportID, AircraftID: ev.aircraft, FlightID: ev.flightID, At: ev.at, Reason: "arrives while already present"}
		case !ev.arrival && !present:
			return nil, &ScheduleInconsistencyError{AirportID: airportID, AircraftID: ev.aircraft, FlightID: ev.flightID, At: ev.at, Reason: "departs while absent"}
		case ev.arrival:
			snapshot[ev.aircraft] = struct{}{}
		default:
			delete(snapshot, ev.aircraft)
		}
	}
	return snapshot, nil
}

func arrivalFolded(f models.Flight, since time.Time) bool {
	return f.ActualArrival != nil && !f.ActualArrival.After(since)
}

func departureFolded(f models.Flight, since time.Time) bool {
	return f.ActualDeparture != nil && !f.ActualDeparture.After(since)
}

func departureTime(f models.Flight) time.Time {
	if f.ActualDeparture != nil {
		return *f.ActualDeparture
	}
	return f.PlannedDeparture
}

func arrivalTime(f models.Flight) time.Time {
	if f.ActualArrival != nil {
		return *f.ActualArrival
	}
	return f.PlannedArrival
}
