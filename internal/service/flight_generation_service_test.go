package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/models"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/jobs"
)

var generationNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type scheduleConfigStub struct {
	cfg *models.ScheduleConfig
	err error
}

func (s *scheduleConfigStub) Get(ctx context.Context) (*models.ScheduleConfig, error) {
	return s.cfg, s.err
}

type templateUpdate struct {
	ids         []string
	status      models.TemplateStatus
	description string
}

type routeTemplateStoreStub struct {
	templates []models.RouteTemplate
	updates   []templateUpdate
}

func (s *routeTemplateStoreStub) ListActiveFrom(ctx context.Context, from time.Time) ([]models.RouteTemplate, error) {
	return s.templates, nil
}

func (s *routeTemplateStoreStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, ids []string, status models.TemplateStatus, description string) error {
	if len(ids) == 0 {
		return nil
	}
	s.updates = append(s.updates, templateUpdate{ids: ids, status: status, description: description})
	return nil
}

func (s *routeTemplateStoreStub) statusOf(id string) (models.TemplateStatus, string) {
	for i := len(s.updates) - 1; i >= 0; i-- {
		if slices.Contains(s.updates[i].ids, id) {
			return s.updates[i].status, s.updates[i].description
		}
	}
	return "", ""
}

type generationFlightStoreStub struct {
	history   []models.Flight
	canceled  []models.Flight
	locations []models.EmployeeLocation
	deleted   int64
	inserted  []models.Flight
}

func (s *generationFlightStoreStub) ListCommitted(ctx context.Context, horizon time.Time) ([]models.Flight, error) {
	return s.history, nil
}

func (s *generationFlightStoreStub) ListCanceledFrom(ctx context.Context, horizon time.Time) ([]models.Flight, error) {
	return s.canceled, nil
}

func (s *generationFlightStoreStub) LastEmployeeLocations(ctx context.Context, horizon time.Time) ([]models.EmployeeLocation, error) {
	return s.locations, nil
}

func (s *generationFlightStoreStub) DeleteUncommittedFrom(ctx context.Context, exec sqlx.ExtContext, horizon time.Time) (int64, error) {
	return s.deleted, nil
}

func (s *generationFlightStoreStub) Insert(ctx context.Context, exec sqlx.ExtContext, flight *models.Flight) error {
	flight.ID = fmt.Sprintf("F%d", len(s.inserted)+1)
	s.inserted = append(s.inserted, *flight)
	return nil
}

type fleetStub struct {
	aircraft []models.Aircraft
	devices  []models.AircraftDeviceLife
}

func (s *fleetStub) ListWithDynamicInfo(ctx context.Context) ([]models.Aircraft, error) {
	return s.aircraft, nil
}

func (s *fleetStub) ListDeviceLives(ctx context.Context, aircraftIDs []string) ([]models.AircraftDeviceLife, error) {
	return s.devices, nil
}

type crewStub struct {
	employees  []models.Employee
	logs       []models.EmployeeLog
	logWindows [][2]time.Time
}

func (s *crewStub) ListCrew(ctx context.Context) ([]models.Employee, error) {
	return s.employees, nil
}

func (s *crewStub) ListLogsOverlapping(ctx context.Context, from, to time.Time) ([]models.EmployeeLog, error) {
	s.logWindows = append(s.logWindows, [2]time.Time{from, to})
	return s.logs, nil
}

type airportDirectoryStub struct {
	byIATA  map[string]*models.Airport
	runways map[string]int
}

func (s *airportDirectoryStub) FindByIATA(ctx context.Context, iata string) (*models.Airport, error) {
	if a, ok := s.byIATA[iata]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (s *airportDirectoryStub) CountActiveRunways(ctx context.Context, airportIDs []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range airportIDs {
		if n, ok := s.runways[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

type boardInvalidatorStub struct {
	calls int
}

func (s *boardInvalidatorStub) InvalidateFlightBoard(ctx context.Context) error {
	s.calls++
	return nil
}

type jobDispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (s *jobDispatcherStub) Enqueue(job jobs.Job) error {
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, job)
	return nil
}

type generationFixture struct {
	configs   *scheduleConfigStub
	templates *routeTemplateStoreStub
	flights   *generationFlightStoreStub
	fleet     *fleetStub
	crew      *crewStub
	airports  *airportDirectoryStub
	cache     *boardInvalidatorStub
	db        *sqlx.DB
	mock      sqlmock.Sqlmock
}

func dailyTemplate(id, src, dst string, dep, arr models.ClockTime) models.RouteTemplate {
	return models.RouteTemplate{
		ID:                id,
		FlightCode:        "SU" + id,
		SourceID:          src,
		DestinationID:     dst,
		DepartureTime:     dep,
		ArrivalTime:       arr,
		DaysOfWeek:        pq.Int64Array{0, 1, 2, 3, 4, 5, 6},
		StartDate:         generationNow,
		EndDate:           generationNow.AddDate(0, 0, 1),
		PassengerCapacity: 100,
		Status:            models.TemplatePending,
	}
}

// newGenerationFixture models one aircraft and one pilot shuttling A <-> B twice a day
// for two days.
func newGenerationFixture(t *testing.T) *generationFixture {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := models.DefaultScheduleConfig()
	cfg.MaxFlightGenerationAttempts = 3
	landed := generationNow.Add(-4 * time.Hour)
	aircraftID := "X"

	return &generationFixture{
		configs: &scheduleConfigStub{cfg: &cfg},
		templates: &routeTemplateStoreStub{templates: []models.RouteTemplate{
			dailyTemplate("T1", "A", "B", models.MustClockTime("08:00"), models.MustClockTime("10:00")),
			dailyTemplate("T2", "B", "A", models.MustClockTime("12:00"), models.MustClockTime("14:00")),
		}},
		flights: &generationFlightStoreStub{
			history: []models.Flight{{
				ID:               "H0",
				TemplateID:       "T0",
				SourceID:         "C",
				DestinationID:    "A",
				PlannedDeparture: landed.Add(-2 * time.Hour),
				PlannedArrival:   landed,
				ActualDeparture:  ptrTime(landed.Add(-2 * time.Hour)),
				ActualArrival:    ptrTime(landed),
				AircraftID:       &aircraftID,
			}},
			locations: []models.EmployeeLocation{{EmployeeID: "P1", AirportID: "A", FreeAt: landed}},
			deleted:   2,
		},
		fleet: &fleetStub{aircraft: []models.Aircraft{{ID: "X", EconomyClassCap: 150, PilotsNumber: 1}}},
		crew: &crewStub{employees: []models.Employee{
			{ID: "P1", OccupationCode: models.OccupationPilot},
			{ID: "G1", OccupationCode: "GROUND"},
		}},
		airports: &airportDirectoryStub{runways: map[string]int{"A": 1, "B": 2}},
		cache:    &boardInvalidatorStub{},
		db:       sqlx.NewDb(db, "sqlmock"),
		mock:     mock,
	}
}

func (f *generationFixture) service() *FlightGenerationService {
	return NewFlightGenerationService(f.configs, f.templates, f.flights, f.fleet, f.crew, f.airports, f.cache, f.db, nil, nil,
		FlightGenerationConfig{Seed: 7, Parallelism: 2, Now: func() time.Time { return generationNow }})
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestFlightGenerationRunCommitsCrewedFlights(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	report, err := f.service().Run(context.Background(), generationNow)
	require.NoError(t, err)

	assert.Equal(t, dto.GenerationSucceeded, report.Status)
	assert.Equal(t, 2, report.Templates)
	assert.Equal(t, 4, report.Occurrences)
	assert.Equal(t, 3, report.Attempts)
	assert.Equal(t, 3, report.SuccessfulAttempts)
	require.NotNil(t, report.ChosenAttempt)
	assert.Equal(t, 0, *report.ChosenAttempt)
	assert.Equal(t, int64(2), report.FlightsDeleted)
	assert.Equal(t, 4, report.FlightsCommitted)

	require.Len(t, f.flights.inserted, 4)
	for _, flight := range f.flights.inserted {
		assert.Equal(t, "X", flight.Aircraft())
		assert.Equal(t, []string{"P1"}, []string(flight.EmployeeIDs))
	}
	assert.Equal(t, "T1", f.flights.inserted[0].TemplateID)
	assert.Equal(t, generationNow.Add(8*time.Hour), f.flights.inserted[0].PlannedDeparture)
	assert.Equal(t, "T2", f.flights.inserted[3].TemplateID)

	for _, id := range []string{"T1", "T2"} {
		status, _ := f.templates.statusOf(id)
		assert.Equal(t, models.TemplateSuccess, status)
	}
	assert.Equal(t, 1, f.cache.calls)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFlightGenerationMissingConfigMarksTemplates(t *testing.T) {
	f := newGenerationFixture(t)
	f.configs.err = sql.ErrNoRows

	report, err := f.service().Run(context.Background(), generationNow)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrScheduleConfigMissing))
	assert.Equal(t, dto.GenerationFailed, report.Status)
	assert.Equal(t, dto.StagePrepare, report.FailedStage)

	status, description := f.templates.statusOf("T1")
	assert.Equal(t, models.TemplateError, status)
	assert.Equal(t, "schedule configuration missing", description)
	assert.Empty(t, f.flights.inserted)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFlightGenerationRejectsTemplatesWithoutRunways(t *testing.T) {
	f := newGenerationFixture(t)
	f.templates.templates = append(f.templates.templates,
		dailyTemplate("T3", "A", "C", models.MustClockTime("09:00"), models.MustClockTime("11:00")))

	report, err := f.service().Run(context.Background(), generationNow)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNoRunways))
	assert.Equal(t, dto.StageCheckAirports, report.FailedStage)

	status, description := f.templates.statusOf("T3")
	assert.Equal(t, models.TemplateError, status)
	assert.Equal(t, "No available runways. Source runways: 1, Destination runways: 0", description)
	status, _ = f.templates.statusOf("T1")
	assert.Equal(t, models.TemplatePending, status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFlightGenerationMarksInfeasibleTemplate(t *testing.T) {
	f := newGenerationFixture(t)
	f.fleet.aircraft = nil

	report, err := f.service().Run(context.Background(), generationNow)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrTemplateInfeasible))
	assert.Equal(t, dto.StageGenerate, report.FailedStage)
	assert.Equal(t, 3, report.Attempts)

	status, description := f.templates.statusOf("T1")
	assert.Equal(t, models.TemplateError, status)
	assert.Contains(t, description, "cannot create flight by plan T1")
	status, _ = f.templates.statusOf("T2")
	assert.Equal(t, models.TemplatePending, status)
	assert.Empty(t, f.flights.inserted)
}

func TestFlightGenerationSkipsBannedOccurrences(t *testing.T) {
	f := newGenerationFixture(t)
	dep := generationNow.Add(36 * time.Hour)
	f.flights.canceled = []models.Flight{{ID: "C1", TemplateID: "T2", PlannedDeparture: dep, PlannedArrival: dep.Add(2 * time.Hour), Canceled: true}}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	report, err := f.service().Run(context.Background(), generationNow)
	require.NoError(t, err)
	assert.Equal(t, 3, report.FlightsCommitted)
	for _, flight := range f.flights.inserted {
		assert.False(t, flight.TemplateID == "T2" && flight.PlannedDeparture.Equal(dep))
	}
}

func TestFlightGenerationFailsWhenNoCrewAvailable(t *testing.T) {
	f := newGenerationFixture(t)
	sick := generationNow.Add(-time.Hour)
	f.crew.logs = []models.EmployeeLog{{
		EmployeeID:      "P1",
		Status:          models.EmployeeLogLeaveSick,
		DisabilityStart: &sick,
		DisabilityEnd:   ptrTime(generationNow.AddDate(0, 0, 3)),
	}}

	report, err := f.service().Run(context.Background(), generationNow)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrCrewInfeasible))
	assert.Equal(t, dto.StageAssignCrew, report.FailedStage)
	for _, id := range []string{"T1", "T2"} {
		status, description := f.templates.statusOf(id)
		assert.Equal(t, models.TemplateError, status)
		assert.Contains(t, description, "no feasible crew assignment")
	}
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestFlightGenerationRollsBackFailedCommit(t *testing.T) {
	f := newGenerationFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	report, err := f.service().Run(context.Background(), generationNow)
	require.Error(t, err)
	assert.Equal(t, dto.StageCommit, report.FailedStage)
	assert.Zero(t, report.FlightsCommitted)
	assert.Zero(t, f.cache.calls)
}

func TestFlightGenerationSubmitAndHandleJob(t *testing.T) {
	f := newGenerationFixture(t)
	f.configs.err = sql.ErrNoRows
	svc := f.service()
	queue := &jobDispatcherStub{}
	svc.AttachQueue(queue)

	horizon := generationNow.Add(48 * time.Hour)
	resp, err := svc.Submit(context.Background(), dto.GenerateRequest{HorizonStart: &horizon})
	require.NoError(t, err)
	assert.Equal(t, dto.GenerationQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeFlightGeneration, queue.jobs[0].Type)

	err = svc.HandleJob(context.Background(), queue.jobs[0])
	require.Error(t, err)
	assert.True(t, jobs.IsPermanent(err))

	report, err := svc.GetRun(context.Background(), resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, dto.GenerationFailed, report.Status)
	assert.Equal(t, horizon, report.HorizonStart)
	assert.NotEmpty(t, report.Failure)
}

func TestFlightGenerationSubmitWithoutQueue(t *testing.T) {
	f := newGenerationFixture(t)
	_, err := f.service().Submit(context.Background(), dto.GenerateRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrPreconditionFailed))
}

func TestFlightGenerationGetRunUnknown(t *testing.T) {
	f := newGenerationFixture(t)
	_, err := f.service().GetRun(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestRunStoreExpiresFinishedReports(t *testing.T) {
	now := generationNow
	store := newRunStore(time.Hour, func() time.Time { return now })
	finished := generationNow
	store.Save(dto.GenerationReport{RunID: "done", FinishedAt: &finished})
	store.Save(dto.GenerationReport{RunID: "running"})

	now = generationNow.Add(2 * time.Hour)
	_, ok := store.Get("done")
	assert.False(t, ok)
	_, ok = store.Get("running")
	assert.True(t, ok)
}
