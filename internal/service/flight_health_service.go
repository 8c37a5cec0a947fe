package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/models"
	"github.com/noah-isme/route-network-api/internal/planner"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/export"
)

type boardFlightReader interface {
	ListWindow(ctx context.Context, from, to time.Time) ([]models.Flight, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Flight, error)
	ListByAircraftWindow(ctx context.Context, aircraftIDs []string, from, to time.Time) ([]models.Flight, error)
	EmployeePlannedLocation(ctx context.Context, employeeID string, at time.Time) (*models.EmployeeLocation, error)
}

type employeeLogReader interface {
	ListLogsOverlapping(ctx context.Context, from, to time.Time) ([]models.EmployeeLog, error)
}

type deviceLifeReader interface {
	ListDeviceLives(ctx context.Context, aircraftIDs []string) ([]models.AircraftDeviceLife, error)
}

// FlightHealthConfig governs the flight board.
type FlightHealthConfig struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

// FlightHealthService labels flights with their operational compatibility.
type FlightHealthService struct {
	configs   scheduleConfigReader
	flights   boardFlightReader
	logs      employeeLogReader
	devices   deviceLifeReader
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       FlightHealthConfig
}

// NewFlightHealthService constructs the service.
func NewFlightHealthService(
	configs scheduleConfigReader,
	flights boardFlightReader,
	logs employeeLogReader,
	devices deviceLifeReader,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg FlightHealthConfig,
) *FlightHealthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &FlightHealthService{
		configs:   configs,
		flights:   flights,
		logs:      logs,
		devices:   devices,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Board returns the labelled flights of the display window around now.
func (s *FlightHealthService) Board(ctx context.Context) (*dto.FlightBoard, error) {
	board, hit, err := Remember(ctx, s.cache, flightBoardKey, s.cfg.CacheTTL, s.buildBoard)
	if err != nil {
		return nil, err
	}
	if hit {
		s.logger.Debug("flight board served from cache")
	}
	return board, nil
}

func (s *FlightHealthService) buildBoard(ctx context.Context) (*dto.FlightBoard, error) {
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	now := s.cfg.Now()
	from := now.Add(-cfg.ShowPastFlightsTime)
	to := now.Add(cfg.ShowFutureFlightsTime)

	flights, err := s.flights.ListWindow(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load flights")
	}
	env, err := s.checkEnv(ctx, cfg, now, flights, from, to)
	if err != nil {
		return nil, err
	}
	labels := planner.CheckCompatibility(flights, env)

	board := &dto.FlightBoard{
		From:        from,
		To:          to,
		GeneratedAt: now,
		Flights:     statusItems(flights, labels),
		Summary:     summarize(labels),
	}
	s.metrics.SetFlightLabels(board.Summary)
	return board, nil
}

// Check labels an arbitrary set of flights. Earlier flights of the same aircraft within
// the display window are replayed first so continuity is judged against them.
func (s *FlightHealthService) Check(ctx context.Context, req dto.CheckRequest) ([]dto.FlightStatusItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid compatibility check payload")
	}
	cfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	requested, err := s.flights.ListByIDs(ctx, req.FlightIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load flights")
	}
	if len(requested) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no flights found for the given ids")
	}

	from, to := requested[0].PlannedDeparture, requested[0].PlannedArrival
	var aircraftIDs []string
	wanted := make(map[string]struct{}, len(requested))
	for _, f := range requested {
		wanted[f.ID] = struct{}{}
		if f.PlannedDeparture.Before(from) {
			from = f.PlannedDeparture
		}
		if f.PlannedArrival.After(to) {
			to = f.PlannedArrival
		}
		if id := f.Aircraft(); id != "" && !slices.Contains(aircraftIDs, id) {
			aircraftIDs = append(aircraftIDs, id)
		}
	}
	historyFrom := from.Add(-cfg.ShowPastFlightsTime)
	history, err := s.flights.ListByAircraftWindow(ctx, aircraftIDs, historyFrom, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aircraft history")
	}
	flights := slices.Clone(requested)
	for _, f := range history {
		if _, ok := wanted[f.ID]; !ok && f.PlannedDeparture.Before(to) {
			flights = append(flights, f)
		}
	}

	now := s.cfg.Now()
	env, err := s.checkEnv(ctx, cfg, now, flights, historyFrom, to)
	if err != nil {
		return nil, err
	}
	labels := planner.CheckCompatibility(flights, env)
	for id := range labels {
		if _, ok := wanted[id]; !ok {
			delete(labels, id)
		}
	}
	return statusItems(requested, labels), nil
}

// Export renders the current board as CSV or PDF.
func (s *FlightHealthService) Export(ctx context.Context, format string) (*export.Document, error) {
	parsed, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	board, err := s.Board(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := export.Render(parsed, "flight-board-"+board.GeneratedAt.Format("20060102-1504"), boardDataset(board))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render flight board")
	}
	return doc, nil
}

// EmployeeLocation tells where an employee is planned to be at the instant.
func (s *FlightHealthService) EmployeeLocation(ctx context.Context, employeeID string, at time.Time) (*dto.EmployeeLocationResponse, error) {
	if at.IsZero() {
		at = s.cfg.Now()
	}
	loc, err := s.flights.EmployeePlannedLocation(ctx, employeeID, at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee has no planned flights before the given time")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve employee location")
	}
	return &dto.EmployeeLocationResponse{EmployeeID: employeeID, AirportID: loc.AirportID, At: at, FreeAt: loc.FreeAt}, nil
}

func (s *FlightHealthService) loadConfig(ctx context.Context) (*models.ScheduleConfig, error) {
	cfg, err := s.configs.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConfigMissing, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	return cfg, nil
}

func (s *FlightHealthService) checkEnv(ctx context.Context, cfg *models.ScheduleConfig, now time.Time, flights []models.Flight, from, to time.Time) (planner.CheckEnv, error) {
	env := planner.CheckEnv{Config: *cfg, Now: now, Logger: s.logger}

	logs, err := s.logs.ListLogsOverlapping(ctx, from, to)
	if err != nil {
		return env, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee logs")
	}
	env.Available = planner.AvailabilityFromLogs(logs)

	var aircraftIDs []string
	for _, f := range flights {
		if id := f.Aircraft(); id != "" && !slices.Contains(aircraftIDs, id) {
			aircraftIDs = append(aircraftIDs, id)
		}
	}
	devices, err := s.devices.ListDeviceLives(ctx, aircraftIDs)
	if err != nil {
		return env, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device lives")
	}
	env.Equipment = planner.NewEquipmentPredictor(devicesByAircraft(devices))
	return env, nil
}

func statusItems(flights []models.Flight, labels map[string]planner.Label) []dto.FlightStatusItem {
	items := make([]dto.FlightStatusItem, 0, len(flights))
	for _, f := range flights {
		label, ok := labels[f.ID]
		if !ok {
			continue
		}
		employees := []string(f.EmployeeIDs)
		if employees == nil {
			employees = []string{}
		}
		items = append(items, dto.FlightStatusItem{
			FlightID:         f.ID,
			FlightCode:       f.FlightCode,
			TemplateID:       f.TemplateID,
			SourceID:         f.SourceID,
			DestinationID:    f.EffectiveDestination(),
			AircraftID:       f.Aircraft(),
			PlannedDeparture: f.PlannedDeparture,
			PlannedArrival:   f.PlannedArrival,
			ActualDeparture:  f.ActualDeparture,
			ActualArrival:    f.ActualArrival,
			EmployeeIDs:      employees,
			Label:            string(label),
			Healthy:          label.PermitsSuccessor(),
		})
	}
	slices.SortStableFunc(items, func(a, b dto.FlightStatusItem) int {
		return a.PlannedDeparture.Compare(b.PlannedDeparture)
	})
	return items
}

func summarize(labels map[string]planner.Label) map[string]int {
	summary := make(map[string]int)
	for _, label := range labels {
		summary[string(label)]++
	}
	return summary
}

func boardDataset(board *dto.FlightBoard) export.Dataset {
	headers := []string{"Flight", "Route", "Aircraft", "Planned Departure", "Planned Arrival", "Crew", "Status"}
	rows := make([]map[string]string, 0, len(board.Flights))
	for _, item := range board.Flights {
		rows = append(rows, map[string]string{
			"Flight":            item.FlightCode,
			"Route":             fmt.Sprintf("%s-%s", item.SourceID, item.DestinationID),
			"Aircraft":          item.AircraftID,
			"Planned Departure": item.PlannedDeparture.UTC().Format(time.RFC3339),
			"Planned Arrival":   item.PlannedArrival.UTC().Format(time.RFC3339),
			"Crew":              fmt.Sprintf("%d", len(item.EmployeeIDs)),
			"Status":            item.Label,
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Flight board %s to %s", board.From.UTC().Format(time.DateOnly), board.To.UTC().Format(time.DateOnly)),
		Headers: headers,
		Rows:    rows,
	}
}
