package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/models"
	"github.com/noah-isme/route-network-api/internal/planner"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/jobs"
	"github.com/noah-isme/route-network-api/pkg/logger"
)

// JobTypeFlightGeneration tags generation runs on the background queue.
const JobTypeFlightGeneration = "flight_generation"

type scheduleConfigReader interface {
	Get(ctx context.Context) (*models.ScheduleConfig, error)
}

type routeTemplateStore interface {
	ListActiveFrom(ctx context.Context, from time.Time) ([]models.RouteTemplate, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, ids []string, status models.TemplateStatus, description string) error
}

type generationFlightStore interface {
	ListCommitted(ctx context.Context, horizon time.Time) ([]models.Flight, error)
	ListCanceledFrom(ctx context.Context, horizon time.Time) ([]models.Flight, error)
	LastEmployeeLocations(ctx context.Context, horizon time.Time) ([]models.EmployeeLocation, error)
	DeleteUncommittedFrom(ctx context.Context, exec sqlx.ExtContext, horizon time.Time) (int64, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, flight *models.Flight) error
}

type fleetReader interface {
	ListWithDynamicInfo(ctx context.Context) ([]models.Aircraft, error)
	ListDeviceLives(ctx context.Context, aircraftIDs []string) ([]models.AircraftDeviceLife, error)
}

type crewReader interface {
	ListCrew(ctx context.Context) ([]models.Employee, error)
	ListLogsOverlapping(ctx context.Context, from, to time.Time) ([]models.EmployeeLog, error)
}

type airportDirectory interface {
	FindByIATA(ctx context.Context, iata string) (*models.Airport, error)
	CountActiveRunways(ctx context.Context, airportIDs []string) (map[string]int, error)
}

type boardInvalidator interface {
	InvalidateFlightBoard(ctx context.Context) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// FlightGenerationConfig governs generation behaviour.
type FlightGenerationConfig struct {
	HomeBaseIATA   string
	Seed           uint64
	Parallelism    int
	EquipmentGate  bool
	ServiceBuffer  time.Duration
	VariantRanking string
	RunTTL         time.Duration
	Now            func() time.Time
}

// FlightGenerationService turns route templates into committed, crewed flights.
type FlightGenerationService struct {
	configs   scheduleConfigReader
	templates routeTemplateStore
	flights   generationFlightStore
	fleet     fleetReader
	crew      crewReader
	airports  airportDirectory
	cache     boardInvalidator
	tx        txProvider
	queue     jobDispatcher
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       FlightGenerationConfig
	ranker    planner.VariantRanker
	runs      *runStore
}

// NewFlightGenerationService wires generation dependencies.
func NewFlightGenerationService(
	configs scheduleConfigReader,
	templates routeTemplateStore,
	flights generationFlightStore,
	fleet fleetReader,
	crew crewReader,
	airports airportDirectory,
	cache boardInvalidator,
	tx txProvider,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg FlightGenerationConfig,
) *FlightGenerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 6 * time.Hour
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &FlightGenerationService{
		configs:   configs,
		templates: templates,
		flights:   flights,
		fleet:     fleet,
		crew:      crew,
		airports:  airports,
		cache:     cache,
		tx:        tx,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		ranker:    planner.RankerByName(cfg.VariantRanking),
		runs:      newRunStore(cfg.RunTTL, cfg.Now),
	}
}

// AttachQueue sets the dispatcher used by Submit. The queue's handler is HandleJob.
func (s *FlightGenerationService) AttachQueue(queue jobDispatcher) {
	s.queue = queue
}

// generationRun carries the state of one run between stages.
type generationRun struct {
	report      *dto.GenerationReport
	horizon     time.Time
	logger      *zap.Logger
	config      *models.ScheduleConfig
	templates   []models.RouteTemplate
	templateIDs []string
	byID        map[string]models.RouteTemplate
	aircraft    map[string]models.Aircraft
	candidates  *planner.ScheduleCandidates
	variant     *planner.CrewVariant
	// done stops the chain without failing the run.
	done bool
}

type generationStage struct {
	name dto.GenerationStage
	run  func(ctx context.Context, run *generationRun) error
}

func (s *FlightGenerationService) stages() []generationStage {
	return []generationStage{
		{name: dto.StagePrepare, run: s.prepare},
		{name: dto.StageCheckAirports, run: s.checkAirports},
		{name: dto.StageGenerate, run: s.generate},
		{name: dto.StageAssignCrew, run: s.assignCrew},
		{name: dto.StageCommit, run: s.commit},
	}
}

// Run executes a generation run synchronously and returns its report. The report is
// returned even when the run fails; nothing is committed in that case.
func (s *FlightGenerationService) Run(ctx context.Context, horizonStart time.Time) (*dto.GenerationReport, error) {
	report := s.newReport(horizonStart)
	s.runs.Save(*report)
	err := s.execute(ctx, report)
	return report, err
}

// Submit queues a generation run and returns its id for polling.
func (s *FlightGenerationService) Submit(ctx context.Context, req dto.GenerateRequest) (*dto.GenerationRunResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "flight generation queue is not running")
	}
	horizon := s.cfg.Now()
	if req.HorizonStart != nil {
		horizon = req.HorizonStart.UTC()
	}
	report := s.newReport(horizon)
	s.runs.Save(*report)

	if err := s.queue.Enqueue(jobs.Job{ID: report.RunID, Type: JobTypeFlightGeneration, Payload: horizon}); err != nil {
		now := s.cfg.Now()
		report.Status = dto.GenerationFailed
		report.Failure = "failed to enqueue run"
		report.FinishedAt = &now
		s.runs.Save(*report)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation run")
	}
	s.logger.Info("generation run queued", zap.String("run_id", report.RunID), zap.Time("horizon_start", horizon))
	return &dto.GenerationRunResponse{RunID: report.RunID, Status: report.Status}, nil
}

// HandleJob processes a queued run. Scheduling failures are permanent; infrastructure
// failures are retried by the queue.
func (s *FlightGenerationService) HandleJob(ctx context.Context, job jobs.Job) error {
	report, ok := s.runs.Get(job.ID)
	if !ok {
		return jobs.Permanent(fmt.Errorf("generation run %s not found", job.ID))
	}
	err := s.execute(ctx, &report)
	if err == nil {
		return nil
	}
	if isSchedulingFailure(err) {
		return jobs.Permanent(err)
	}
	return err
}

// GetRun returns the report of a recent run.
func (s *FlightGenerationService) GetRun(ctx context.Context, id string) (*dto.GenerationReport, error) {
	report, ok := s.runs.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "generation run not found")
	}
	return &report, nil
}

func (s *FlightGenerationService) newReport(horizon time.Time) *dto.GenerationReport {
	return &dto.GenerationReport{
		RunID:        uuid.NewString(),
		Status:       dto.GenerationQueued,
		HorizonStart: horizon,
		RequestedAt:  s.cfg.Now(),
	}
}

func (s *FlightGenerationService) execute(ctx context.Context, report *dto.GenerationReport) error {
	started := s.cfg.Now()
	report.Status = dto.GenerationRunning
	report.StartedAt = &started
	report.FailedStage = ""
	report.Failure = ""
	s.runs.Save(*report)

	run := &generationRun{report: report, horizon: report.HorizonStart}
	var err error
	for _, stage := range s.stages() {
		if run.done {
			break
		}
		run.logger = logger.Stage(s.logger, report.RunID, string(stage.name))
		start := time.Now()
		err = stage.run(ctx, run)
		s.metrics.ObserveStage(stage.name, err, time.Since(start))
		if err != nil {
			report.FailedStage = stage.name
			report.Failure = err.Error()
			run.logger.Warn("generation stage failed", zap.Error(err))
			break
		}
	}

	finished := s.cfg.Now()
	report.FinishedAt = &finished
	report.Status = dto.GenerationSucceeded
	if err != nil {
		report.Status = dto.GenerationFailed
	}
	s.metrics.RecordGenerationRun(report.Status)
	s.runs.Save(*report)
	s.logger.Info("generation run finished",
		zap.String("run_id", report.RunID),
		zap.String("status", string(report.Status)),
		zap.Int("flights", report.FlightsCommitted),
		zap.Duration("elapsed", finished.Sub(started)),
	)
	return err
}

func (s *FlightGenerationService) prepare(ctx context.Context, run *generationRun) error {
	// A template ending the day before the horizon (UTC) can still depart after it in a
	// zone behind UTC; occurrence expansion drops what is really out of range.
	templates, err := s.templates.ListActiveFrom(ctx, run.horizon.UTC().AddDate(0, 0, -1))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load route templates")
	}
	run.templates = templates
	run.byID = make(map[string]models.RouteTemplate, len(templates))
	for _, tpl := range templates {
		run.templateIDs = append(run.templateIDs, tpl.ID)
		run.byID[tpl.ID] = tpl
	}
	run.report.Templates = len(templates)

	cfg, err := s.configs.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.markTemplates(ctx, run, nil, planner.ErrScheduleConfigMissing.Error())
			return appErrors.Wrap(planner.ErrScheduleConfigMissing, appErrors.ErrScheduleConfigMissing.Code,
				appErrors.ErrScheduleConfigMissing.Status, appErrors.ErrScheduleConfigMissing.Message)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	run.config = cfg

	if len(templates) == 0 {
		run.logger.Info("no active route templates, nothing to generate")
		run.done = true
		return nil
	}
	if err := s.templates.UpdateStatus(ctx, nil, run.templateIDs, models.TemplateProcessing, ""); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark templates processing")
	}
	run.logger.Info("templates prepared", zap.Int("templates", len(templates)))
	return nil
}

func (s *FlightGenerationService) checkAirports(ctx context.Context, run *generationRun) error {
	seen := make(map[string]struct{})
	var airportIDs []string
	for _, tpl := range run.templates {
		for _, id := range []string{tpl.SourceID, tpl.DestinationID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				airportIDs = append(airportIDs, id)
			}
		}
	}
	runways, err := s.airports.CountActiveRunways(ctx, airportIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count runways")
	}

	var failed error
	rejected := make(map[string]struct{})
	for _, tpl := range run.templates {
		src, dst := runways[tpl.SourceID], runways[tpl.DestinationID]
		if src > 0 && dst > 0 {
			continue
		}
		description := fmt.Sprintf("No available runways. Source runways: %d, Destination runways: %d", src, dst)
		run.logger.Warn("template rejected", zap.String("template_id", tpl.ID), zap.String("reason", description))
		if err := s.templates.UpdateStatus(context.WithoutCancel(ctx), nil, []string{tpl.ID}, models.TemplateError, description); err != nil {
			run.logger.Error("failed to mark template", zap.String("template_id", tpl.ID), zap.Error(err))
		}
		rejected[tpl.ID] = struct{}{}
		if failed == nil {
			failed = appErrors.Clone(appErrors.ErrNoRunways, fmt.Sprintf("route template %s: %s", tpl.ID, description))
		}
	}
	if failed == nil {
		return nil
	}
	var rest []string
	for _, id := range run.templateIDs {
		if _, ok := rejected[id]; !ok {
			rest = append(rest, id)
		}
	}
	if err := s.templates.UpdateStatus(context.WithoutCancel(ctx), nil, rest, models.TemplatePending, ""); err != nil {
		run.logger.Error("failed to reset templates", zap.Strings("template_ids", rest), zap.Error(err))
	}
	return failed
}

func (s *FlightGenerationService) generate(ctx context.Context, run *generationRun) error {
	history, err := s.flights.ListCommitted(ctx, run.horizon)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load flight history")
	}
	canceled, err := s.flights.ListCanceledFrom(ctx, run.horizon)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cancelled flights")
	}
	fleet, err := s.fleet.ListWithDynamicInfo(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aircraft")
	}

	run.aircraft = make(map[string]models.Aircraft, len(fleet))
	aircraftIDs := make([]string, 0, len(fleet))
	for _, a := range fleet {
		run.aircraft[a.ID] = a
		aircraftIDs = append(aircraftIDs, a.ID)
	}
	banned := make(map[planner.Signature]struct{}, len(canceled))
	for _, f := range canceled {
		banned[planner.NewSignature(f.PlannedDeparture, f.PlannedArrival, f.TemplateID)] = struct{}{}
	}

	input := &planner.AssignmentInput{
		Occurrences: planner.CollectOccurrences(run.templates, run.horizon),
		Templates:   run.byID,
		Aircraft:    run.aircraft,
		Banned:      banned,
		Config:      run.config,
		Locator:     planner.NewTracker(history, s.cfg.Now(), s.cfg.ServiceBuffer),
	}
	if s.cfg.EquipmentGate {
		devices, err := s.fleet.ListDeviceLives(ctx, aircraftIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load device lives")
		}
		input.Equipment = planner.NewEquipmentPredictor(devicesByAircraft(devices))
	}
	run.report.Occurrences = len(input.Occurrences)
	run.logger.Info("generating schedules",
		zap.Int("occurrences", len(input.Occurrences)),
		zap.Int("aircraft", len(fleet)),
		zap.Int("history", len(history)),
		zap.Int("banned", len(banned)),
		zap.Int("attempts", run.config.MaxFlightGenerationAttempts),
	)

	genCtx := ctx
	if run.config.FlightGenerationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, run.config.FlightGenerationTimeout)
		defer cancel()
	}
	candidates, err := planner.GenerateSchedules(genCtx, input, planner.GenerationOptions{Seed: s.cfg.Seed, Parallelism: s.cfg.Parallelism})
	if err != nil {
		return s.generationFailure(ctx, run, err)
	}
	candidates.HorizonStart = run.horizon
	run.candidates = candidates
	run.report.Attempts = candidates.Attempts
	run.report.SuccessfulAttempts = len(candidates.Schedules)
	s.metrics.RecordAttempts(candidates.Attempts, len(candidates.Schedules))
	run.logger.Info("schedules generated", zap.Int("attempts", candidates.Attempts), zap.Int("feasible", len(candidates.Schedules)))
	return nil
}

func (s *FlightGenerationService) generationFailure(ctx context.Context, run *generationRun, err error) error {
	var failed *planner.GenerationFailedError
	var inconsistent *planner.ScheduleInconsistencyError
	switch {
	case errors.As(err, &failed):
		run.report.Attempts = failed.Attempts
		s.metrics.RecordAttempts(failed.Attempts, 0)
		var offending []string
		description := failed.Error()
		if failed.Last != nil {
			offending = []string{failed.Last.TemplateID}
			description = failed.Last.Error()
			run.logger.Warn("no available aircraft",
				zap.String("template_id", failed.Last.TemplateID),
				zap.Time("departure", failed.Last.Departure),
				zap.Strings("candidates", failed.Last.Candidates),
				zap.Int("requested_capacity", failed.Last.RequestedCapacity),
			)
		}
		s.markTemplates(ctx, run, offending, description)
		return appErrors.Wrap(err, appErrors.ErrTemplateInfeasible.Code, appErrors.ErrTemplateInfeasible.Status, description)
	case errors.As(err, &inconsistent), errors.Is(err, planner.ErrWrongLocationQuery):
		s.markTemplates(ctx, run, nil, err.Error())
		return appErrors.Wrap(err, appErrors.ErrScheduleInconsistent.Code, appErrors.ErrScheduleInconsistent.Status, appErrors.ErrScheduleInconsistent.Message)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		s.markTemplates(ctx, run, nil, appErrors.ErrGenerationTimeout.Message)
		return appErrors.Wrap(err, appErrors.ErrGenerationTimeout.Code, appErrors.ErrGenerationTimeout.Status, appErrors.ErrGenerationTimeout.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate schedules")
	}
}

func (s *FlightGenerationService) assignCrew(ctx context.Context, run *generationRun) error {
	employees, err := s.crew.ListCrew(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load crew")
	}
	locations, err := s.flights.LastEmployeeLocations(ctx, run.horizon)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load crew locations")
	}
	seeds := make(map[string]planner.EmployeeSeed, len(locations))
	for _, loc := range locations {
		seeds[loc.EmployeeID] = planner.EmployeeSeed{AirportID: loc.AirportID, FreeAt: loc.FreeAt}
	}

	homeBase := ""
	if s.cfg.HomeBaseIATA != "" {
		airport, err := s.airports.FindByIATA(ctx, s.cfg.HomeBaseIATA)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			run.logger.Warn("home base airport not found, unseeded crew stays unplaced", zap.String("iata", s.cfg.HomeBaseIATA))
		case err != nil:
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve home base")
		default:
			homeBase = airport.ID
		}
	}

	windowEnd := run.horizon
	for _, schedule := range run.candidates.Schedules {
		for _, entry := range schedule.Entries {
			if entry.Arrival.After(windowEnd) {
				windowEnd = entry.Arrival
			}
		}
	}
	logs, err := s.crew.ListLogsOverlapping(ctx, run.horizon, windowEnd)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee logs")
	}

	input := &planner.CrewInput{
		Employees: employees,
		Seeds:     seeds,
		HomeBase:  homeBase,
		Aircraft:  run.aircraft,
		Templates: run.byID,
		Available: planner.AvailabilityFromLogs(logs),
	}
	variant, err := planner.AssignCrewVariants(ctx, run.candidates, input, s.ranker, s.cfg.Parallelism)
	if err != nil {
		var none *planner.NoFeasibleCrewError
		if errors.As(err, &none) {
			s.metrics.RecordCrewVariants(0, len(none.Failures))
			description := err.Error()
			if len(none.Failures) > 0 {
				description = fmt.Sprintf("%s; last: %s", description, none.Failures[len(none.Failures)-1].Error())
			}
			s.markTemplates(ctx, run, nil, description)
			return appErrors.Wrap(err, appErrors.ErrCrewInfeasible.Code, appErrors.ErrCrewInfeasible.Status, description)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign crew")
	}
	s.metrics.RecordCrewVariants(len(run.candidates.Schedules)-variant.Uncrewable, variant.Uncrewable)

	run.variant = variant
	chosen := variant.Attempt
	run.report.ChosenAttempt = &chosen
	run.report.CrewChanges = planner.CrewChanges(*variant)
	run.logger.Info("crew assigned", zap.Int("attempt", chosen), zap.Int("legs", len(variant.Legs)), zap.Int("uncrewable", variant.Uncrewable))
	return nil
}

func (s *FlightGenerationService) commit(ctx context.Context, run *generationRun) (err error) {
	if s.tx == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.flights.DeleteUncommittedFrom(ctx, tx, run.horizon)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear future flights")
	}
	for _, leg := range run.variant.Legs {
		aircraftID := leg.AircraftID
		flight := &models.Flight{
			TemplateID:       leg.TemplateID,
			PlannedDeparture: leg.Departure,
			PlannedArrival:   leg.Arrival,
			AircraftID:       &aircraftID,
			EmployeeIDs:      leg.EmployeeIDs,
		}
		if err = s.flights.Insert(ctx, tx, flight); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert flight")
		}
	}
	if err = s.templates.UpdateStatus(ctx, tx, run.templateIDs, models.TemplateSuccess, ""); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark templates succeeded")
	}
	if err = tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit flights")
	}

	run.report.FlightsDeleted = deleted
	run.report.FlightsCommitted = len(run.variant.Legs)
	if s.cache != nil {
		if cacheErr := s.cache.InvalidateFlightBoard(ctx); cacheErr != nil {
			run.logger.Warn("failed to invalidate flight board cache", zap.Error(cacheErr))
		}
	}
	run.logger.Info("flights committed", zap.Int64("deleted", deleted), zap.Int("inserted", len(run.variant.Legs)))
	return nil
}

// markTemplates records a failed run on its templates: the offending ones get ERROR with
// the description and the rest return to PENDING. A nil offending list marks all of them.
func (s *FlightGenerationService) markTemplates(ctx context.Context, run *generationRun, offending []string, description string) {
	ctx = context.WithoutCancel(ctx)
	if offending == nil {
		offending = run.templateIDs
	}
	bad := make(map[string]struct{}, len(offending))
	for _, id := range offending {
		bad[id] = struct{}{}
	}
	var rest []string
	for _, id := range run.templateIDs {
		if _, ok := bad[id]; !ok {
			rest = append(rest, id)
		}
	}
	if err := s.templates.UpdateStatus(ctx, nil, offending, models.TemplateError, description); err != nil {
		run.logger.Error("failed to mark templates failed", zap.Strings("template_ids", offending), zap.Error(err))
	}
	if err := s.templates.UpdateStatus(ctx, nil, rest, models.TemplatePending, ""); err != nil {
		run.logger.Error("failed to reset templates", zap.Strings("template_ids", rest), zap.Error(err))
	}
}

func devicesByAircraft(devices []models.AircraftDeviceLife) planner.DeviceSource {
	grouped := make(map[string][]models.AircraftDeviceLife)
	for _, d := range devices {
		grouped[d.AircraftID] = append(grouped[d.AircraftID], d)
	}
	return func(aircraftID string) []models.AircraftDeviceLife {
		return grouped[aircraftID]
	}
}

var schedulingFailures = []*appErrors.Error{
	appErrors.ErrScheduleConfigMissing,
	appErrors.ErrTemplateInfeasible,
	appErrors.ErrCrewInfeasible,
	appErrors.ErrScheduleInconsistent,
	appErrors.ErrNoRunways,
	appErrors.ErrGenerationTimeout,
}

func isSchedulingFailure(err error) bool {
	for _, target := range schedulingFailures {
		if appErrors.Is(err, target) {
			return true
		}
	}
	return false
}

// runStore keeps recent run reports in memory for polling.
type runStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]dto.GenerationReport
}

func newRunStore(ttl time.Duration, now func() time.Time) *runStore {
	return &runStore{
		ttl:   ttl,
		now:   now,
		items: make(map[string]dto.GenerationReport),
	}
}

func (s *runStore) Save(report dto.GenerationReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[report.RunID] = report
	s.evictLocked()
}

func (s *runStore) Get(id string) (dto.GenerationReport, bool) {
	s.mu.RLock()
	report, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.GenerationReport{}, false
	}
	if s.expired(report) {
		s.Delete(id)
		return dto.GenerationReport{}, false
	}
	return report, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}

func (s *runStore) expired(report dto.GenerationReport) bool {
	return report.FinishedAt != nil && s.now().Sub(*report.FinishedAt) > s.ttl
}

func (s *runStore) evictLocked() {
	for id, report := range s.items {
		if s.expired(report) {
			delete(s.items, id)
		}
	}
}
