// Package app assembles repositories and services from configuration. It is shared by the
// HTTP gateway and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/route-network-api/internal/repository"
	"github.com/noah-isme/route-network-api/internal/service"
	"github.com/noah-isme/route-network-api/pkg/cache"
	"github.com/noah-isme/route-network-api/pkg/config"
	"github.com/noah-isme/route-network-api/pkg/database"
	"github.com/noah-isme/route-network-api/pkg/jobs"
)

// App holds the wired services and the connections they share.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB      *sqlx.DB
	Cache   *repository.CacheRepository
	Metrics *service.MetricsService

	Generation     *service.FlightGenerationService
	Health         *service.FlightHealthService
	ScheduleConfig *service.ScheduleConfigService
	Tokens         *service.TokenService

	queue *jobs.Queue
}

// New connects to Postgres and Redis and builds every service. Redis is optional: when it
// cannot be reached the flight board is served uncached.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if cfg.Database.AutoMigrate {
		version, err := database.Migrate(db.DB)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("database schema migrated", zap.Uint("version", version))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, flight board cache disabled", zap.Error(err))
		redisClient = nil
	}

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheRepo := repository.NewCacheRepository(redisClient, logger)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Health.CacheTTL, logger, redisClient != nil)

	aircraftRepo := repository.NewAircraftRepository(db)
	airportRepo := repository.NewAirportRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	flightRepo := repository.NewFlightRepository(db).WithObserver(metrics)
	templateRepo := repository.NewRouteTemplateRepository(db)
	configRepo := repository.NewScheduleConfigRepository(db).WithObserver(metrics)

	generation := service.NewFlightGenerationService(
		configRepo,
		templateRepo,
		flightRepo,
		aircraftRepo,
		employeeRepo,
		airportRepo,
		cacheSvc,
		db,
		metrics,
		logger.Named("generation"),
		service.FlightGenerationConfig{
			HomeBaseIATA:   cfg.Scheduler.HomeBaseIATA,
			Seed:           cfg.Scheduler.Seed,
			Parallelism:    cfg.Scheduler.Parallelism,
			EquipmentGate:  cfg.Scheduler.EquipmentGate,
			ServiceBuffer:  cfg.Scheduler.ServiceBuffer,
			VariantRanking: cfg.Scheduler.VariantRanking,
			RunTTL:         cfg.Scheduler.RunTTL,
		},
	)

	health := service.NewFlightHealthService(
		configRepo,
		flightRepo,
		employeeRepo,
		aircraftRepo,
		cacheSvc,
		metrics,
		validate,
		logger.Named("health"),
		service.FlightHealthConfig{
			CacheTTL: cfg.Health.CacheTTL,
		},
	)

	return &App{
		Config:         cfg,
		Logger:         logger,
		DB:             db,
		Cache:          cacheRepo,
		Metrics:        metrics,
		Generation:     generation,
		Health:         health,
		ScheduleConfig: service.NewScheduleConfigService(configRepo, cacheSvc, validate, logger.Named("config")),
		Tokens:         service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
	}, nil
}

// StartQueue runs queued generation jobs in the background until ctx is cancelled or
// Close is called.
func (a *App) StartQueue(ctx context.Context) {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info("flight generation queue disabled")
		return
	}
	queueLogger := a.Logger.Named("queue")
	a.queue = jobs.NewQueue(service.JobTypeFlightGeneration, a.Generation.HandleJob, jobs.QueueConfig{
		// generation runs must never overlap
		Workers:    1,
		MaxRetries: a.Config.Scheduler.QueueRetries,
		RetryDelay: a.Config.Scheduler.RetryDelay,
		Logger:     queueLogger,
		OnExhaust: func(job jobs.Job, err error) {
			queueLogger.Error("generation run abandoned",
				zap.String("run_id", job.ID),
				zap.Int("attempt", job.Attempt),
				zap.Error(err))
		},
	})
	a.queue.Start(ctx)
	a.Generation.AttachQueue(a.queue)
}

// Close stops the queue and releases connections.
func (a *App) Close() error {
	if a.queue != nil {
		a.queue.Stop()
	}
	var errs []error
	if err := a.Cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close redis: %w", err))
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close postgres: %w", err))
	}
	return errors.Join(errs...)
}
