package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/models"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
)

type scheduleConfigStore interface {
	Get(ctx context.Context) (*models.ScheduleConfig, error)
	Upsert(ctx context.Context, cfg *models.ScheduleConfig) error
}

// ScheduleConfigService reads and replaces the schedule configuration row.
type ScheduleConfigService struct {
	repo      scheduleConfigStore
	cache     boardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleConfigService constructs the service.
func NewScheduleConfigService(repo scheduleConfigStore, cache boardInvalidator, validate *validator.Validate, logger *zap.Logger) *ScheduleConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleConfigService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// Get returns the stored configuration.
func (s *ScheduleConfigService) Get(ctx context.Context) (*dto.ScheduleConfigResponse, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrScheduleConfigMissing, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule configuration")
	}
	return configResponse(cfg), nil
}

// Upsert validates and stores the configuration. Thresholds change flight labels, so the
// cached board is dropped.
func (s *ScheduleConfigService) Upsert(ctx context.Context, req dto.ScheduleConfigPayload, actorID string) (*dto.ScheduleConfigResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule configuration payload")
	}
	cfg, err := configFromPayload(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.repo.Upsert(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule configuration")
	}
	if s.cache != nil {
		if err := s.cache.InvalidateFlightBoard(ctx); err != nil {
			s.logger.Warn("flight board invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("schedule configuration updated",
		zap.String("actor_id", actorID),
		zap.Int("max_attempts", cfg.MaxFlightGenerationAttempts),
		zap.Duration("generation_timeout", cfg.FlightGenerationTimeout))
	return configResponse(cfg), nil
}

func configFromPayload(req dto.ScheduleConfigPayload) (*models.ScheduleConfig, error) {
	cfg := &models.ScheduleConfig{MaxFlightGenerationAttempts: req.MaxFlightGenerationAttempts}
	fields := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"showPastFlightsTime", req.ShowPastFlightsTime, &cfg.ShowPastFlightsTime},
		{"showFutureFlightsTime", req.ShowFutureFlightsTime, &cfg.ShowFutureFlightsTime},
		{"warningScheduleDelayTime", req.WarningScheduleDelayTime, &cfg.WarningScheduleDelayTime},
		{"warningArrivalDelayTime", req.WarningArrivalDelayTime, &cfg.WarningArrivalDelayTime},
		{"warningArrivalShiftedTime", req.WarningArrivalShiftedTime, &cfg.WarningArrivalShiftedTime},
		{"minBetweenFlightsDelay", req.MinBetweenFlightsDelay, &cfg.MinBetweenFlightsDelay},
		{"flightGenerationTimeout", req.FlightGenerationTimeout, &cfg.FlightGenerationTimeout},
	}
	for _, f := range fields {
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid duration %q", f.name, f.raw)
		}
		if d < 0 {
			return nil, fmt.Errorf("%s must not be negative", f.name)
		}
		// stored as whole seconds
		if d%time.Second != 0 {
			return nil, fmt.Errorf("%s must be a whole number of seconds", f.name)
		}
		*f.target = d
	}
	if cfg.FlightGenerationTimeout == 0 {
		return nil, fmt.Errorf("flightGenerationTimeout must be positive")
	}
	return cfg, nil
}

func configResponse(cfg *models.ScheduleConfig) *dto.ScheduleConfigResponse {
	return &dto.ScheduleConfigResponse{
		ScheduleConfigPayload: dto.ScheduleConfigPayload{
			ShowPastFlightsTime:         cfg.ShowPastFlightsTime.String(),
			ShowFutureFlightsTime:       cfg.ShowFutureFlightsTime.String(),
			WarningScheduleDelayTime:    cfg.WarningScheduleDelayTime.String(),
			WarningArrivalDelayTime:     cfg.WarningArrivalDelayTime.String(),
			WarningArrivalShiftedTime:   cfg.WarningArrivalShiftedTime.String(),
			MinBetweenFlightsDelay:      cfg.MinBetweenFlightsDelay.String(),
			MaxFlightGenerationAttempts: cfg.MaxFlightGenerationAttempts,
			FlightGenerationTimeout:     cfg.FlightGenerationTimeout.String(),
		},
		UpdatedAt: cfg.UpdatedAt,
	}
}
