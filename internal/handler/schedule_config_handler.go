package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/middleware"
	"github.com/noah-isme/route-network-api/internal/service"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/response"
)

type scheduleConfigManager interface {
	Get(ctx context.Context) (*dto.ScheduleConfigResponse, error)
	Upsert(ctx context.Context, req dto.ScheduleConfigPayload, actorID string) (*dto.ScheduleConfigResponse, error)
}

// ScheduleConfigHandler exposes the schedule configuration.
type ScheduleConfigHandler struct {
	service scheduleConfigManager
}

// NewScheduleConfigHandler constructs the handler.
func NewScheduleConfigHandler(svc *service.ScheduleConfigService) *ScheduleConfigHandler {
	return &ScheduleConfigHandler{service: svc}
}

// Get godoc
// @Summary Get schedule configuration
// @Tags Scheduling
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /schedule/config [get]
func (h *ScheduleConfigHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// Update godoc
// @Summary Replace schedule configuration
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleConfigPayload true "Configuration"
// @Success 200 {object} response.Envelope
// @Router /schedule/config [put]
func (h *ScheduleConfigHandler) Update(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ScheduleConfigPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid configuration payload"))
		return
	}
	cfg, err := h.service.Upsert(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}
