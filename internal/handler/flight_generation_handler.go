package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/service"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/response"
)

type flightGenerator interface {
	Submit(ctx context.Context, req dto.GenerateRequest) (*dto.GenerationRunResponse, error)
	GetRun(ctx context.Context, id string) (*dto.GenerationReport, error)
}

// FlightGenerationHandler exposes generation run endpoints.
type FlightGenerationHandler struct {
	service flightGenerator
}

// NewFlightGenerationHandler constructs the handler.
func NewFlightGenerationHandler(svc *service.FlightGenerationService) *FlightGenerationHandler {
	return &FlightGenerationHandler{service: svc}
}

// Generate godoc
// @Summary Queue a flight generation run
// @Description Derives flights from active route templates starting at horizonStart (now when omitted), assigns aircraft and crew and commits them. Poll the returned run id for the outcome.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.GenerateRequest false "Generation horizon"
// @Success 202 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /schedule/generate [post]
func (h *FlightGenerationHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
			return
		}
	}
	run, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, run)
}

// Run godoc
// @Summary Get a generation run report
// @Tags Scheduling
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule/runs/{id} [get]
func (h *FlightGenerationHandler) Run(c *gin.Context) {
	report, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}
