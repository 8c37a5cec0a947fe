package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/route-network-api/internal/dto"
	"github.com/noah-isme/route-network-api/internal/service"
	appErrors "github.com/noah-isme/route-network-api/pkg/errors"
	"github.com/noah-isme/route-network-api/pkg/export"
	"github.com/noah-isme/route-network-api/pkg/response"
)

type flightHealthReader interface {
	Board(ctx context.Context) (*dto.FlightBoard, error)
	Check(ctx context.Context, req dto.CheckRequest) ([]dto.FlightStatusItem, error)
	Export(ctx context.Context, format string) (*export.Document, error)
	EmployeeLocation(ctx context.Context, employeeID string, at time.Time) (*dto.EmployeeLocationResponse, error)
}

// FlightHealthHandler exposes the flight board.
type FlightHealthHandler struct {
	service flightHealthReader
}

// NewFlightHealthHandler constructs the handler.
func NewFlightHealthHandler(svc *service.FlightHealthService) *FlightHealthHandler {
	return &FlightHealthHandler{service: svc}
}

// Board godoc
// @Summary Flight board with compatibility labels
// @Tags Flights
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /flights/health [get]
func (h *FlightHealthHandler) Board(c *gin.Context) {
	board, err := h.service.Board(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board.Flights, map[string]interface{}{
		"from":        board.From,
		"to":          board.To,
		"generatedAt": board.GeneratedAt,
		"summary":     board.Summary,
	})
}

// Check godoc
// @Summary Compatibility labels for selected flights
// @Tags Flights
// @Accept json
// @Produce json
// @Param payload body dto.CheckRequest true "Flight ids"
// @Success 200 {object} response.Envelope
// @Router /flights/health/check [post]
func (h *FlightHealthHandler) Check(c *gin.Context) {
	var req dto.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check payload"))
		return
	}
	items, err := h.service.Check(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Export godoc
// @Summary Download the flight board
// @Tags Flights
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /flights/health/export [get]
func (h *FlightHealthHandler) Export(c *gin.Context) {
	doc, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

// EmployeeLocation godoc
// @Summary Planned location of an employee
// @Tags Flights
// @Produce json
// @Param id path string true "Employee ID"
// @Param at query string false "RFC3339 instant, defaults to now"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/location [get]
func (h *FlightHealthHandler) EmployeeLocation(c *gin.Context) {
	var at time.Time
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "at must be an RFC3339 timestamp"))
			return
		}
		at = parsed.UTC()
	}
	loc, err := h.service.EmployeeLocation(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loc)
}
