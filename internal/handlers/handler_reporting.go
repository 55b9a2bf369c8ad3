package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// ReportingHandler handles admin reporting queries.
type ReportingHandler struct {
	reportingService portssvc.ReportingService
}

// NewReportingHandler creates a new ReportingHandler.
func NewReportingHandler(rs portssvc.ReportingService) *ReportingHandler {
	return &ReportingHandler{reportingService: rs}
}

// registerReportingRoutes sets up the admin-gated payout summary route.
func registerReportingRoutes(rg *gin.RouterGroup, rs portssvc.ReportingService) {
	h := NewReportingHandler(rs)
	rg.GET("/payments/summary", middleware.RequireRole(domain.RoleAdmin), h.GetPayoutSummary)
}

// GetPayoutSummary godoc
// @Summary Payout summary for a period
// @Description Admin-only. Aggregates completed payouts and collected fees between two timestamps.
// @Tags reports
// @Produce json
// @Param from query string true "Range start (RFC3339)"
// @Param to query string true "Range end (RFC3339)"
// @Success 200 {object} dto.PayoutSummaryResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/summary [get]
func (h *ReportingHandler) GetPayoutSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.PayoutSummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for GetPayoutSummary", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	from, err := time.Parse(time.RFC3339, params.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid 'from' timestamp, expected RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, params.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid 'to' timestamp, expected RFC3339"})
		return
	}
	if !to.After(from) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "'to' must be after 'from'"})
		return
	}

	summary, err := h.reportingService.GetPayoutSummary(c.Request.Context(), from, to)
	if err != nil {
		logger.Error("Failed to build payout summary", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to build payout summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}
