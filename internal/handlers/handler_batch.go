package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// BatchHandler exposes the scheduled payout batch runner over HTTP. The same
// handler backs the admin endpoint and the cron-secret internal endpoint.
type BatchHandler struct {
	batchService portssvc.BatchPayoutSvc
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(bs portssvc.BatchPayoutSvc) *BatchHandler {
	return &BatchHandler{batchService: bs}
}

// registerAdminBatchRoutes sets up the admin-facing batch routes.
func registerAdminBatchRoutes(rg *gin.RouterGroup, bs portssvc.BatchPayoutSvc) {
	h := NewBatchHandler(bs)
	rg.POST("/payouts/run", h.RunPayouts)
}

// registerCronBatchRoutes sets up the batch routes for external schedulers.
func registerCronBatchRoutes(rg *gin.RouterGroup, bs portssvc.BatchPayoutSvc) {
	h := NewBatchHandler(bs)
	rg.POST("/payouts/run", h.RunPayouts)
}

// RunPayouts godoc
// @Summary Run the scheduled payout batch
// @Description Releases and pays out every job completed before the grace-period cutoff whose escrow is still funded and undisputed. Safe to re-run.
// @Tags batch
// @Produce json
// @Success 200 {object} dto.BatchPayoutReport
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/payouts/run [post]
func (h *BatchHandler) RunPayouts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.batchService.RunScheduledPayouts(c.Request.Context(), time.Now().UTC())
	if err != nil {
		logger.Error("Payout batch run failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Payout batch run failed"})
		return
	}

	c.JSON(http.StatusOK, report)
}
