package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// AuditHandler handles audit log queries.
type AuditHandler struct {
	auditService portssvc.AuditSvcFacade
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(as portssvc.AuditSvcFacade) *AuditHandler {
	return &AuditHandler{auditService: as}
}

// registerAuditRoutes sets up the admin routes for audit log access.
func registerAuditRoutes(rg *gin.RouterGroup, as portssvc.AuditSvcFacade) {
	h := NewAuditHandler(as)
	rg.GET("/audit-logs", h.ListAuditLogs)
	rg.GET("/security/users/:userID/activity", h.GetUserActivity)
}

// ListAuditLogs godoc
// @Summary List audit log entries
// @Description Admin-only. Lists audit entries newest first, filterable by actor, action, target and time range.
// @Tags audit
// @Produce json
// @Param actorID query string false "Filter by actor ID"
// @Param action query string false "Filter by action"
// @Param target query string false "Filter by target, e.g. escrow:<id>"
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListAuditLogsResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListAuditLogsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListAuditLogs", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	filters := portsrepo.AuditLogFilters{
		ActorID: params.ActorID,
		Action:  domain.AuditAction(params.Action),
		Target:  params.Target,
		Limit:   params.Limit,
		Offset:  params.Offset,
	}

	if params.From != "" {
		from, err := time.Parse(time.RFC3339, params.From)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid 'from' timestamp, expected RFC3339"})
			return
		}
		filters.From = from
	}
	if params.To != "" {
		to, err := time.Parse(time.RFC3339, params.To)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid 'to' timestamp, expected RFC3339"})
			return
		}
		filters.To = to
	}

	entries, err := h.auditService.ListAuditLogs(c.Request.Context(), filters)
	if err != nil {
		logger.Error("Failed to list audit logs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list audit logs"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListAuditLogsResponse(entries))
}

// GetUserActivity godoc
// @Summary Suspicious-activity scan for a user
// @Description Admin-only. Evaluates the standard suspicious-activity rules (failed logins, failed payouts, money-movement frequency) against the user's recent audit trail.
// @Tags audit
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} dto.ActivityReportResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/security/users/{userID}/activity [get]
func (h *AuditHandler) GetUserActivity(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID := c.Param("userID")

	checks, err := h.auditService.ScanActorActivity(c.Request.Context(), userID)
	if err != nil {
		logger.Error("Failed to scan user activity", slog.String("user_id", userID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to scan user activity"})
		return
	}

	c.JSON(http.StatusOK, dto.ToActivityReportResponse(userID, checks))
}
