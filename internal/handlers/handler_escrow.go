package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	coresvc "github.com/shiftnurse/escrow_backend/internal/core/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// EscrowHandler handles escrow lifecycle requests.
type EscrowHandler struct {
	escrowService  portssvc.EscrowSvcFacade
	paymentService portssvc.PaymentSvcFacade
}

// NewEscrowHandler creates a new EscrowHandler.
func NewEscrowHandler(es portssvc.EscrowSvcFacade, ps portssvc.PaymentSvcFacade) *EscrowHandler {
	return &EscrowHandler{
		escrowService:  es,
		paymentService: ps,
	}
}

// registerEscrowRoutes sets up the routes for escrow management.
func registerEscrowRoutes(rg *gin.RouterGroup, es portssvc.EscrowSvcFacade, ps portssvc.PaymentSvcFacade) {
	h := NewEscrowHandler(es, ps)

	escrows := rg.Group("/escrows")
	{
		escrows.POST("", h.CreateEscrow)
		escrows.GET("/:escrowID", h.GetEscrow)
		escrows.GET("/:escrowID/payments", h.GetEscrowPayments)
		escrows.POST("/:escrowID/release", h.ReleaseEscrow)
		escrows.POST("/:escrowID/refund", h.RefundEscrow)
	}

	jobEscrows := rg.Group("/jobs/:jobID/escrows")
	{
		jobEscrows.GET("", h.ListEscrowsByJob)
	}
}

// CreateEscrow godoc
// @Summary Create and fund an escrow transaction
// @Description Creates an escrow for an assigned job, charges the organizer through the payment gateway and returns the escrow as FUNDED. Fees are computed server-side from the gross amount.
// @Tags escrows
// @Accept json
// @Produce json
// @Param escrow body dto.CreateEscrowRequest true "Escrow details"
// @Success 201 {object} dto.EscrowResponse
// @Failure 400 {object} ErrorResponse
// @Failure 402 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /escrows [post]
func (h *EscrowHandler) CreateEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req dto.CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateEscrow", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	esc, err := h.escrowService.CreateEscrow(c.Request.Context(), req, userID)
	if err != nil {
		h.respondEscrowError(c, "Failed to create escrow", err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEscrowResponse(esc))
}

// GetEscrow godoc
// @Summary Get an escrow transaction by ID
// @Tags escrows
// @Produce json
// @Param escrowID path string true "Escrow ID"
// @Success 200 {object} dto.EscrowResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /escrows/{escrowID} [get]
func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	escrowID := c.Param("escrowID")

	esc, err := h.escrowService.GetEscrowByID(c.Request.Context(), escrowID)
	if err != nil {
		h.respondEscrowError(c, "Failed to get escrow", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEscrowResponse(esc))
}

// GetEscrowPayments godoc
// @Summary List payout attempts for an escrow
// @Tags escrows
// @Produce json
// @Param escrowID path string true "Escrow ID"
// @Success 200 {array} dto.PaymentResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /escrows/{escrowID}/payments [get]
func (h *EscrowHandler) GetEscrowPayments(c *gin.Context) {
	escrowID := c.Param("escrowID")

	payments, err := h.paymentService.GetPaymentsByEscrowID(c.Request.Context(), escrowID)
	if err != nil {
		h.respondEscrowError(c, "Failed to list payments", err)
		return
	}

	res := make([]dto.PaymentResponse, len(payments))
	for i := range payments {
		res[i] = dto.ToPaymentResponse(&payments[i])
	}
	c.JSON(http.StatusOK, res)
}

// ReleaseEscrow godoc
// @Summary Release an escrow and execute the payout
// @Description Moves the escrow FUNDED -> RELEASED and then attempts the payout to the nurse. Admin-only. A payout that cannot complete immediately is retried by the scheduled batch.
// @Tags escrows
// @Produce json
// @Param escrowID path string true "Escrow ID"
// @Success 200 {object} dto.ReleaseEscrowResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /escrows/{escrowID}/release [post]
func (h *EscrowHandler) ReleaseEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	escrowID := c.Param("escrowID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	esc, err := h.escrowService.ReleaseEscrow(c.Request.Context(), escrowID, userID)
	if err != nil {
		h.respondEscrowError(c, "Failed to release escrow", err)
		return
	}

	res := dto.ReleaseEscrowResponse{Escrow: dto.ToEscrowResponse(esc)}

	payment, err := h.paymentService.ExecutePayment(c.Request.Context(), escrowID, userID)
	switch {
	case err == nil:
		pr := dto.ToPaymentResponse(payment)
		res.Payment = &pr
		res.PayoutStatus = string(domain.PaymentCompleted)
	case errors.Is(err, coresvc.ErrPayoutPending):
		logger.Warn("Payout left pending after release", slog.String("escrowID", escrowID))
		res.PayoutStatus = string(domain.PaymentProcessing)
	default:
		logger.Warn("Payout failed after release",
			slog.String("escrowID", escrowID), slog.String("error", err.Error()))
		res.PayoutStatus = string(domain.PaymentFailed)
	}

	c.JSON(http.StatusOK, res)
}

// RefundEscrow godoc
// @Summary Refund an escrow
// @Description Moves the escrow FUNDED -> REFUNDED and refunds the organizer minus the non-refundable processor fee. Admin-only.
// @Tags escrows
// @Accept json
// @Produce json
// @Param escrowID path string true "Escrow ID"
// @Param refund body dto.RefundEscrowRequest true "Refund reason"
// @Success 200 {object} dto.EscrowResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /escrows/{escrowID}/refund [post]
func (h *EscrowHandler) RefundEscrow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	escrowID := c.Param("escrowID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req dto.RefundEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RefundEscrow", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	esc, err := h.escrowService.RefundEscrow(c.Request.Context(), escrowID, req.Reason, userID)
	if err != nil {
		h.respondEscrowError(c, "Failed to refund escrow", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEscrowResponse(esc))
}

// ListEscrowsByJob godoc
// @Summary List escrow transactions for a job
// @Tags escrows
// @Produce json
// @Param jobID path string true "Job ID"
// @Success 200 {array} dto.EscrowResponse
// @Security BearerAuth
// @Router /jobs/{jobID}/escrows [get]
func (h *EscrowHandler) ListEscrowsByJob(c *gin.Context) {
	jobID := c.Param("jobID")

	escrows, err := h.escrowService.ListEscrowsByJobID(c.Request.Context(), jobID)
	if err != nil {
		h.respondEscrowError(c, "Failed to list escrows", err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListEscrowResponse(escrows))
}

func (h *EscrowHandler) respondEscrowError(c *gin.Context, msg string, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Escrow or job not found"})
	case errors.Is(err, coresvc.ErrNotJobOrganizer):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not allowed"})
	case errors.Is(err, apperrors.ErrGatewayDeclined):
		c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payment gateway unavailable, try again later"})
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, coresvc.ErrEscrowNotFunded),
		errors.Is(err, coresvc.ErrJobNotAssigned),
		errors.Is(err, coresvc.ErrJobCancelled):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
	}
}
