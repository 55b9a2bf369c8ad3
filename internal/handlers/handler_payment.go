package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	coresvc "github.com/shiftnurse/escrow_backend/internal/core/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// PaymentHandler handles payout record requests.
type PaymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps portssvc.PaymentSvcFacade) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// registerPaymentRoutes sets up the routes for payment records.
func registerPaymentRoutes(rg *gin.RouterGroup, ps portssvc.PaymentSvcFacade) {
	h := NewPaymentHandler(ps)

	payments := rg.Group("/payments")
	{
		payments.GET("", h.ListPayments)
		payments.GET("/:paymentID", h.GetPayment)
	}

	// Executes (or retries) the payout for a released escrow.
	rg.POST("/escrows/:escrowID/payments", h.ExecutePayment)
}

// ListPayments godoc
// @Summary List payment records
// @Description Lists payment records newest first, filterable by nurse, escrow and status. Uses token-based pagination.
// @Tags payments
// @Produce json
// @Param nurseID query string false "Filter by nurse ID"
// @Param escrowID query string false "Filter by escrow ID"
// @Param status query string false "Filter by payment status"
// @Param limit query int false "Page size" default(20)
// @Param nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListPaymentsResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListPayments", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	filters := portsrepo.PaymentListFilters{
		NurseID:  params.NurseID,
		EscrowID: params.EscrowID,
		Status:   domain.PaymentStatus(params.Status),
	}

	payments, nextToken, err := h.paymentService.ListPayments(c.Request.Context(), filters, params.Limit, params.NextToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error("Failed to list payments", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListPaymentsResponse(payments, nextToken))
}

// GetPayment godoc
// @Summary Get a payment record by ID
// @Tags payments
// @Produce json
// @Param paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /payments/{paymentID} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	payment, err := h.paymentService.GetPaymentByID(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Payment not found"})
			return
		}
		logger.Error("Failed to get payment", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get payment"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// ExecutePayment godoc
// @Summary Execute the payout for a released escrow
// @Description Pays out the net amount of a RELEASED escrow to its nurse. Admin-only. Idempotent per escrow: repeat calls return the completed payout.
// @Tags payments
// @Produce json
// @Param escrowID path string true "Escrow ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 402 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Security BearerAuth
// @Router /escrows/{escrowID}/payments [post]
func (h *PaymentHandler) ExecutePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	escrowID := c.Param("escrowID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	payment, err := h.paymentService.ExecutePayment(c.Request.Context(), escrowID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrForbidden):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "Not allowed"})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Escrow not found"})
		case errors.Is(err, coresvc.ErrEscrowNotReleased), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
		case errors.Is(err, apperrors.ErrGatewayDeclined):
			c.JSON(http.StatusPaymentRequired, ErrorResponse{Error: err.Error()})
		case errors.Is(err, coresvc.ErrPayoutPending), errors.Is(err, apperrors.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Payout outcome unknown, retry later"})
		default:
			logger.Error("Failed to execute payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to execute payment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}
