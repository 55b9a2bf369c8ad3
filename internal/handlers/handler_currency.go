package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// CurrencyHandler handles currency related requests.
type CurrencyHandler struct {
	currencyService portssvc.CurrencySvcFacade
}

// NewCurrencyHandler creates a new CurrencyHandler.
func NewCurrencyHandler(cs portssvc.CurrencySvcFacade) *CurrencyHandler {
	return &CurrencyHandler{currencyService: cs}
}

// registerCurrencyRoutes sets up the routes for currency management.
func registerCurrencyRoutes(rg *gin.RouterGroup, cs portssvc.CurrencySvcFacade) {
	h := NewCurrencyHandler(cs)

	currencies := rg.Group("/currencies")
	{
		currencies.GET("", h.ListCurrencies)
		currencies.GET("/:code", h.GetCurrency)
		currencies.POST("", middleware.RequireRole(domain.RoleAdmin), h.CreateCurrency)
	}
}

// ListCurrencies godoc
// @Summary List available currencies
// @Tags currencies
// @Produce json
// @Success 200 {array} dto.CurrencyResponse
// @Security BearerAuth
// @Router /currencies [get]
func (h *CurrencyHandler) ListCurrencies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currencies, err := h.currencyService.ListCurrencies(c.Request.Context())
	if err != nil {
		logger.Error("Failed to list currencies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list currencies"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(currencies))
}

// GetCurrency godoc
// @Summary Get a currency by code
// @Tags currencies
// @Produce json
// @Param code path string true "Currency code (e.g. JPY)"
// @Success 200 {object} dto.CurrencyResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /currencies/{code} [get]
func (h *CurrencyHandler) GetCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	currency, err := h.currencyService.GetCurrencyByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "Currency not found"})
			return
		}
		logger.Error("Failed to get currency", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to get currency"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrencyResponse(currency))
}

// CreateCurrency godoc
// @Summary Create a currency
// @Description Admin-only. Registers a currency with its minor-unit exponent.
// @Tags currencies
// @Accept json
// @Produce json
// @Param currency body dto.CreateCurrencyRequest true "Currency details"
// @Success 201 {object} dto.CurrencyResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /currencies [post]
func (h *CurrencyHandler) CreateCurrency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req dto.CreateCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateCurrency", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}

	currency, err := h.currencyService.CreateCurrency(c.Request.Context(), req, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Currency already exists"})
			return
		}
		logger.Error("Failed to create currency", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create currency"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToCurrencyResponse(currency))
}
