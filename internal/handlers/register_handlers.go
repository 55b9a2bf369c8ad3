package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/shiftnurse/escrow_backend/cmd/docs"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
	"github.com/shiftnurse/escrow_backend/pkg/config"
)

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// registerCustomValidators adds the currency_code binding rule used by the
// escrow and currency request DTOs.
func registerCustomValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
			return currencyCodePattern.MatchString(fl.Field().String())
		})
	}
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	registerCustomValidators()

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	// Register public authentication routes
	registerAuthRoutes(r, cfg, services)

	// Internal scheduler endpoint, guarded by the shared cron secret rather
	// than user auth
	registerInternalRoutes(r, cfg, services)

	// Setup API v1 routes with Auth Middleware, passing service interfaces
	setupAPIV1Routes(r, cfg, services)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Apply AuthMiddleware to the entire v1 group
	v1 := r.Group("/api/v1", middleware.AuthMiddleware(cfg.JWTSecret))

	// Delegate route registration to specific handlers, passing required services
	registerUserRoutes(v1, services.User)
	registerCurrencyRoutes(v1, services.Currency)
	registerJobRoutes(v1, services.Job)
	registerEscrowRoutes(v1, services.Escrow, services.Payment)
	registerPaymentRoutes(v1, services.Payment)
	registerReportingRoutes(v1, services.Reporting)

	// Admin-only surface
	admin := v1.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	registerAdminBatchRoutes(admin, services.Batch)
	registerAuditRoutes(admin, services.Audit)
}

// registerInternalRoutes wires endpoints called by external schedulers.
func registerInternalRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	internal := r.Group("/internal", middleware.CronAuthMiddleware(cfg.CronSharedSecret))
	registerCronBatchRoutes(internal, services.Batch)
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	// Swagger setup
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
