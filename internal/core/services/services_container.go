package services

import (
	"time"

	"github.com/shopspring/decimal"

	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/utils/fees"
	"github.com/shiftnurse/escrow_backend/pkg/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, gateway portssvc.PaymentGateway, telemetry portssvc.Telemetry) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Audit first since nearly everything else reports into it
	container.Audit = NewAuditService(repos.AuditRepo, telemetry)

	feeSchedule := fees.DefaultSchedule()
	feeSchedule.PlatformRate = decimal.NewFromFloat(cfg.PlatformFeePercent).Div(decimal.NewFromInt(100))

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.User = NewUserService(repos.UserRepo, container.Audit)
	container.Job = NewJobService(repos.JobRepo, repos.UserRepo, container.Audit)
	container.Escrow = NewEscrowService(repos.EscrowRepo, repos.JobRepo, container.Currency, container.User, gateway, container.Audit, feeSchedule)
	container.Payment = NewPaymentService(repos.PaymentRepo, repos.EscrowRepo, container.User, gateway, container.Audit)
	container.Batch = NewBatchService(
		repos.JobRepo,
		repos.EscrowRepo,
		container.Escrow,
		container.Payment,
		container.Audit,
		time.Duration(cfg.PayoutGracePeriodDays)*24*time.Hour,
	)
	container.Reporting = NewReportingService(repos.PaymentRepo)
	container.Token = NewTokenService(cfg.JWTSecret, cfg.JWTExpiryDuration, cfg.JWTIssuer)

	return container
}
