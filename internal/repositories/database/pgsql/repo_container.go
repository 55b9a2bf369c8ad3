package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	escrowRepo := newPgxEscrowRepository(dbPool)
	paymentRepo := newPgxPaymentRepository(dbPool)
	auditRepo := newPgxAuditLogRepository(dbPool)
	jobRepo := newPgxJobRepository(dbPool)
	userRepo := newPgxUserRepository(dbPool)
	currencyRepo := newPgxCurrencyRepository(dbPool)

	return portsrepo.RepositoryProvider{
		EscrowRepo:   escrowRepo,
		PaymentRepo:  paymentRepo,
		AuditRepo:    auditRepo,
		JobRepo:      jobRepo,
		UserRepo:     userRepo,
		CurrencyRepo: currencyRepo,
	}
}
