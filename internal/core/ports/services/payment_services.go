package services

import (
	"context"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
)

// PaymentReaderSvc defines read operations for payment records
type PaymentReaderSvc interface {
	// GetPaymentByID retrieves a specific payment record by ID.
	GetPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error)

	// GetPaymentsByEscrowID retrieves all payment records for an escrow.
	GetPaymentsByEscrowID(ctx context.Context, escrowID string) ([]domain.PaymentRecord, error)

	// ListPayments retrieves payment records matching the filters, using
	// token-based pagination. Returns the page and the next page token
	// (empty when there are no further pages).
	ListPayments(ctx context.Context, filters repositories.PaymentListFilters, limit int, nextToken string) ([]domain.PaymentRecord, string, error)
}

// PaymentWriterSvc defines operations that execute payouts
type PaymentWriterSvc interface {
	// ExecutePayment pays out the net amount of a RELEASED escrow to its
	// nurse. Admin-only; the batch runner's system actor is exempt from the
	// role check. The operation is idempotent per escrow: a COMPLETED payout
	// is returned as-is, a PROCESSING one is re-driven against the gateway
	// with the same idempotency key, and a FAILED one gets a fresh attempt.
	ExecutePayment(ctx context.Context, escrowID string, actorID string) (*domain.PaymentRecord, error)
}

// PaymentSvcFacade combines all payment-related service interfaces
type PaymentSvcFacade interface {
	PaymentReaderSvc
	PaymentWriterSvc
}
