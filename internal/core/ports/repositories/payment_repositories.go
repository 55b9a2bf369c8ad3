package repositories

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentListFilters narrows a payout-history listing.
type PaymentListFilters struct {
	NurseID  string
	EscrowID string
	Status   domain.PaymentStatus
}

// PayoutSummary aggregates payout history for admin review.
type PayoutSummary struct {
	TotalCompleted     decimal.Decimal
	TotalPlatformFees  decimal.Decimal
	TotalProcessorFees decimal.Decimal
	CountByStatus      map[domain.PaymentStatus]int64
}

// PaymentReader defines read operations for payment records
type PaymentReader interface {
	// FindPaymentByID retrieves a specific payment record.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error)

	// FindPaymentsByEscrowID retrieves every payout attempt for an escrow, oldest first.
	FindPaymentsByEscrowID(ctx context.Context, escrowID string) ([]domain.PaymentRecord, error)

	// ListPayments retrieves a filtered, token-paginated payout history,
	// newest first. Returns the records, a token for the next page, and an error.
	ListPayments(ctx context.Context, filters PaymentListFilters, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error)
}

// PaymentWriter defines write operations for payment records
type PaymentWriter interface {
	// SavePayment persists a new payment record.
	SavePayment(ctx context.Context, payment domain.PaymentRecord) error

	// UpdatePaymentOutcome moves a non-terminal payment record to its outcome.
	// Terminal records are never updated; the conditional update matches only
	// rows still in the expected status and returns apperrors.ErrConflict when
	// the record has already reached a terminal state.
	UpdatePaymentOutcome(ctx context.Context, paymentID string, expected, next domain.PaymentStatus, gatewayRef, failureReason string, executedAt *time.Time, updatedBy string, updatedAt time.Time) error
}

// ReportingReader defines aggregate read operations over payout history
type ReportingReader interface {
	// GetPayoutSummary aggregates payment records between from and to (inclusive).
	GetPayoutSummary(ctx context.Context, from, to time.Time) (*PayoutSummary, error)
}

// PaymentRepositoryFacade combines all payment-related repository interfaces
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
	ReportingReader
}
