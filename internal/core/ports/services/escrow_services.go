package services

import (
	"context"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// EscrowReaderSvc defines read operations for escrow transactions
type EscrowReaderSvc interface {
	// GetEscrowByID retrieves a specific escrow transaction by ID.
	GetEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error)

	// GetActiveEscrowByJobID retrieves the non-terminal escrow for a job, if any.
	GetActiveEscrowByJobID(ctx context.Context, jobID string) (*domain.EscrowTransaction, error)

	// ListEscrowsByJobID retrieves all escrow transactions for a job, newest first.
	ListEscrowsByJobID(ctx context.Context, jobID string) ([]domain.EscrowTransaction, error)
}

// EscrowWriterSvc defines state-changing operations on escrow transactions
type EscrowWriterSvc interface {
	// CreateEscrow creates an escrow for a job, charges the organizer through
	// the payment gateway and returns the escrow as FUNDED. An escrow left
	// PENDING by an interrupted attempt is resumed on the next call.
	CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest, creatorUserID string) (*domain.EscrowTransaction, error)

	// ReleaseEscrow moves the escrow FUNDED -> RELEASED, making it eligible
	// for payout execution. Admin-only; the batch runner's system actor is
	// exempt from the role check.
	ReleaseEscrow(ctx context.Context, escrowID string, actorID string) (*domain.EscrowTransaction, error)

	// RefundEscrow moves the escrow FUNDED -> REFUNDED and refunds the
	// organizer, minus any non-refundable processor fee. Admin-only.
	RefundEscrow(ctx context.Context, escrowID string, reason string, actorID string) (*domain.EscrowTransaction, error)
}

// EscrowSvcFacade combines all escrow-related service interfaces
type EscrowSvcFacade interface {
	EscrowReaderSvc
	EscrowWriterSvc
}
