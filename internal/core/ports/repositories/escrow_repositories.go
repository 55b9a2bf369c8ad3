package repositories

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// EscrowReader defines read operations for escrow data
type EscrowReader interface {
	// FindEscrowByID retrieves a specific escrow by its unique identifier.
	FindEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error)

	// FindActiveEscrowByJobID retrieves the single non-terminal escrow for a job, if any.
	FindActiveEscrowByJobID(ctx context.Context, jobID string) (*domain.EscrowTransaction, error)

	// FindEscrowsByJobID retrieves every escrow ever created for a job, newest first.
	FindEscrowsByJobID(ctx context.Context, jobID string) ([]domain.EscrowTransaction, error)
}

// EscrowWriter defines write operations for escrow data
type EscrowWriter interface {
	// SaveEscrow persists a new escrow and its funding audit entry within one
	// database transaction. Returns apperrors.ErrDuplicate when an active
	// escrow already exists for the job.
	SaveEscrow(ctx context.Context, escrow domain.EscrowTransaction, auditEntry domain.AuditLogEntry) error

	// TransitionEscrowStatus performs the compare-and-swap status update: the
	// row moves from expected to next only if its current status still equals
	// expected, and the audit entry is written in the same database
	// transaction. chargeRef is stored when moving to FUNDED, refundReason
	// when moving to REFUNDED; released_at and refunded_at are stamped from
	// at according to next. Returns apperrors.ErrConflict when the
	// conditional update matches no row but the escrow exists,
	// apperrors.ErrNotFound otherwise.
	TransitionEscrowStatus(ctx context.Context, escrowID string, expected, next domain.EscrowStatus, chargeRef, refundReason string, actorID string, at time.Time, auditEntry domain.AuditLogEntry) error
}

// EscrowRepositoryFacade combines all escrow-related repository interfaces
type EscrowRepositoryFacade interface {
	EscrowReader
	EscrowWriter
}

// EscrowRepositoryWithTx extends EscrowRepositoryFacade with transaction capabilities
type EscrowRepositoryWithTx interface {
	EscrowRepositoryFacade
	TransactionManager
}
