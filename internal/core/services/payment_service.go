package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

var (
	ErrEscrowNotReleased = errors.New("escrow is not in RELEASED status")
	ErrPayoutPending     = errors.New("payout outcome unknown, record left in PROCESSING for retry")
)

// paymentService executes nurse payouts for released escrows.
type paymentService struct {
	paymentRepo portsrepo.PaymentRepositoryFacade
	escrowRepo  portsrepo.EscrowReader
	authz       portssvc.RoleAuthorizer
	gateway     portssvc.PaymentGateway
	auditSvc    portssvc.AuditLoggerSvc
}

// NewPaymentService creates a new payment service.
func NewPaymentService(paymentRepo portsrepo.PaymentRepositoryFacade, escrowRepo portsrepo.EscrowReader, authz portssvc.RoleAuthorizer, gateway portssvc.PaymentGateway, auditSvc portssvc.AuditLoggerSvc) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo: paymentRepo,
		escrowRepo:  escrowRepo,
		authz:       authz,
		gateway:     gateway,
		auditSvc:    auditSvc,
	}
}

// Ensure paymentService implements the portssvc.PaymentSvcFacade interface
var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// ExecutePayment pays out the net amount of a RELEASED escrow to its nurse.
// Only admins and the batch runner may execute payouts.
//
// The operation is idempotent per escrow. The gateway idempotency key is
// derived from the escrow ID alone, so regardless of how many records exist
// or which caller retries, the gateway can move money at most once:
//   - an existing COMPLETED record is returned as-is, with no gateway call
//   - an existing PROCESSING record is re-driven against the gateway with
//     the same key to learn the true outcome
//   - FAILED records are never mutated; a retry creates a fresh record
func (s *paymentService) ExecutePayment(ctx context.Context, escrowID string, actorID string) (*domain.PaymentRecord, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if actorID != domain.SystemActorID {
		if err := s.authz.AuthorizeRole(ctx, actorID, domain.RoleAdmin); err != nil {
			return nil, err
		}
	}

	escrow, err := s.escrowRepo.FindEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load escrow %s: %w", escrowID, err)
	}
	if escrow.Status != domain.EscrowReleased {
		return nil, fmt.Errorf("%w: %w (current status %s)", apperrors.ErrConflict, ErrEscrowNotReleased, escrow.Status)
	}

	attempts, err := s.paymentRepo.FindPaymentsByEscrowID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment history for escrow %s: %w", escrowID, err)
	}

	var inFlight *domain.PaymentRecord
	for i := range attempts {
		switch attempts[i].Status {
		case domain.PaymentCompleted:
			// Already paid. Return the existing record untouched.
			logger.Info("Payout already completed", slog.String("escrow_id", escrowID), slog.String("payment_id", attempts[i].PaymentID))
			return &attempts[i], nil
		case domain.PaymentProcessing, domain.PaymentScheduled:
			inFlight = &attempts[i]
		}
	}

	record := inFlight
	if record == nil {
		now := time.Now()
		fresh := domain.PaymentRecord{
			PaymentID:    uuid.NewString(),
			EscrowID:     escrow.EscrowID,
			JobID:        escrow.JobID,
			NurseID:      escrow.NurseID,
			Amount:       escrow.NetAmount,
			CurrencyCode: escrow.CurrencyCode,
			Method:       escrow.Method,
			Status:       domain.PaymentProcessing,
			ExecutedBy:   actorID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
		if err := s.paymentRepo.SavePayment(ctx, fresh); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				// A concurrent ExecutePayment inserted its record first. Adopt
				// the winner's attempt rather than raising a second payout.
				logger.Warn("Lost payment insert race, adopting concurrent attempt", slog.String("escrow_id", escrowID))
				return s.adoptConcurrentAttempt(ctx, escrow, actorID)
			}
			return nil, fmt.Errorf("failed to save payment record for escrow %s: %w", escrowID, err)
		}
		record = &fresh
	}

	return s.drivePayout(ctx, escrow, record, actorID)
}

// adoptConcurrentAttempt re-reads the payment history after a lost insert
// race and settles on the winning record: a COMPLETED one is returned as-is,
// an in-flight one is re-driven under the shared idempotency key.
func (s *paymentService) adoptConcurrentAttempt(ctx context.Context, escrow *domain.EscrowTransaction, actorID string) (*domain.PaymentRecord, error) {
	attempts, err := s.paymentRepo.FindPaymentsByEscrowID(ctx, escrow.EscrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload payment history for escrow %s: %w", escrow.EscrowID, err)
	}
	for i := range attempts {
		switch attempts[i].Status {
		case domain.PaymentCompleted:
			return &attempts[i], nil
		case domain.PaymentProcessing, domain.PaymentScheduled:
			return s.drivePayout(ctx, escrow, &attempts[i], actorID)
		}
	}
	return nil, fmt.Errorf("%w: concurrent payout attempt for escrow %s already settled, retry", apperrors.ErrConflict, escrow.EscrowID)
}

// drivePayout calls the gateway for a PROCESSING record and settles it to its
// outcome. On an ambiguous gateway failure the record stays PROCESSING so a
// later retry with the same idempotency key can learn what happened.
func (s *paymentService) drivePayout(ctx context.Context, escrow *domain.EscrowTransaction, record *domain.PaymentRecord, actorID string) (*domain.PaymentRecord, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	key := payoutIdempotencyKey(escrow.EscrowID)

	result, gwErr := s.gateway.Payout(ctx, key, record.Amount, record.CurrencyCode, record.Method, record.NurseID)
	now := time.Now()

	switch {
	case gwErr == nil:
		err := s.paymentRepo.UpdatePaymentOutcome(ctx, record.PaymentID, record.Status, domain.PaymentCompleted, result.Reference, "", &now, actorID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to mark payment %s completed: %w", record.PaymentID, err)
		}
		record.Status = domain.PaymentCompleted
		record.GatewayRef = result.Reference
		record.ExecutedAt = &now
		record.ExecutedBy = actorID
		record.LastUpdatedAt = now
		record.LastUpdatedBy = actorID
		s.auditSvc.LogAction(ctx, actorID, domain.ActionPaymentExecuted, escrowTarget(escrow.EscrowID), map[string]any{
			"paymentID":  record.PaymentID,
			"amount":     record.Amount.String(),
			"currency":   record.CurrencyCode,
			"gatewayRef": result.Reference,
		})
		logger.Info("Payout completed",
			slog.String("escrow_id", escrow.EscrowID),
			slog.String("payment_id", record.PaymentID),
			slog.String("amount", record.Amount.String()),
		)
		return record, nil

	case errors.Is(gwErr, apperrors.ErrGatewayDeclined):
		err := s.paymentRepo.UpdatePaymentOutcome(ctx, record.PaymentID, record.Status, domain.PaymentFailed, "", gwErr.Error(), nil, actorID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to mark payment %s failed: %w", record.PaymentID, err)
		}
		s.auditSvc.LogAction(ctx, actorID, domain.ActionPaymentFailed, escrowTarget(escrow.EscrowID), map[string]any{
			"paymentID": record.PaymentID,
			"reason":    gwErr.Error(),
		})
		logger.Warn("Payout declined", slog.String("escrow_id", escrow.EscrowID), slog.String("payment_id", record.PaymentID))
		return nil, fmt.Errorf("payout for escrow %s: %w", escrow.EscrowID, gwErr)

	default:
		// Timeout or transport failure: the gateway may or may not have paid.
		// The record stays PROCESSING and the next ExecutePayment retries
		// with the same idempotency key.
		s.auditSvc.LogAction(ctx, actorID, domain.ActionPaymentPending, escrowTarget(escrow.EscrowID), map[string]any{
			"paymentID": record.PaymentID,
			"error":     gwErr.Error(),
		})
		logger.Error("Payout outcome unknown",
			slog.String("escrow_id", escrow.EscrowID),
			slog.String("payment_id", record.PaymentID),
			slog.String("error", gwErr.Error()),
		)
		return nil, fmt.Errorf("payout for escrow %s: %w: %w", escrow.EscrowID, ErrPayoutPending, gwErr)
	}
}

// GetPaymentByID retrieves a specific payment record by ID.
func (s *paymentService) GetPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// GetPaymentsByEscrowID retrieves all payment records for an escrow.
func (s *paymentService) GetPaymentsByEscrowID(ctx context.Context, escrowID string) ([]domain.PaymentRecord, error) {
	payments, err := s.paymentRepo.FindPaymentsByEscrowID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments for escrow %s: %w", escrowID, err)
	}
	if payments == nil {
		return []domain.PaymentRecord{}, nil
	}
	return payments, nil
}

// ListPayments retrieves a filtered, token-paginated payout history.
func (s *paymentService) ListPayments(ctx context.Context, filters portsrepo.PaymentListFilters, limit int, nextToken string) ([]domain.PaymentRecord, string, error) {
	var tokenPtr *string
	if nextToken != "" {
		tokenPtr = &nextToken
	}

	payments, newToken, err := s.paymentRepo.ListPayments(ctx, filters, limit, tokenPtr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list payments: %w", err)
	}
	if payments == nil {
		payments = []domain.PaymentRecord{}
	}

	next := ""
	if newToken != nil {
		next = *newToken
	}
	return payments, next, nil
}

func payoutIdempotencyKey(escrowID string) string {
	return "payout-" + escrowID
}
