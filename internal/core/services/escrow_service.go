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
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
	"github.com/shiftnurse/escrow_backend/internal/utils/fees"
)

var (
	ErrEscrowNotFunded = errors.New("escrow is not in FUNDED status")
	ErrJobNotAssigned  = errors.New("job has no assigned nurse")
	ErrJobCancelled    = errors.New("job is cancelled")
	ErrNotJobOrganizer = errors.New("user is not the job's organizer")
)

// escrowService holds funds between organizer funding and nurse payout.
type escrowService struct {
	escrowRepo  portsrepo.EscrowRepositoryFacade
	jobRepo     portsrepo.JobReader
	currencySvc portssvc.CurrencyReaderSvc
	authz       portssvc.RoleAuthorizer
	gateway     portssvc.PaymentGateway
	auditSvc    portssvc.AuditLoggerSvc
	feeSchedule fees.Schedule
}

// NewEscrowService creates a new escrow service.
func NewEscrowService(escrowRepo portsrepo.EscrowRepositoryFacade, jobRepo portsrepo.JobReader, currencySvc portssvc.CurrencyReaderSvc, authz portssvc.RoleAuthorizer, gateway portssvc.PaymentGateway, auditSvc portssvc.AuditLoggerSvc, feeSchedule fees.Schedule) portssvc.EscrowSvcFacade {
	return &escrowService{
		escrowRepo:  escrowRepo,
		jobRepo:     jobRepo,
		currencySvc: currencySvc,
		authz:       authz,
		gateway:     gateway,
		auditSvc:    auditSvc,
		feeSchedule: feeSchedule,
	}
}

// Ensure escrowService implements the portssvc.EscrowSvcFacade interface
var _ portssvc.EscrowSvcFacade = (*escrowService)(nil)

// CreateEscrow creates an escrow for a job, charges the organizer and returns
// the escrow as FUNDED. The escrow is persisted PENDING before the charge so
// an interrupted attempt leaves a resumable row: creating again for the same
// job picks the PENDING escrow up and retries the charge instead of opening a
// second one.
func (s *escrowService) CreateEscrow(ctx context.Context, req dto.CreateEscrowRequest, creatorUserID string) (*domain.EscrowTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	job, err := s.jobRepo.FindJobByID(ctx, req.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", req.JobID, err)
	}
	if job.OrganizerID != creatorUserID {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrForbidden, ErrNotJobOrganizer)
	}
	if job.Status == domain.JobCancelled {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrJobCancelled)
	}
	if job.NurseID == nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrJobNotAssigned)
	}

	currency, err := s.currencySvc.GetCurrencyByCode(ctx, req.Currency)
	if err != nil {
		return nil, fmt.Errorf("failed to load currency %s: %w", req.Currency, err)
	}

	calculated, err := s.feeSchedule.Calculate(req.GrossAmount, req.Method, currency.Exponent)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	escrow := domain.EscrowTransaction{
		EscrowID:     uuid.NewString(),
		JobID:        job.JobID,
		OrganizerID:  job.OrganizerID,
		NurseID:      *job.NurseID,
		GrossAmount:  req.GrossAmount,
		PlatformFee:  calculated.PlatformFee,
		ProcessorFee: calculated.ProcessorFee,
		NetAmount:    calculated.NetAmount,
		CurrencyCode: currency.CurrencyCode,
		Method:       req.Method,
		Status:       domain.EscrowPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	auditEntry := newAuditEntry(creatorUserID, domain.ActionEscrowCreated, escrowTarget(escrow.EscrowID), map[string]any{
		"jobID":       escrow.JobID,
		"grossAmount": escrow.GrossAmount.String(),
		"netAmount":   escrow.NetAmount.String(),
		"currency":    escrow.CurrencyCode,
		"method":      string(escrow.Method),
	}, now)

	if err := s.escrowRepo.SaveEscrow(ctx, escrow, auditEntry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			existing, findErr := s.escrowRepo.FindActiveEscrowByJobID(ctx, job.JobID)
			if findErr == nil && existing.Status == domain.EscrowPending {
				// A previous attempt persisted the escrow but never completed
				// the charge. Resume it under its original idempotency key.
				logger.Warn("Resuming interrupted escrow funding",
					slog.String("escrow_id", existing.EscrowID),
					slog.String("job_id", job.JobID),
				)
				return s.fundEscrow(ctx, existing, creatorUserID)
			}
		}
		return nil, fmt.Errorf("failed to save escrow: %w", err)
	}

	logger.Info("Escrow created",
		slog.String("escrow_id", escrow.EscrowID),
		slog.String("job_id", escrow.JobID),
		slog.String("gross", escrow.GrossAmount.String()),
	)
	return s.fundEscrow(ctx, &escrow, creatorUserID)
}

// fundEscrow charges the organizer and moves a PENDING escrow to FUNDED.
// The charge carries an idempotency key derived from the escrow ID, so a
// retry after an ambiguous gateway outcome cannot double-charge.
func (s *escrowService) fundEscrow(ctx context.Context, escrow *domain.EscrowTransaction, actorID string) (*domain.EscrowTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	escrowID := escrow.EscrowID

	result, err := s.gateway.Charge(ctx, chargeIdempotencyKey(escrowID), escrow.GrossAmount, escrow.CurrencyCode, escrow.Method, escrow.OrganizerID)
	if err != nil {
		// Declined or unavailable: the escrow stays PENDING either way. The
		// idempotency key makes a retry safe even when the outcome was
		// ambiguous.
		logger.Warn("Funding charge failed", slog.String("escrow_id", escrowID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("funding charge for escrow %s: %w", escrowID, err)
	}

	now := time.Now()
	auditEntry := newAuditEntry(actorID, domain.ActionEscrowFunded, escrowTarget(escrowID), map[string]any{
		"jobID":     escrow.JobID,
		"amount":    escrow.GrossAmount.String(),
		"currency":  escrow.CurrencyCode,
		"chargeRef": result.Reference,
	}, now)

	err = s.escrowRepo.TransitionEscrowStatus(ctx, escrowID, domain.EscrowPending, domain.EscrowFunded, result.Reference, "", actorID, now, auditEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to mark escrow %s funded: %w", escrowID, err)
	}

	escrow.Status = domain.EscrowFunded
	escrow.ChargeRef = result.Reference
	escrow.LastUpdatedAt = now
	escrow.LastUpdatedBy = actorID

	logger.Info("Escrow funded", slog.String("escrow_id", escrowID), slog.String("charge_ref", result.Reference))
	return escrow, nil
}

// ReleaseEscrow moves the escrow FUNDED -> RELEASED. Only admins and the
// batch runner may release. The conditional update guarantees exactly one
// caller wins when concurrent releases race.
func (s *escrowService) ReleaseEscrow(ctx context.Context, escrowID string, actorID string) (*domain.EscrowTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.authorizeMutation(ctx, actorID); err != nil {
		return nil, err
	}

	escrow, err := s.escrowRepo.FindEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load escrow %s: %w", escrowID, err)
	}
	if escrow.Status != domain.EscrowFunded {
		return nil, fmt.Errorf("%w: %w (current status %s)", apperrors.ErrConflict, ErrEscrowNotFunded, escrow.Status)
	}

	now := time.Now()
	auditEntry := newAuditEntry(actorID, domain.ActionEscrowReleased, escrowTarget(escrowID), map[string]any{
		"jobID":     escrow.JobID,
		"netAmount": escrow.NetAmount.String(),
		"currency":  escrow.CurrencyCode,
	}, now)

	err = s.escrowRepo.TransitionEscrowStatus(ctx, escrowID, domain.EscrowFunded, domain.EscrowReleased, "", "", actorID, now, auditEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to release escrow %s: %w", escrowID, err)
	}

	escrow.Status = domain.EscrowReleased
	escrow.ReleasedAt = &now
	escrow.LastUpdatedAt = now
	escrow.LastUpdatedBy = actorID

	logger.Info("Escrow released", slog.String("escrow_id", escrowID), slog.String("net", escrow.NetAmount.String()))
	return escrow, nil
}

// RefundEscrow moves the escrow FUNDED -> REFUNDED, then returns the
// refundable amount to the organizer. Admin-only. Fixed processor fees are
// not returned.
// The state transition commits before the gateway call: if the refund
// transfer fails, the escrow remains REFUNDED and the failure is audited for
// manual reconciliation rather than rolled back.
func (s *escrowService) RefundEscrow(ctx context.Context, escrowID string, reason string, actorID string) (*domain.EscrowTransaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.authorizeMutation(ctx, actorID); err != nil {
		return nil, err
	}

	escrow, err := s.escrowRepo.FindEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load escrow %s: %w", escrowID, err)
	}
	if escrow.Status != domain.EscrowFunded {
		return nil, fmt.Errorf("%w: %w (current status %s)", apperrors.ErrConflict, ErrEscrowNotFunded, escrow.Status)
	}

	refundable := s.feeSchedule.RefundableAmount(escrow.GrossAmount, escrow.Method)

	now := time.Now()
	auditEntry := newAuditEntry(actorID, domain.ActionEscrowRefunded, escrowTarget(escrowID), map[string]any{
		"jobID":            escrow.JobID,
		"reason":           reason,
		"refundableAmount": refundable.String(),
		"currency":         escrow.CurrencyCode,
	}, now)

	err = s.escrowRepo.TransitionEscrowStatus(ctx, escrowID, domain.EscrowFunded, domain.EscrowRefunded, "", reason, actorID, now, auditEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to refund escrow %s: %w", escrowID, err)
	}

	escrow.Status = domain.EscrowRefunded
	escrow.RefundedAt = &now
	escrow.RefundReason = reason
	escrow.LastUpdatedAt = now
	escrow.LastUpdatedBy = actorID

	if _, gwErr := s.gateway.Refund(ctx, refundIdempotencyKey(escrowID), escrow.ChargeRef, refundable, escrow.CurrencyCode); gwErr != nil {
		logger.Error("Refund transfer failed after state transition",
			slog.String("escrow_id", escrowID),
			slog.String("error", gwErr.Error()),
		)
		s.auditSvc.LogAction(ctx, actorID, domain.ActionRefundGatewayFailed, escrowTarget(escrowID), map[string]any{
			"reason":           reason,
			"refundableAmount": refundable.String(),
			"error":            gwErr.Error(),
		})
	}

	logger.Info("Escrow refunded", slog.String("escrow_id", escrowID), slog.String("refundable", refundable.String()))
	return escrow, nil
}

// GetEscrowByID retrieves a specific escrow transaction by ID.
func (s *escrowService) GetEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error) {
	escrow, err := s.escrowRepo.FindEscrowByID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow %s: %w", escrowID, err)
	}
	return escrow, nil
}

// GetActiveEscrowByJobID retrieves the non-terminal escrow for a job, if any.
func (s *escrowService) GetActiveEscrowByJobID(ctx context.Context, jobID string) (*domain.EscrowTransaction, error) {
	escrow, err := s.escrowRepo.FindActiveEscrowByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active escrow for job %s: %w", jobID, err)
	}
	return escrow, nil
}

// ListEscrowsByJobID retrieves all escrow transactions for a job, newest first.
func (s *escrowService) ListEscrowsByJobID(ctx context.Context, jobID string) ([]domain.EscrowTransaction, error) {
	escrows, err := s.escrowRepo.FindEscrowsByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list escrows for job %s: %w", jobID, err)
	}
	if escrows == nil {
		return []domain.EscrowTransaction{}, nil
	}
	return escrows, nil
}

// authorizeMutation gates release and refund to admins. The batch runner's
// system actor has no user row and is trusted by construction.
func (s *escrowService) authorizeMutation(ctx context.Context, actorID string) error {
	if actorID == domain.SystemActorID {
		return nil
	}
	return s.authz.AuthorizeRole(ctx, actorID, domain.RoleAdmin)
}

func escrowTarget(escrowID string) string {
	return "escrow:" + escrowID
}

func chargeIdempotencyKey(escrowID string) string {
	return "charge-" + escrowID
}

func refundIdempotencyKey(escrowID string) string {
	return "refund-" + escrowID
}

func newAuditEntry(actorID string, action domain.AuditAction, target string, metadata map[string]any, at time.Time) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		AuditID:   uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		Metadata:  metadata,
		CreatedAt: at,
	}
}
