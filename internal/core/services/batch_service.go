package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/dto"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

const (
	outcomeSucceeded = "SUCCEEDED"
	outcomeFailed    = "FAILED"
	outcomeSkipped   = "SKIPPED"
)

// batchService runs the scheduled payout sweep over completed jobs.
type batchService struct {
	jobRepo     portsrepo.JobReader
	escrowRepo  portsrepo.EscrowReader
	escrowSvc   portssvc.EscrowWriterSvc
	paymentSvc  portssvc.PaymentWriterSvc
	auditSvc    portssvc.AuditLoggerSvc
	gracePeriod time.Duration
}

// NewBatchService creates a new batch payout service. gracePeriod is how long
// after job completion the funds stay held before automatic release.
func NewBatchService(jobRepo portsrepo.JobReader, escrowRepo portsrepo.EscrowReader, escrowSvc portssvc.EscrowWriterSvc, paymentSvc portssvc.PaymentWriterSvc, auditSvc portssvc.AuditLoggerSvc, gracePeriod time.Duration) portssvc.BatchPayoutSvc {
	return &batchService{
		jobRepo:     jobRepo,
		escrowRepo:  escrowRepo,
		escrowSvc:   escrowSvc,
		paymentSvc:  paymentSvc,
		auditSvc:    auditSvc,
		gracePeriod: gracePeriod,
	}
}

// Ensure batchService implements the portssvc.BatchPayoutSvc interface
var _ portssvc.BatchPayoutSvc = (*batchService)(nil)

// RunScheduledPayouts releases and pays out every eligible job: completed on
// or before now minus the grace period, no open dispute, escrow still FUNDED.
//
// Jobs are processed independently. A gateway decline or database error on
// one job records a FAILED outcome and the sweep moves on. Re-running the
// batch is safe: the conditional status update means an escrow released by a
// previous run (or a concurrent admin) is counted as skipped, never paid
// twice.
func (s *batchService) RunScheduledPayouts(ctx context.Context, now time.Time) (*dto.BatchPayoutReport, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	cutoff := now.Add(-s.gracePeriod)

	jobs, err := s.jobRepo.ListJobsEligibleForPayout(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs eligible for payout: %w", err)
	}

	report := &dto.BatchPayoutReport{
		RunAt:    now,
		Cutoff:   cutoff,
		Outcomes: make([]dto.BatchJobOutcome, 0, len(jobs)),
	}

	logger.Info("Starting scheduled payout run",
		slog.Time("cutoff", cutoff),
		slog.Int("eligible_jobs", len(jobs)),
	)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("payout run interrupted after %d jobs: %w", report.Processed, err)
		}
		report.Processed++
		outcome := s.processJob(ctx, job)
		report.Outcomes = append(report.Outcomes, outcome)
		switch outcome.Outcome {
		case outcomeSucceeded:
			report.Succeeded++
		case outcomeFailed:
			report.Failed++
		case outcomeSkipped:
			report.Skipped++
		}
	}

	s.auditSvc.LogAction(ctx, domain.SystemActorID, domain.ActionBatchPayoutCompleted, "batch:scheduled_payouts", map[string]any{
		"cutoff":    cutoff.Format(time.RFC3339),
		"processed": report.Processed,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	})

	logger.Info("Scheduled payout run finished",
		slog.Int("processed", report.Processed),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped),
	)
	return report, nil
}

// processJob releases one job's escrow and executes its payout, translating
// every error into a per-job outcome so the caller's loop never aborts.
func (s *batchService) processJob(ctx context.Context, job domain.Job) dto.BatchJobOutcome {
	logger := middleware.GetLoggerFromCtx(ctx)

	escrow, err := s.escrowRepo.FindActiveEscrowByJobID(ctx, job.JobID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Released or refunded between the eligibility query and now.
			return dto.BatchJobOutcome{JobID: job.JobID, Outcome: outcomeSkipped, Detail: "no active escrow"}
		}
		return dto.BatchJobOutcome{JobID: job.JobID, Outcome: outcomeFailed, Detail: err.Error()}
	}
	if escrow.Status != domain.EscrowFunded {
		return dto.BatchJobOutcome{JobID: job.JobID, EscrowID: escrow.EscrowID, Outcome: outcomeSkipped, Detail: fmt.Sprintf("escrow status %s", escrow.Status)}
	}

	if _, err := s.escrowSvc.ReleaseEscrow(ctx, escrow.EscrowID, domain.SystemActorID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Lost the release race to a concurrent run or admin.
			return dto.BatchJobOutcome{JobID: job.JobID, EscrowID: escrow.EscrowID, Outcome: outcomeSkipped, Detail: "escrow already transitioned"}
		}
		logger.Error("Batch release failed", slog.String("job_id", job.JobID), slog.String("escrow_id", escrow.EscrowID), slog.String("error", err.Error()))
		return dto.BatchJobOutcome{JobID: job.JobID, EscrowID: escrow.EscrowID, Outcome: outcomeFailed, Detail: err.Error()}
	}

	if _, err := s.paymentSvc.ExecutePayment(ctx, escrow.EscrowID, domain.SystemActorID); err != nil {
		// The escrow stays RELEASED; the payout is retryable via
		// ExecutePayment once the underlying problem clears.
		logger.Error("Batch payout failed", slog.String("job_id", job.JobID), slog.String("escrow_id", escrow.EscrowID), slog.String("error", err.Error()))
		return dto.BatchJobOutcome{JobID: job.JobID, EscrowID: escrow.EscrowID, Outcome: outcomeFailed, Detail: err.Error()}
	}

	return dto.BatchJobOutcome{JobID: job.JobID, EscrowID: escrow.EscrowID, Outcome: outcomeSucceeded}
}
