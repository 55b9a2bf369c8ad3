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
)

var (
	ErrJobNotOpen       = errors.New("job is not in OPEN status")
	ErrJobNotAssignable = errors.New("user cannot be assigned, not an active nurse")
	ErrJobNotInProgress = errors.New("job is not in ASSIGNED status")
	ErrJobFinished      = errors.New("job has already finished")
	ErrNoOpenDispute    = errors.New("job has no open dispute")
)

// jobService manages the job lifecycle the payout flow depends on.
type jobService struct {
	jobRepo  portsrepo.JobRepositoryFacade
	userRepo portsrepo.UserReader
	auditSvc portssvc.AuditLoggerSvc
}

// NewJobService creates a new job service.
func NewJobService(jobRepo portsrepo.JobRepositoryFacade, userRepo portsrepo.UserReader, auditSvc portssvc.AuditLoggerSvc) portssvc.JobSvcFacade {
	return &jobService{
		jobRepo:  jobRepo,
		userRepo: userRepo,
		auditSvc: auditSvc,
	}
}

// Ensure jobService implements the portssvc.JobSvcFacade interface
var _ portssvc.JobSvcFacade = (*jobService)(nil)

// CreateJob creates a new OPEN job for an organizer.
func (s *jobService) CreateJob(ctx context.Context, req dto.CreateJobRequest, organizerID string) (*domain.Job, error) {
	now := time.Now()
	job := domain.Job{
		JobID:       uuid.NewString(),
		OrganizerID: organizerID,
		Title:       req.Title,
		EventDate:   req.EventDate,
		Status:      domain.JobOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     organizerID,
			LastUpdatedAt: now,
			LastUpdatedBy: organizerID,
		},
	}

	if err := s.jobRepo.SaveJob(ctx, &job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	middleware.GetLoggerFromCtx(ctx).Info("Job created", slog.String("job_id", job.JobID), slog.String("organizer_id", organizerID))
	return &job, nil
}

// AssignNurse assigns an active nurse to an OPEN job, moving it to ASSIGNED.
func (s *jobService) AssignNurse(ctx context.Context, jobID string, nurseID string, actorID string) (*domain.Job, error) {
	job, err := s.loadOwnedJob(ctx, jobID, actorID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobOpen {
		return nil, fmt.Errorf("%w: %w (current status %s)", apperrors.ErrConflict, ErrJobNotOpen, job.Status)
	}

	nurse, err := s.userRepo.FindUserByID(ctx, nurseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load nurse %s: %w", nurseID, err)
	}
	if nurse.Role != domain.RoleNurse || !nurse.IsActive {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrJobNotAssignable)
	}

	now := time.Now()
	if err := s.jobRepo.AssignNurse(ctx, jobID, nurseID, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to assign nurse to job %s: %w", jobID, err)
	}

	job.NurseID = &nurseID
	job.Status = domain.JobAssigned
	job.LastUpdatedAt = now
	job.LastUpdatedBy = actorID
	return job, nil
}

// CompleteJob marks an ASSIGNED job as COMPLETED. The completion timestamp
// starts the payout grace period.
func (s *jobService) CompleteJob(ctx context.Context, jobID string, actorID string) (*domain.Job, error) {
	job, err := s.loadOwnedJob(ctx, jobID, actorID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.JobAssigned {
		return nil, fmt.Errorf("%w: %w (current status %s)", apperrors.ErrConflict, ErrJobNotInProgress, job.Status)
	}

	now := time.Now()
	if err := s.jobRepo.CompleteJob(ctx, jobID, now, actorID); err != nil {
		return nil, fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}

	job.Status = domain.JobCompleted
	job.CompletedAt = &now
	job.LastUpdatedAt = now
	job.LastUpdatedBy = actorID
	middleware.GetLoggerFromCtx(ctx).Info("Job completed", slog.String("job_id", jobID))
	return job, nil
}

// CancelJob cancels a job that has not been completed.
func (s *jobService) CancelJob(ctx context.Context, jobID string, actorID string) (*domain.Job, error) {
	job, err := s.loadOwnedJob(ctx, jobID, actorID)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.JobCompleted || job.Status == domain.JobCancelled {
		return nil, fmt.Errorf("%w: %w (current status %s)", apperrors.ErrConflict, ErrJobFinished, job.Status)
	}

	now := time.Now()
	if err := s.jobRepo.UpdateJobStatus(ctx, jobID, job.Status, domain.JobCancelled, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to cancel job %s: %w", jobID, err)
	}

	job.Status = domain.JobCancelled
	job.LastUpdatedAt = now
	job.LastUpdatedBy = actorID
	return job, nil
}

// OpenDispute flags a job as disputed, excluding it from scheduled payouts
// until resolved.
func (s *jobService) OpenDispute(ctx context.Context, jobID string, actorID string) (*domain.Job, error) {
	job, err := s.jobRepo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.DisputeOpen {
		return job, nil
	}

	now := time.Now()
	if err := s.jobRepo.SetDisputeOpen(ctx, jobID, true, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to open dispute on job %s: %w", jobID, err)
	}

	job.DisputeOpen = true
	job.LastUpdatedAt = now
	job.LastUpdatedBy = actorID
	s.auditSvc.LogAction(ctx, actorID, domain.ActionDisputeOpened, jobTarget(jobID), nil)
	middleware.GetLoggerFromCtx(ctx).Warn("Dispute opened", slog.String("job_id", jobID), slog.String("actor_id", actorID))
	return job, nil
}

// ResolveDispute clears the dispute flag on a job.
func (s *jobService) ResolveDispute(ctx context.Context, jobID string, actorID string) (*domain.Job, error) {
	job, err := s.jobRepo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if !job.DisputeOpen {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrConflict, ErrNoOpenDispute)
	}

	now := time.Now()
	if err := s.jobRepo.SetDisputeOpen(ctx, jobID, false, actorID, now); err != nil {
		return nil, fmt.Errorf("failed to resolve dispute on job %s: %w", jobID, err)
	}

	job.DisputeOpen = false
	job.LastUpdatedAt = now
	job.LastUpdatedBy = actorID
	s.auditSvc.LogAction(ctx, actorID, domain.ActionDisputeResolved, jobTarget(jobID), nil)
	return job, nil
}

// GetJobByID retrieves a job by ID.
func (s *jobService) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := s.jobRepo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return job, nil
}

// ListJobsByOrganizer retrieves a paginated list of an organizer's jobs.
func (s *jobService) ListJobsByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]domain.Job, error) {
	jobs, err := s.jobRepo.ListJobsByOrganizer(ctx, organizerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for organizer %s: %w", organizerID, err)
	}
	if jobs == nil {
		return []domain.Job{}, nil
	}
	return jobs, nil
}

// loadOwnedJob loads a job and verifies the actor owns it.
func (s *jobService) loadOwnedJob(ctx context.Context, jobID string, actorID string) (*domain.Job, error) {
	job, err := s.jobRepo.FindJobByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", jobID, err)
	}
	if job.OrganizerID != actorID {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrForbidden, ErrNotJobOrganizer)
	}
	return job, nil
}

func jobTarget(jobID string) string {
	return "job:" + jobID
}
