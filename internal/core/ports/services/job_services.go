package services

import (
	"context"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/dto"
)

// JobReaderSvc defines read operations for jobs
type JobReaderSvc interface {
	// GetJobByID retrieves a job by ID.
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)

	// ListJobsByOrganizer retrieves a paginated list of an organizer's jobs.
	ListJobsByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]domain.Job, error)
}

// JobWriterSvc defines write operations for jobs
type JobWriterSvc interface {
	// CreateJob creates a new OPEN job for an organizer.
	CreateJob(ctx context.Context, req dto.CreateJobRequest, organizerID string) (*domain.Job, error)

	// AssignNurse assigns a nurse to an OPEN job, moving it to ASSIGNED.
	AssignNurse(ctx context.Context, jobID string, nurseID string, actorID string) (*domain.Job, error)

	// CompleteJob marks an ASSIGNED job as COMPLETED, starting the payout
	// grace period.
	CompleteJob(ctx context.Context, jobID string, actorID string) (*domain.Job, error)

	// CancelJob cancels a job that has not been completed.
	CancelJob(ctx context.Context, jobID string, actorID string) (*domain.Job, error)

	// OpenDispute flags a job as disputed, which excludes it from scheduled
	// payouts until resolved.
	OpenDispute(ctx context.Context, jobID string, actorID string) (*domain.Job, error)

	// ResolveDispute clears the dispute flag on a job.
	ResolveDispute(ctx context.Context, jobID string, actorID string) (*domain.Job, error)
}

// JobSvcFacade combines all job-related service interfaces
type JobSvcFacade interface {
	JobReaderSvc
	JobWriterSvc
}
