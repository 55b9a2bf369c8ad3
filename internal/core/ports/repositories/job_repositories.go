package repositories

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// JobReader defines read operations for jobs.
type JobReader interface {
	FindJobByID(ctx context.Context, jobID string) (*domain.Job, error)
	ListJobsByOrganizer(ctx context.Context, organizerID string, limit int, offset int) ([]domain.Job, error)

	// ListJobsEligibleForPayout returns jobs that are COMPLETED on or before
	// the cutoff, have no open dispute, and carry a FUNDED escrow.
	ListJobsEligibleForPayout(ctx context.Context, cutoff time.Time) ([]domain.Job, error)
}

// JobWriter defines write operations for jobs.
type JobWriter interface {
	SaveJob(ctx context.Context, job *domain.Job) error
	AssignNurse(ctx context.Context, jobID string, nurseID string, updatedBy string, at time.Time) error
	CompleteJob(ctx context.Context, jobID string, completedAt time.Time, updatedBy string) error
	UpdateJobStatus(ctx context.Context, jobID string, expected domain.JobStatus, next domain.JobStatus, updatedBy string, at time.Time) error
	SetDisputeOpen(ctx context.Context, jobID string, open bool, updatedBy string, at time.Time) error
}

// JobRepositoryFacade combines all job repository operations.
type JobRepositoryFacade interface {
	JobReader
	JobWriter
}
