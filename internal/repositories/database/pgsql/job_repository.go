package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	"github.com/shiftnurse/escrow_backend/internal/models"
	"github.com/shiftnurse/escrow_backend/internal/utils/mapping"
)

type PgxJobRepository struct {
	BaseRepository
}

// newPgxJobRepository creates a new repository for job data.
func newPgxJobRepository(pool *pgxpool.Pool) portsrepo.JobRepositoryFacade {
	return &PgxJobRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJobRepository implements portsrepo.JobRepositoryFacade
var _ portsrepo.JobRepositoryFacade = (*PgxJobRepository)(nil)

const jobColumns = `job_id, organizer_id, nurse_id, title, event_date, status, completed_at, dispute_open,
		created_at, created_by, last_updated_at, last_updated_by`

// SaveJob persists a new job.
func (r *PgxJobRepository) SaveJob(ctx context.Context, job *domain.Job) error {
	m := mapping.ToModelJob(*job)
	query := `
		INSERT INTO jobs (` + jobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.JobID, m.OrganizerID, m.NurseID, m.Title, m.EventDate, m.Status, m.CompletedAt, m.DisputeOpen,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: job %s already exists", apperrors.ErrDuplicate, job.JobID)
		}
		return fmt.Errorf("failed to insert job %s: %w", job.JobID, err)
	}
	return nil
}

// AssignNurse assigns a nurse to an OPEN job, moving it to ASSIGNED.
func (r *PgxJobRepository) AssignNurse(ctx context.Context, jobID string, nurseID string, updatedBy string, at time.Time) error {
	query := `
		UPDATE jobs
		SET nurse_id = $1, status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE job_id = $5 AND status = $6;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, nurseID, string(models.JobAssigned), at, updatedBy, jobID, string(models.JobOpen))
	if err != nil {
		return fmt.Errorf("failed to assign nurse to job %s: %w", jobID, err)
	}
	return r.checkJobUpdated(ctx, cmdTag, jobID)
}

// CompleteJob marks an ASSIGNED job as COMPLETED and stamps completed_at.
func (r *PgxJobRepository) CompleteJob(ctx context.Context, jobID string, completedAt time.Time, updatedBy string) error {
	query := `
		UPDATE jobs
		SET status = $1, completed_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE job_id = $4 AND status = $5;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(models.JobCompleted), completedAt, updatedBy, jobID, string(models.JobAssigned))
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}
	return r.checkJobUpdated(ctx, cmdTag, jobID)
}

// UpdateJobStatus moves a job from expected to next.
func (r *PgxJobRepository) UpdateJobStatus(ctx context.Context, jobID string, expected domain.JobStatus, next domain.JobStatus, updatedBy string, at time.Time) error {
	query := `
		UPDATE jobs
		SET status = $1, last_updated_at = $2, last_updated_by = $3
		WHERE job_id = $4 AND status = $5;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(next), at, updatedBy, jobID, string(expected))
	if err != nil {
		return fmt.Errorf("failed to update job %s status: %w", jobID, err)
	}
	return r.checkJobUpdated(ctx, cmdTag, jobID)
}

// SetDisputeOpen sets or clears the dispute flag on a job.
func (r *PgxJobRepository) SetDisputeOpen(ctx context.Context, jobID string, open bool, updatedBy string, at time.Time) error {
	query := `
		UPDATE jobs
		SET dispute_open = $1, last_updated_at = $2, last_updated_by = $3
		WHERE job_id = $4;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, open, at, updatedBy, jobID)
	if err != nil {
		return fmt.Errorf("failed to set dispute flag on job %s: %w", jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindJobByID retrieves a specific job by ID.
func (r *PgxJobRepository) FindJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1;`
	m, err := r.scanJobRow(r.Pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job by ID %s: %w", jobID, err)
	}
	d := mapping.ToDomainJob(*m)
	return &d, nil
}

// ListJobsByOrganizer retrieves a paginated list of an organizer's jobs, newest first.
func (r *PgxJobRepository) ListJobsByOrganizer(ctx context.Context, organizerID string, limit int, offset int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE organizer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, organizerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs for organizer %s: %w", organizerID, err)
	}
	defer rows.Close()

	return r.collectJobs(rows)
}

// ListJobsEligibleForPayout returns jobs that are COMPLETED on or before the
// cutoff, have no open dispute, and carry a FUNDED escrow. This is the input
// set for one scheduled payout run.
func (r *PgxJobRepository) ListJobsEligibleForPayout(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumnsPrefixed("j") + `
		FROM jobs j
		JOIN escrow_transactions e ON e.job_id = j.job_id AND e.status = 'FUNDED'
		WHERE j.status = 'COMPLETED'
		  AND j.completed_at <= $1
		  AND j.dispute_open = FALSE
		ORDER BY j.completed_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs eligible for payout: %w", err)
	}
	defer rows.Close()

	return r.collectJobs(rows)
}

// jobColumnsPrefixed qualifies jobColumns with a table alias for join queries.
func jobColumnsPrefixed(alias string) string {
	return alias + `.job_id, ` + alias + `.organizer_id, ` + alias + `.nurse_id, ` + alias + `.title, ` +
		alias + `.event_date, ` + alias + `.status, ` + alias + `.completed_at, ` + alias + `.dispute_open, ` +
		alias + `.created_at, ` + alias + `.created_by, ` + alias + `.last_updated_at, ` + alias + `.last_updated_by`
}

func (r *PgxJobRepository) collectJobs(rows pgx.Rows) ([]domain.Job, error) {
	modelJobs := []models.Job{}
	for rows.Next() {
		m, err := r.scanJobRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		modelJobs = append(modelJobs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}
	return mapping.ToDomainJobSlice(modelJobs), nil
}

func (r *PgxJobRepository) scanJobRow(row pgx.Row) (*models.Job, error) {
	var m models.Job
	err := row.Scan(
		&m.JobID, &m.OrganizerID, &m.NurseID, &m.Title, &m.EventDate, &m.Status, &m.CompletedAt, &m.DisputeOpen,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// checkJobUpdated translates a zero-row conditional update into not-found or
// conflict.
func (r *PgxJobRepository) checkJobUpdated(ctx context.Context, cmdTag pgconn.CommandTag, jobID string) error {
	if cmdTag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE job_id = $1);`, jobID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check job %s existence: %w", jobID, err)
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: job %s is not in the expected status", apperrors.ErrConflict, jobID)
}
