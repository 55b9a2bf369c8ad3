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

type PgxEscrowRepository struct {
	BaseRepository
}

// newPgxEscrowRepository creates a new repository for escrow transaction data.
func newPgxEscrowRepository(pool *pgxpool.Pool) portsrepo.EscrowRepositoryFacade {
	return &PgxEscrowRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxEscrowRepository implements portsrepo.EscrowRepositoryFacade
var _ portsrepo.EscrowRepositoryFacade = (*PgxEscrowRepository)(nil)

const escrowColumns = `escrow_id, job_id, organizer_id, nurse_id, gross_amount, platform_fee, processor_fee, net_amount,
		currency_code, method, status, charge_ref, released_at, refunded_at, refund_reason,
		created_at, created_by, last_updated_at, last_updated_by`

// SaveEscrow inserts a new escrow and its audit entry within one database
// transaction. The partial unique index on (job_id) for non-terminal rows
// enforces at most one active escrow per job; a violation maps to
// apperrors.ErrDuplicate.
func (r *PgxEscrowRepository) SaveEscrow(ctx context.Context, escrow domain.EscrowTransaction, auditEntry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	m := mapping.ToModelEscrow(escrow)
	query := `
		INSERT INTO escrow_transactions (` + escrowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19);
	`
	_, err = tx.Exec(ctx, query,
		m.EscrowID, m.JobID, m.OrganizerID, m.NurseID,
		m.GrossAmount, m.PlatformFee, m.ProcessorFee, m.NetAmount,
		m.CurrencyCode, m.Method, m.Status, m.ChargeRef,
		m.ReleasedAt, m.RefundedAt, m.RefundReason,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: active escrow already exists for job %s", apperrors.ErrDuplicate, escrow.JobID)
		}
		return fmt.Errorf("failed to insert escrow %s: %w", escrow.EscrowID, err)
	}

	if err := insertAuditEntry(ctx, tx, auditEntry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// TransitionEscrowStatus performs the compare-and-swap status update and
// writes the audit entry in the same transaction. The UPDATE matches the row
// only while its status still equals expected, so of any number of
// concurrent transitions exactly one commits.
func (r *PgxEscrowRepository) TransitionEscrowStatus(ctx context.Context, escrowID string, expected, next domain.EscrowStatus, chargeRef, refundReason string, actorID string, at time.Time, auditEntry domain.AuditLogEntry) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	var cmdTag pgconn.CommandTag
	switch next {
	case domain.EscrowFunded:
		cmdTag, err = tx.Exec(ctx, `
			UPDATE escrow_transactions
			SET status = $1, charge_ref = $2, last_updated_at = $3, last_updated_by = $4
			WHERE escrow_id = $5 AND status = $6;
		`, string(next), chargeRef, at, actorID, escrowID, string(expected))
	case domain.EscrowReleased:
		cmdTag, err = tx.Exec(ctx, `
			UPDATE escrow_transactions
			SET status = $1, released_at = $2, last_updated_at = $2, last_updated_by = $3
			WHERE escrow_id = $4 AND status = $5;
		`, string(next), at, actorID, escrowID, string(expected))
	case domain.EscrowRefunded:
		cmdTag, err = tx.Exec(ctx, `
			UPDATE escrow_transactions
			SET status = $1, refunded_at = $2, refund_reason = $3, last_updated_at = $2, last_updated_by = $4
			WHERE escrow_id = $5 AND status = $6;
		`, string(next), at, refundReason, actorID, escrowID, string(expected))
	default:
		return fmt.Errorf("%w: unsupported escrow transition to %s", apperrors.ErrValidation, next)
	}
	if err != nil {
		return fmt.Errorf("failed to update escrow %s status: %w", escrowID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		// Distinguish a lost race from a missing row.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM escrow_transactions WHERE escrow_id = $1);`, escrowID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check escrow %s existence: %w", escrowID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: escrow %s is no longer in status %s", apperrors.ErrConflict, escrowID, expected)
	}

	if err := insertAuditEntry(ctx, tx, auditEntry); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// FindEscrowByID retrieves a specific escrow by its unique identifier.
func (r *PgxEscrowRepository) FindEscrowByID(ctx context.Context, escrowID string) (*domain.EscrowTransaction, error) {
	query := `SELECT ` + escrowColumns + ` FROM escrow_transactions WHERE escrow_id = $1;`
	m, err := r.scanEscrowRow(r.Pool.QueryRow(ctx, query, escrowID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find escrow by ID %s: %w", escrowID, err)
	}
	d := mapping.ToDomainEscrow(*m)
	return &d, nil
}

// FindActiveEscrowByJobID retrieves the single non-terminal escrow for a job.
func (r *PgxEscrowRepository) FindActiveEscrowByJobID(ctx context.Context, jobID string) (*domain.EscrowTransaction, error) {
	query := `
		SELECT ` + escrowColumns + `
		FROM escrow_transactions
		WHERE job_id = $1 AND status IN ('PENDING', 'FUNDED');
	`
	m, err := r.scanEscrowRow(r.Pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active escrow for job %s: %w", jobID, err)
	}
	d := mapping.ToDomainEscrow(*m)
	return &d, nil
}

// FindEscrowsByJobID retrieves every escrow ever created for a job, newest first.
func (r *PgxEscrowRepository) FindEscrowsByJobID(ctx context.Context, jobID string) ([]domain.EscrowTransaction, error) {
	query := `
		SELECT ` + escrowColumns + `
		FROM escrow_transactions
		WHERE job_id = $1
		ORDER BY created_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query escrows for job %s: %w", jobID, err)
	}
	defer rows.Close()

	escrows := []domain.EscrowTransaction{}
	for rows.Next() {
		m, err := r.scanEscrowRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan escrow row: %w", err)
		}
		escrows = append(escrows, mapping.ToDomainEscrow(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating escrow rows: %w", err)
	}
	return escrows, nil
}

// scanEscrowRow scans one escrow row in escrowColumns order.
func (r *PgxEscrowRepository) scanEscrowRow(row pgx.Row) (*models.EscrowTransaction, error) {
	var m models.EscrowTransaction
	err := row.Scan(
		&m.EscrowID, &m.JobID, &m.OrganizerID, &m.NurseID,
		&m.GrossAmount, &m.PlatformFee, &m.ProcessorFee, &m.NetAmount,
		&m.CurrencyCode, &m.Method, &m.Status, &m.ChargeRef,
		&m.ReleasedAt, &m.RefundedAt, &m.RefundReason,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
