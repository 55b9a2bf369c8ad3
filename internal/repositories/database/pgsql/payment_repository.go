package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shiftnurse/escrow_backend/internal/apperrors"
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	"github.com/shiftnurse/escrow_backend/internal/models"
	"github.com/shiftnurse/escrow_backend/internal/utils/mapping"
	"github.com/shiftnurse/escrow_backend/internal/utils/pagination"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment record data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryFacade {
	return &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxPaymentRepository implements portsrepo.PaymentRepositoryFacade
var _ portsrepo.PaymentRepositoryFacade = (*PgxPaymentRepository)(nil)

const paymentColumns = `payment_id, escrow_id, job_id, nurse_id, amount, currency_code, method, status,
		gateway_ref, failure_reason, executed_at, executed_by,
		created_at, created_by, last_updated_at, last_updated_by`

// SavePayment persists a new payment record. The partial unique index on
// escrow_id admits one non-FAILED record per escrow, so a concurrent insert
// for the same escrow surfaces as apperrors.ErrDuplicate.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.PaymentRecord) error {
	m := mapping.ToModelPayment(payment)
	query := `
		INSERT INTO payment_records (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PaymentID, m.EscrowID, m.JobID, m.NurseID,
		m.Amount, m.CurrencyCode, m.Method, m.Status,
		m.GatewayRef, m.FailureReason, m.ExecutedAt, m.ExecutedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: live payout attempt already exists for escrow %s", apperrors.ErrDuplicate, payment.EscrowID)
		}
		return fmt.Errorf("failed to insert payment %s: %w", payment.PaymentID, err)
	}
	return nil
}

// UpdatePaymentOutcome moves a non-terminal payment record to its outcome.
// The conditional update matches only rows still in the expected status, so
// COMPLETED and FAILED records can never be rewritten.
func (r *PgxPaymentRepository) UpdatePaymentOutcome(ctx context.Context, paymentID string, expected, next domain.PaymentStatus, gatewayRef, failureReason string, executedAt *time.Time, updatedBy string, updatedAt time.Time) error {
	query := `
		UPDATE payment_records
		SET status = $1, gateway_ref = $2, failure_reason = $3, executed_at = $4,
		    executed_by = $5, last_updated_at = $6, last_updated_by = $5
		WHERE payment_id = $7 AND status = $8;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		string(next), gatewayRef, failureReason, executedAt,
		updatedBy, updatedAt, paymentID, string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment %s outcome: %w", paymentID, err)
	}

	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM payment_records WHERE payment_id = $1);`, paymentID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check payment %s existence: %w", paymentID, err)
		}
		if !exists {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("%w: payment %s is no longer in status %s", apperrors.ErrConflict, paymentID, expected)
	}
	return nil
}

// FindPaymentByID retrieves a specific payment record.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_records WHERE payment_id = $1;`
	m, err := r.scanPaymentRow(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment by ID %s: %w", paymentID, err)
	}
	d := mapping.ToDomainPayment(*m)
	return &d, nil
}

// FindPaymentsByEscrowID retrieves every payout attempt for an escrow, oldest first.
func (r *PgxPaymentRepository) FindPaymentsByEscrowID(ctx context.Context, escrowID string) ([]domain.PaymentRecord, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		WHERE escrow_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, escrowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments for escrow %s: %w", escrowID, err)
	}
	defer rows.Close()

	modelPayments := []models.PaymentRecord{}
	for rows.Next() {
		m, err := r.scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		modelPayments = append(modelPayments, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return mapping.ToDomainPaymentSlice(modelPayments), nil
}

// ListPayments retrieves a filtered, token-paginated payout history, newest
// first. The cursor is (created_at, payment_id) so the ordering is stable
// across pages even when records share a timestamp.
func (r *PgxPaymentRepository) ListPayments(ctx context.Context, filters portsrepo.PaymentListFilters, limit int, nextToken *string) ([]domain.PaymentRecord, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// Fetch one extra row to determine if there is a next page.
	fetchLimit := limit + 1

	where := ""
	args := []interface{}{}
	addClause := func(clause string, arg interface{}) {
		args = append(args, arg)
		cond := clause + " $" + strconv.Itoa(len(args))
		if where == "" {
			where = "WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}

	if filters.NurseID != "" {
		addClause("nurse_id =", filters.NurseID)
	}
	if filters.EscrowID != "" {
		addClause("escrow_id =", filters.EscrowID)
	}
	if filters.Status != "" {
		addClause("status =", string(filters.Status))
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		args = append(args, lastCreatedAt, lastID)
		cursor := "(created_at, payment_id) < ($" + strconv.Itoa(len(args)-1) + ", $" + strconv.Itoa(len(args)) + ")"
		if where == "" {
			where = "WHERE " + cursor
		} else {
			where += " AND " + cursor
		}
	}

	args = append(args, fetchLimit)
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_records
		` + where + `
		ORDER BY created_at DESC, payment_id DESC
		LIMIT $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	modelPayments := make([]models.PaymentRecord, 0, fetchLimit)
	for rows.Next() {
		m, err := r.scanPaymentRow(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan payment row: %w", err)
		}
		modelPayments = append(modelPayments, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating payment rows: %w", err)
	}

	var newToken *string
	if len(modelPayments) > limit {
		modelPayments = modelPayments[:limit]
		last := modelPayments[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.PaymentID)
		newToken = &token
	}

	return mapping.ToDomainPaymentSlice(modelPayments), newToken, nil
}

// GetPayoutSummary aggregates payment records between from and to (inclusive).
// Completed totals join back to the escrow for the fee breakdown.
func (r *PgxPaymentRepository) GetPayoutSummary(ctx context.Context, from, to time.Time) (*portsrepo.PayoutSummary, error) {
	summary := &portsrepo.PayoutSummary{
		TotalCompleted:     decimal.Zero,
		TotalPlatformFees:  decimal.Zero,
		TotalProcessorFees: decimal.Zero,
		CountByStatus:      map[domain.PaymentStatus]int64{},
	}

	totalsQuery := `
		SELECT COALESCE(SUM(p.amount), 0), COALESCE(SUM(e.platform_fee), 0), COALESCE(SUM(e.processor_fee), 0)
		FROM payment_records p
		JOIN escrow_transactions e ON e.escrow_id = p.escrow_id
		WHERE p.status = 'COMPLETED' AND p.executed_at >= $1 AND p.executed_at <= $2;
	`
	err := r.Pool.QueryRow(ctx, totalsQuery, from, to).Scan(
		&summary.TotalCompleted, &summary.TotalPlatformFees, &summary.TotalProcessorFees,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate completed payouts: %w", err)
	}

	countsQuery := `
		SELECT status, COUNT(*)
		FROM payment_records
		WHERE created_at >= $1 AND created_at <= $2
		GROUP BY status;
	`
	rows, err := r.Pool.Query(ctx, countsQuery, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count payments by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan payment count row: %w", err)
		}
		summary.CountByStatus[domain.PaymentStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment count rows: %w", err)
	}

	return summary, nil
}

// scanPaymentRow scans one payment row in paymentColumns order.
func (r *PgxPaymentRepository) scanPaymentRow(row pgx.Row) (*models.PaymentRecord, error) {
	var m models.PaymentRecord
	err := row.Scan(
		&m.PaymentID, &m.EscrowID, &m.JobID, &m.NurseID,
		&m.Amount, &m.CurrencyCode, &m.Method, &m.Status,
		&m.GatewayRef, &m.FailureReason, &m.ExecutedAt, &m.ExecutedBy,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
