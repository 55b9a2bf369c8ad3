package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	"github.com/shiftnurse/escrow_backend/internal/models"
	"github.com/shiftnurse/escrow_backend/internal/utils/mapping"
)

// execer covers both *pgxpool.Pool and pgx.Tx, so audit inserts can join an
// open transaction or run standalone.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// insertAuditEntry appends one audit row through q. Escrow repositories call
// it with their open transaction so the audit write commits atomically with
// the state change it records.
func insertAuditEntry(ctx context.Context, q execer, entry domain.AuditLogEntry) error {
	m, err := mapping.ToModelAuditLogEntry(entry)
	if err != nil {
		return fmt.Errorf("failed to encode audit entry %s: %w", entry.AuditID, err)
	}

	query := `
		INSERT INTO audit_logs (audit_id, actor_id, action, target, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	if _, err := q.Exec(ctx, query, m.AuditID, m.ActorID, m.Action, m.Target, m.Metadata, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert audit entry %s: %w", entry.AuditID, err)
	}
	return nil
}

type PgxAuditLogRepository struct {
	BaseRepository
}

// newPgxAuditLogRepository creates a new repository for the append-only audit log.
func newPgxAuditLogRepository(pool *pgxpool.Pool) portsrepo.AuditLogRepository {
	return &PgxAuditLogRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAuditLogRepository implements portsrepo.AuditLogRepository
var _ portsrepo.AuditLogRepository = (*PgxAuditLogRepository)(nil)

// SaveAuditLog appends a single entry.
func (r *PgxAuditLogRepository) SaveAuditLog(ctx context.Context, entry domain.AuditLogEntry) error {
	return insertAuditEntry(ctx, r.Pool, entry)
}

// ListAuditLogs retrieves entries matching the filters, newest first.
func (r *PgxAuditLogRepository) ListAuditLogs(ctx context.Context, filters portsrepo.AuditLogFilters) ([]domain.AuditLogEntry, error) {
	query := `
		SELECT audit_id, actor_id, action, target, metadata, created_at
		FROM audit_logs
	`
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

	if filters.ActorID != "" {
		addClause("actor_id =", filters.ActorID)
	}
	if filters.Action != "" {
		addClause("action =", string(filters.Action))
	}
	if filters.Target != "" {
		addClause("target =", filters.Target)
	}
	if !filters.From.IsZero() {
		addClause("created_at >=", filters.From)
	}
	if !filters.To.IsZero() {
		addClause("created_at <=", filters.To)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query += where + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args)) + `;`

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	modelEntries := []models.AuditLogEntry{}
	for rows.Next() {
		var m models.AuditLogEntry
		if err := rows.Scan(&m.AuditID, &m.ActorID, &m.Action, &m.Target, &m.Metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit log row: %w", err)
		}
		modelEntries = append(modelEntries, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return mapping.ToDomainAuditLogSlice(modelEntries), nil
}

// CountAuditLogsByActor counts entries for an actor with one of the given
// actions since the given time.
func (r *PgxAuditLogRepository) CountAuditLogsByActor(ctx context.Context, actorID string, actions []domain.AuditAction, since time.Time) (int64, error) {
	actionStrs := make([]string, len(actions))
	for i, a := range actions {
		actionStrs[i] = string(a)
	}

	query := `
		SELECT COUNT(*)
		FROM audit_logs
		WHERE actor_id = $1 AND action = ANY($2) AND created_at >= $3;
	`
	var count int64
	if err := r.Pool.QueryRow(ctx, query, actorID, actionStrs, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit logs for actor %s: %w", actorID, err)
	}
	return count, nil
}
