package repositories

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// AuditLogFilters narrows an audit-log listing. Zero values mean "no filter".
type AuditLogFilters struct {
	ActorID string
	Action  domain.AuditAction
	Target  string
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// AuditLogRepository defines persistence for the append-only audit log.
// There are deliberately no update or delete operations.
type AuditLogRepository interface {
	// SaveAuditLog appends a single entry.
	SaveAuditLog(ctx context.Context, entry domain.AuditLogEntry) error

	// ListAuditLogs retrieves entries matching the filters, newest first,
	// with limit/offset pagination.
	ListAuditLogs(ctx context.Context, filters AuditLogFilters) ([]domain.AuditLogEntry, error)

	// CountAuditLogsByActor counts entries for an actor with one of the given
	// actions since the given time. Used by the suspicious-activity scan.
	CountAuditLogsByActor(ctx context.Context, actorID string, actions []domain.AuditAction, since time.Time) (int64, error)
}
