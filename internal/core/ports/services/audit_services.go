package services

import (
	"context"
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
)

// AuditLoggerSvc records audit events.
type AuditLoggerSvc interface {
	// LogAction appends an audit entry. It never returns an error to the
	// caller: persistence failures are logged and reported to telemetry so
	// the business operation that produced the event is unaffected.
	LogAction(ctx context.Context, actorID string, action domain.AuditAction, target string, metadata map[string]any)
}

// AuditReaderSvc defines read operations over the audit log
type AuditReaderSvc interface {
	// ListAuditLogs retrieves entries matching the filters, newest first.
	ListAuditLogs(ctx context.Context, filters repositories.AuditLogFilters) ([]domain.AuditLogEntry, error)

	// DetectSuspiciousActivity reports whether the actor exceeded the allowed
	// number of occurrences of the given actions inside the window ending now.
	DetectSuspiciousActivity(ctx context.Context, actorID string, actions []domain.AuditAction, window time.Duration, threshold int64) (bool, error)

	// ScanActorActivity evaluates the standard suspicious-activity rules
	// against the actor's recent audit trail and returns per-rule counts.
	ScanActorActivity(ctx context.Context, actorID string) ([]domain.ActivityCheck, error)
}

// AuditSvcFacade combines all audit-related service interfaces
type AuditSvcFacade interface {
	AuditLoggerSvc
	AuditReaderSvc
}
