package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	portsrepo "github.com/shiftnurse/escrow_backend/internal/core/ports/repositories"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
)

// auditService records and queries the append-only audit log.
type auditService struct {
	auditRepo portsrepo.AuditLogRepository
	telemetry portssvc.Telemetry
}

// NewAuditService creates a new audit service. telemetry may be nil.
func NewAuditService(auditRepo portsrepo.AuditLogRepository, telemetry portssvc.Telemetry) portssvc.AuditSvcFacade {
	return &auditService{
		auditRepo: auditRepo,
		telemetry: telemetry,
	}
}

// Ensure auditService implements the portssvc.AuditSvcFacade interface
var _ portssvc.AuditSvcFacade = (*auditService)(nil)

// LogAction appends an audit entry. Persistence failures are absorbed: they
// are logged and reported to telemetry, never returned, so an audit outage
// cannot fail the payment operation that produced the event.
func (s *auditService) LogAction(ctx context.Context, actorID string, action domain.AuditAction, target string, metadata map[string]any) {
	entry := domain.AuditLogEntry{
		AuditID:   uuid.NewString(),
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	if err := s.auditRepo.SaveAuditLog(ctx, entry); err != nil {
		middleware.GetLoggerFromCtx(ctx).Error("Failed to persist audit entry",
			slog.String("action", string(action)),
			slog.String("target", target),
			slog.String("actor_id", actorID),
			slog.String("error", err.Error()),
		)
		if s.telemetry != nil {
			s.telemetry.Enqueue(actorID, "audit_write_failed", map[string]any{
				"action": string(action),
				"target": target,
				"error":  err.Error(),
			})
		}
	}
}

// ListAuditLogs retrieves entries matching the filters, newest first.
func (s *auditService) ListAuditLogs(ctx context.Context, filters portsrepo.AuditLogFilters) ([]domain.AuditLogEntry, error) {
	entries, err := s.auditRepo.ListAuditLogs(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	if entries == nil {
		return []domain.AuditLogEntry{}, nil
	}
	return entries, nil
}

// activityRules are the standard checks ScanActorActivity evaluates. A rule
// trips when the actor performed more than Threshold matching actions inside
// the trailing Window.
var activityRules = []domain.ActivityCheck{
	{
		Name:      "repeated_failed_logins",
		Actions:   []domain.AuditAction{domain.ActionAuthLoginFailed},
		Window:    15 * time.Minute,
		Threshold: 4,
	},
	{
		Name:      "repeated_failed_payouts",
		Actions:   []domain.AuditAction{domain.ActionPaymentFailed},
		Window:    24 * time.Hour,
		Threshold: 2,
	},
	{
		Name:      "high_frequency_money_movement",
		Actions:   []domain.AuditAction{domain.ActionEscrowFunded, domain.ActionEscrowReleased, domain.ActionEscrowRefunded, domain.ActionPaymentExecuted},
		Window:    5 * time.Minute,
		Threshold: 19,
	},
}

// ScanActorActivity evaluates every standard rule against the actor's recent
// audit trail.
func (s *auditService) ScanActorActivity(ctx context.Context, actorID string) ([]domain.ActivityCheck, error) {
	now := time.Now()
	checks := make([]domain.ActivityCheck, 0, len(activityRules))
	for _, rule := range activityRules {
		count, err := s.auditRepo.CountAuditLogsByActor(ctx, actorID, rule.Actions, now.Add(-rule.Window))
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate activity rule %s for actor %s: %w", rule.Name, actorID, err)
		}
		rule.Count = count
		rule.Flagged = count > rule.Threshold
		if rule.Flagged {
			middleware.GetLoggerFromCtx(ctx).Warn("Suspicious activity detected",
				slog.String("actor_id", actorID),
				slog.String("rule", rule.Name),
				slog.Int64("count", count),
				slog.Int64("threshold", rule.Threshold),
			)
		}
		checks = append(checks, rule)
	}
	return checks, nil
}

// DetectSuspiciousActivity reports whether the actor performed more than
// threshold occurrences of the given actions inside the trailing window.
func (s *auditService) DetectSuspiciousActivity(ctx context.Context, actorID string, actions []domain.AuditAction, window time.Duration, threshold int64) (bool, error) {
	since := time.Now().Add(-window)
	count, err := s.auditRepo.CountAuditLogsByActor(ctx, actorID, actions, since)
	if err != nil {
		return false, fmt.Errorf("failed to count audit logs for actor %s: %w", actorID, err)
	}
	if count > threshold {
		middleware.GetLoggerFromCtx(ctx).Warn("Suspicious activity detected",
			slog.String("actor_id", actorID),
			slog.Int64("count", count),
			slog.Int64("threshold", threshold),
			slog.Duration("window", window),
		)
		return true, nil
	}
	return false, nil
}
