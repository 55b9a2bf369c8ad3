package domain

import "time"

// AuditAction identifies a sensitive action recorded in the audit log.
type AuditAction string

const (
	ActionEscrowCreated        AuditAction = "ESCROW_CREATED"
	ActionEscrowFunded         AuditAction = "ESCROW_FUNDED"
	ActionEscrowReleased       AuditAction = "ESCROW_RELEASED"
	ActionEscrowRefunded       AuditAction = "ESCROW_REFUNDED"
	ActionPaymentExecuted      AuditAction = "PAYMENT_EXECUTED"
	ActionPaymentFailed        AuditAction = "PAYMENT_FAILED"
	ActionPaymentPending       AuditAction = "PAYMENT_PENDING_RECONCILIATION"
	ActionRefundGatewayFailed  AuditAction = "REFUND_GATEWAY_FAILED"
	ActionBatchPayoutCompleted AuditAction = "BATCH_PAYOUT_COMPLETED"
	ActionAuthLoginFailed      AuditAction = "AUTH_LOGIN_FAILED"
	ActionAuthLoginSucceeded   AuditAction = "AUTH_LOGIN_SUCCEEDED"
	ActionDisputeOpened        AuditAction = "DISPUTE_OPENED"
	ActionDisputeResolved      AuditAction = "DISPUTE_RESOLVED"
)

// ActivityCheck is one suspicious-activity rule evaluated against an actor's
// recent audit trail.
type ActivityCheck struct {
	Name      string        `json:"name"`
	Actions   []AuditAction `json:"actions"`
	Window    time.Duration `json:"window"`
	Threshold int64         `json:"threshold"`
	Count     int64         `json:"count"`
	Flagged   bool          `json:"flagged"`
}

// AuditLogEntry is an immutable record of a sensitive action. Entries are
// append-only: nothing in the codebase updates or deletes them.
type AuditLogEntry struct {
	AuditID   string         `json:"auditID"` // Primary Key (UUID)
	ActorID   string         `json:"actorID"` // User ID or "system"
	Action    AuditAction    `json:"action"`
	Target    string         `json:"target"`   // Entity reference, e.g. "escrow:<id>"
	Metadata  map[string]any `json:"metadata"` // Opaque structured payload
	CreatedAt time.Time      `json:"createdAt"`
}
