package models

import "time"

// AuditLogEntry mirrors the audit_logs table. Metadata holds the raw JSONB
// payload; insert-only, no update path exists.
type AuditLogEntry struct {
	AuditID   string    `json:"auditID"` // Primary Key (UUID)
	ActorID   string    `json:"actorID"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Metadata  []byte    `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
}
