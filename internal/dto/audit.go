package dto

import (
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// ListAuditLogsParams defines query parameters for listing audit log entries.
type ListAuditLogsParams struct {
	ActorID string `form:"actorID"`
	Action  string `form:"action"`
	Target  string `form:"target"`
	From    string `form:"from"` // RFC3339
	To      string `form:"to"`   // RFC3339
	Limit   int    `form:"limit,default=50"`
	Offset  int    `form:"offset,default=0"`
}

// AuditLogResponse defines the data returned for an audit log entry.
type AuditLogResponse struct {
	AuditID   string             `json:"auditID"`
	ActorID   string             `json:"actorID"`
	Action    domain.AuditAction `json:"action"`
	Target    string             `json:"target"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
}

// ListAuditLogsResponse wraps the list of audit log entries.
type ListAuditLogsResponse struct {
	Entries []AuditLogResponse `json:"entries"`
}

// ActivityCheckResponse defines the result of one suspicious-activity rule.
type ActivityCheckResponse struct {
	Name      string               `json:"name"`
	Actions   []domain.AuditAction `json:"actions"`
	Window    string               `json:"window"` // Go duration string, e.g. "15m0s"
	Threshold int64                `json:"threshold"`
	Count     int64                `json:"count"`
	Flagged   bool                 `json:"flagged"`
}

// ActivityReportResponse wraps the rule results for one user.
type ActivityReportResponse struct {
	UserID  string                  `json:"userID"`
	Flagged bool                    `json:"flagged"`
	Checks  []ActivityCheckResponse `json:"checks"`
}

// ToActivityReportResponse converts rule results into an ActivityReportResponse DTO
func ToActivityReportResponse(userID string, checks []domain.ActivityCheck) ActivityReportResponse {
	res := ActivityReportResponse{UserID: userID, Checks: make([]ActivityCheckResponse, len(checks))}
	for i, c := range checks {
		res.Checks[i] = ActivityCheckResponse{
			Name:      c.Name,
			Actions:   c.Actions,
			Window:    c.Window.String(),
			Threshold: c.Threshold,
			Count:     c.Count,
			Flagged:   c.Flagged,
		}
		if c.Flagged {
			res.Flagged = true
		}
	}
	return res
}

// ToAuditLogResponse converts a domain.AuditLogEntry to AuditLogResponse DTO
func ToAuditLogResponse(e *domain.AuditLogEntry) AuditLogResponse {
	return AuditLogResponse{
		AuditID:   e.AuditID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Target:    e.Target,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt,
	}
}

// ToListAuditLogsResponse converts a slice of domain.AuditLogEntry to ListAuditLogsResponse DTO
func ToListAuditLogsResponse(entries []domain.AuditLogEntry) ListAuditLogsResponse {
	res := make([]AuditLogResponse, len(entries))
	for i, e := range entries {
		res[i] = ToAuditLogResponse(&e)
	}
	return ListAuditLogsResponse{Entries: res}
}
