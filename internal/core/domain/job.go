package domain

import "time"

// JobStatus indicates where a job is in its lifecycle.
type JobStatus string

const (
	JobOpen      JobStatus = "OPEN"
	JobAssigned  JobStatus = "ASSIGNED"
	JobCompleted JobStatus = "COMPLETED"
	JobCancelled JobStatus = "CANCELLED"
)

// Job represents an event shift posted by an organizer and worked by a nurse.
// Only the fields the payment core needs are modelled here: ownership for
// authorization, the assigned nurse as payout destination, the completion
// timestamp that starts the payout grace period, and the dispute flag that
// blocks automatic payout.
type Job struct {
	JobID       string     `json:"jobID"` // Primary Key (UUID)
	OrganizerID string     `json:"organizerID"`
	NurseID     *string    `json:"nurseID"` // Assigned nurse, nil until assignment
	Title       string     `json:"title"`
	EventDate   time.Time  `json:"eventDate"`
	Status      JobStatus  `json:"status"`
	CompletedAt *time.Time `json:"completedAt"` // Set when the organizer confirms completion
	DisputeOpen bool       `json:"disputeOpen"` // Open disputes exclude the job from batch payout
	AuditFields
}
