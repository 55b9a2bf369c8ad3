package models

import "time"

// JobStatus indicates where a job is in its lifecycle.
type JobStatus string

const (
	JobOpen      JobStatus = "OPEN"
	JobAssigned  JobStatus = "ASSIGNED"
	JobCompleted JobStatus = "COMPLETED"
	JobCancelled JobStatus = "CANCELLED"
)

// Job mirrors the jobs table.
type Job struct {
	JobID       string     `json:"jobID"` // Primary Key (UUID)
	OrganizerID string     `json:"organizerID"`
	NurseID     *string    `json:"nurseID"`
	Title       string     `json:"title"`
	EventDate   time.Time  `json:"eventDate"`
	Status      JobStatus  `json:"status"`
	CompletedAt *time.Time `json:"completedAt"`
	DisputeOpen bool       `json:"disputeOpen"`
	AuditFields
}
