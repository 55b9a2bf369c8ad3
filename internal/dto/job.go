package dto

import (
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
)

// CreateJobRequest defines the data needed to create a new job.
type CreateJobRequest struct {
	Title     string    `json:"title" binding:"required"`
	EventDate time.Time `json:"eventDate" binding:"required"`
}

// AssignNurseRequest defines the data needed to assign a nurse to a job.
type AssignNurseRequest struct {
	NurseID string `json:"nurseID" binding:"required"`
}

// ListJobsParams defines query parameters for listing jobs.
type ListJobsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// JobResponse defines the data returned for a job.
type JobResponse struct {
	JobID         string           `json:"jobID"`
	OrganizerID   string           `json:"organizerID"`
	NurseID       *string          `json:"nurseID,omitempty"`
	Title         string           `json:"title"`
	EventDate     time.Time        `json:"eventDate"`
	Status        domain.JobStatus `json:"status"`
	CompletedAt   *time.Time       `json:"completedAt,omitempty"`
	DisputeOpen   bool             `json:"disputeOpen"`
	CreatedAt     time.Time        `json:"createdAt"`
	LastUpdatedAt time.Time        `json:"lastUpdatedAt"`
}

// ToJobResponse converts a domain.Job to JobResponse DTO
func ToJobResponse(j *domain.Job) JobResponse {
	return JobResponse{
		JobID:         j.JobID,
		OrganizerID:   j.OrganizerID,
		NurseID:       j.NurseID,
		Title:         j.Title,
		EventDate:     j.EventDate,
		Status:        j.Status,
		CompletedAt:   j.CompletedAt,
		DisputeOpen:   j.DisputeOpen,
		CreatedAt:     j.CreatedAt,
		LastUpdatedAt: j.LastUpdatedAt,
	}
}

// ToListJobsResponse converts a slice of domain.Job to JobResponse DTOs
func ToListJobsResponse(jobs []domain.Job) []JobResponse {
	res := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		res[i] = ToJobResponse(&j)
	}
	return res
}
