package mapping

import (
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/models"
)

// ToModelJob converts a domain Job to a model Job
func ToModelJob(d domain.Job) models.Job {
	return models.Job{
		JobID:       d.JobID,
		OrganizerID: d.OrganizerID,
		NurseID:     d.NurseID,
		Title:       d.Title,
		EventDate:   d.EventDate,
		Status:      models.JobStatus(d.Status),
		CompletedAt: d.CompletedAt,
		DisputeOpen: d.DisputeOpen,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJob converts a model Job to a domain Job
func ToDomainJob(m models.Job) domain.Job {
	return domain.Job{
		JobID:       m.JobID,
		OrganizerID: m.OrganizerID,
		NurseID:     m.NurseID,
		Title:       m.Title,
		EventDate:   m.EventDate,
		Status:      domain.JobStatus(m.Status),
		CompletedAt: m.CompletedAt,
		DisputeOpen: m.DisputeOpen,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainJobSlice converts a slice of model Jobs to domain Jobs
func ToDomainJobSlice(ms []models.Job) []domain.Job {
	ds := make([]domain.Job, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainJob(m)
	}
	return ds
}
