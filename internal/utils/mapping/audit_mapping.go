package mapping

import (
	"encoding/json"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/models"
)

// ToModelAuditLogEntry converts a domain AuditLogEntry to its model form,
// marshalling the metadata payload for the JSONB column.
func ToModelAuditLogEntry(d domain.AuditLogEntry) (models.AuditLogEntry, error) {
	var metadata []byte
	if d.Metadata != nil {
		var err error
		metadata, err = json.Marshal(d.Metadata)
		if err != nil {
			return models.AuditLogEntry{}, err
		}
	}
	return models.AuditLogEntry{
		AuditID:   d.AuditID,
		ActorID:   d.ActorID,
		Action:    string(d.Action),
		Target:    d.Target,
		Metadata:  metadata,
		CreatedAt: d.CreatedAt,
	}, nil
}

// ToDomainAuditLogEntry converts a model AuditLogEntry to a domain AuditLogEntry.
// Unparseable metadata is surfaced as a nil map rather than an error; audit
// reads must not fail over a single bad payload.
func ToDomainAuditLogEntry(m models.AuditLogEntry) domain.AuditLogEntry {
	var metadata map[string]any
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &metadata)
	}
	return domain.AuditLogEntry{
		AuditID:   m.AuditID,
		ActorID:   m.ActorID,
		Action:    domain.AuditAction(m.Action),
		Target:    m.Target,
		Metadata:  metadata,
		CreatedAt: m.CreatedAt,
	}
}

// ToDomainAuditLogSlice converts a slice of model entries to domain entries.
func ToDomainAuditLogSlice(ms []models.AuditLogEntry) []domain.AuditLogEntry {
	ds := make([]domain.AuditLogEntry, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAuditLogEntry(m)
	}
	return ds
}
