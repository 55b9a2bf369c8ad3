package mapping

import (
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/models"
)

// ToModelPayment converts a domain PaymentRecord to a model PaymentRecord
func ToModelPayment(d domain.PaymentRecord) models.PaymentRecord {
	return models.PaymentRecord{
		PaymentID:     d.PaymentID,
		EscrowID:      d.EscrowID,
		JobID:         d.JobID,
		NurseID:       d.NurseID,
		Amount:        d.Amount,
		CurrencyCode:  d.CurrencyCode,
		Method:        string(d.Method),
		Status:        models.PaymentStatus(d.Status),
		GatewayRef:    d.GatewayRef,
		FailureReason: d.FailureReason,
		ExecutedAt:    d.ExecutedAt,
		ExecutedBy:    d.ExecutedBy,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model PaymentRecord to a domain PaymentRecord
func ToDomainPayment(m models.PaymentRecord) domain.PaymentRecord {
	return domain.PaymentRecord{
		PaymentID:     m.PaymentID,
		EscrowID:      m.EscrowID,
		JobID:         m.JobID,
		NurseID:       m.NurseID,
		Amount:        m.Amount,
		CurrencyCode:  m.CurrencyCode,
		Method:        domain.PaymentMethod(m.Method),
		Status:        domain.PaymentStatus(m.Status),
		GatewayRef:    m.GatewayRef,
		FailureReason: m.FailureReason,
		ExecutedAt:    m.ExecutedAt,
		ExecutedBy:    m.ExecutedBy,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts a slice of model PaymentRecords to domain PaymentRecords
func ToDomainPaymentSlice(ms []models.PaymentRecord) []domain.PaymentRecord {
	ds := make([]domain.PaymentRecord, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}
