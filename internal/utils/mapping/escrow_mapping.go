package mapping

import (
	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shiftnurse/escrow_backend/internal/models"
)

// ToModelEscrow converts a domain EscrowTransaction to a model EscrowTransaction
func ToModelEscrow(d domain.EscrowTransaction) models.EscrowTransaction {
	return models.EscrowTransaction{
		EscrowID:     d.EscrowID,
		JobID:        d.JobID,
		OrganizerID:  d.OrganizerID,
		NurseID:      d.NurseID,
		GrossAmount:  d.GrossAmount,
		PlatformFee:  d.PlatformFee,
		ProcessorFee: d.ProcessorFee,
		NetAmount:    d.NetAmount,
		CurrencyCode: d.CurrencyCode,
		Method:       string(d.Method),
		Status:       models.EscrowStatus(d.Status),
		ChargeRef:    d.ChargeRef,
		ReleasedAt:   d.ReleasedAt,
		RefundedAt:   d.RefundedAt,
		RefundReason: d.RefundReason,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainEscrow converts a model EscrowTransaction to a domain EscrowTransaction
func ToDomainEscrow(m models.EscrowTransaction) domain.EscrowTransaction {
	return domain.EscrowTransaction{
		EscrowID:     m.EscrowID,
		JobID:        m.JobID,
		OrganizerID:  m.OrganizerID,
		NurseID:      m.NurseID,
		GrossAmount:  m.GrossAmount,
		PlatformFee:  m.PlatformFee,
		ProcessorFee: m.ProcessorFee,
		NetAmount:    m.NetAmount,
		CurrencyCode: m.CurrencyCode,
		Method:       domain.PaymentMethod(m.Method),
		Status:       domain.EscrowStatus(m.Status),
		ChargeRef:    m.ChargeRef,
		ReleasedAt:   m.ReleasedAt,
		RefundedAt:   m.RefundedAt,
		RefundReason: m.RefundReason,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
