package dto

import (
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateEscrowRequest defines the data needed to create a new escrow transaction.
type CreateEscrowRequest struct {
	JobID       string               `json:"jobID" binding:"required"`
	GrossAmount decimal.Decimal      `json:"grossAmount" binding:"required"`
	Currency    string               `json:"currency" binding:"required,currency_code"`
	Method      domain.PaymentMethod `json:"method" binding:"required,oneof=CARD BANK_TRANSFER"`
}

// RefundEscrowRequest defines the data needed to refund an escrow.
type RefundEscrowRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// EscrowResponse defines the data returned for an escrow transaction.
// Mirrors domain.EscrowTransaction; amounts are minor-unit decimal strings.
type EscrowResponse struct {
	EscrowID      string               `json:"escrowID"`
	JobID         string               `json:"jobID"`
	OrganizerID   string               `json:"organizerID"`
	NurseID       string               `json:"nurseID"`
	GrossAmount   decimal.Decimal      `json:"grossAmount"`
	PlatformFee   decimal.Decimal      `json:"platformFee"`
	ProcessorFee  decimal.Decimal      `json:"processorFee"`
	NetAmount     decimal.Decimal      `json:"netAmount"`
	Currency      string               `json:"currency"`
	Method        domain.PaymentMethod `json:"method"`
	Status        domain.EscrowStatus  `json:"status"`
	ChargeRef     string               `json:"chargeRef,omitempty"`
	ReleasedAt    *time.Time           `json:"releasedAt,omitempty"`
	RefundedAt    *time.Time           `json:"refundedAt,omitempty"`
	RefundReason  string               `json:"refundReason,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
	LastUpdatedAt time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy string               `json:"lastUpdatedBy"`
}

// ToEscrowResponse converts a domain.EscrowTransaction to EscrowResponse DTO
func ToEscrowResponse(esc *domain.EscrowTransaction) EscrowResponse {
	return EscrowResponse{
		EscrowID:      esc.EscrowID,
		JobID:         esc.JobID,
		OrganizerID:   esc.OrganizerID,
		NurseID:       esc.NurseID,
		GrossAmount:   esc.GrossAmount,
		PlatformFee:   esc.PlatformFee,
		ProcessorFee:  esc.ProcessorFee,
		NetAmount:     esc.NetAmount,
		Currency:      esc.CurrencyCode,
		Method:        esc.Method,
		Status:        esc.Status,
		ChargeRef:     esc.ChargeRef,
		ReleasedAt:    esc.ReleasedAt,
		RefundedAt:    esc.RefundedAt,
		RefundReason:  esc.RefundReason,
		CreatedAt:     esc.CreatedAt,
		CreatedBy:     esc.CreatedBy,
		LastUpdatedAt: esc.LastUpdatedAt,
		LastUpdatedBy: esc.LastUpdatedBy,
	}
}

// ReleaseEscrowResponse carries the released escrow and the payout attempt
// that followed it. Payment is nil when the payout did not complete; the
// batch runner or a retry picks it up later.
type ReleaseEscrowResponse struct {
	Escrow       EscrowResponse   `json:"escrow"`
	Payment      *PaymentResponse `json:"payment,omitempty"`
	PayoutStatus string           `json:"payoutStatus"` // COMPLETED, PROCESSING or FAILED
}

// ToListEscrowResponse converts a slice of domain.EscrowTransaction to EscrowResponse DTOs
func ToListEscrowResponse(escrows []domain.EscrowTransaction) []EscrowResponse {
	res := make([]EscrowResponse, len(escrows))
	for i, esc := range escrows {
		res[i] = ToEscrowResponse(&esc)
	}
	return res
}
