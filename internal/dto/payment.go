package dto

import (
	"time"

	"github.com/shiftnurse/escrow_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ListPaymentsParams defines query parameters for listing payment records.
type ListPaymentsParams struct {
	NurseID   string `form:"nurseID"`
	EscrowID  string `form:"escrowID"`
	Status    string `form:"status"`
	Limit     int    `form:"limit,default=20"`
	NextToken string `form:"nextToken"`
}

// PaymentResponse defines the data returned for a payment record.
type PaymentResponse struct {
	PaymentID     string               `json:"paymentID"`
	EscrowID      string               `json:"escrowID"`
	JobID         string               `json:"jobID"`
	NurseID       string               `json:"nurseID"`
	Amount        decimal.Decimal      `json:"amount"`
	Currency      string               `json:"currency"`
	Method        domain.PaymentMethod `json:"method"`
	Status        domain.PaymentStatus `json:"status"`
	GatewayRef    string               `json:"gatewayRef,omitempty"`
	FailureReason string               `json:"failureReason,omitempty"`
	ExecutedAt    *time.Time           `json:"executedAt,omitempty"`
	ExecutedBy    string               `json:"executedBy,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// ListPaymentsResponse wraps a page of payment records with the token for the
// next page. NextToken is empty on the last page.
type ListPaymentsResponse struct {
	Payments  []PaymentResponse `json:"payments"`
	NextToken string            `json:"nextToken,omitempty"`
}

// ToPaymentResponse converts a domain.PaymentRecord to PaymentResponse DTO
func ToPaymentResponse(p *domain.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		PaymentID:     p.PaymentID,
		EscrowID:      p.EscrowID,
		JobID:         p.JobID,
		NurseID:       p.NurseID,
		Amount:        p.Amount,
		Currency:      p.CurrencyCode,
		Method:        p.Method,
		Status:        p.Status,
		GatewayRef:    p.GatewayRef,
		FailureReason: p.FailureReason,
		ExecutedAt:    p.ExecutedAt,
		ExecutedBy:    p.ExecutedBy,
		CreatedAt:     p.CreatedAt,
	}
}

// ToListPaymentsResponse converts a page of domain.PaymentRecord to ListPaymentsResponse DTO
func ToListPaymentsResponse(payments []domain.PaymentRecord, nextToken string) ListPaymentsResponse {
	res := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		res[i] = ToPaymentResponse(&p)
	}
	return ListPaymentsResponse{Payments: res, NextToken: nextToken}
}
