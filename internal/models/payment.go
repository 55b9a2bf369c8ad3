package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus indicates the state of a payout attempt.
type PaymentStatus string

const (
	PaymentScheduled  PaymentStatus = "SCHEDULED"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
)

// PaymentRecord mirrors the payment_records table.
type PaymentRecord struct {
	PaymentID     string          `json:"paymentID"` // Primary Key (UUID)
	EscrowID      string          `json:"escrowID"`
	JobID         string          `json:"jobID"`
	NurseID       string          `json:"nurseID"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	Method        string          `json:"method"`
	Status        PaymentStatus   `json:"status"`
	GatewayRef    string          `json:"gatewayRef"`
	FailureReason string          `json:"failureReason"`
	ExecutedAt    *time.Time      `json:"executedAt"`
	ExecutedBy    string          `json:"executedBy"`
	AuditFields
}
