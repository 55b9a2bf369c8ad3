package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EscrowStatus indicates the state of an escrow transaction.
type EscrowStatus string

const (
	EscrowPending  EscrowStatus = "PENDING"
	EscrowFunded   EscrowStatus = "FUNDED"
	EscrowReleased EscrowStatus = "RELEASED"
	EscrowRefunded EscrowStatus = "REFUNDED"
)

// EscrowTransaction mirrors the escrow_transactions table.
type EscrowTransaction struct {
	EscrowID     string          `json:"escrowID"` // Primary Key (UUID)
	JobID        string          `json:"jobID"`
	OrganizerID  string          `json:"organizerID"`
	NurseID      string          `json:"nurseID"`
	GrossAmount  decimal.Decimal `json:"grossAmount"`
	PlatformFee  decimal.Decimal `json:"platformFee"`
	ProcessorFee decimal.Decimal `json:"processorFee"`
	NetAmount    decimal.Decimal `json:"netAmount"`
	CurrencyCode string          `json:"currencyCode"`
	Method       string          `json:"method"`
	Status       EscrowStatus    `json:"status"`
	ChargeRef    string          `json:"chargeRef"`
	ReleasedAt   *time.Time      `json:"releasedAt"`
	RefundedAt   *time.Time      `json:"refundedAt"`
	RefundReason string          `json:"refundReason"`
	AuditFields
}
