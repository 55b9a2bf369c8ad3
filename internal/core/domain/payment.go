package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod identifies how money moves through the payment gateway.
type PaymentMethod string

const (
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
)

// KnownPaymentMethods lists every supported method, in declaration order.
var KnownPaymentMethods = []PaymentMethod{MethodCard, MethodBankTransfer}

// IsValid reports whether m is a supported payment method.
func (m PaymentMethod) IsValid() bool {
	for _, known := range KnownPaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// PaymentStatus indicates the state of a single payout attempt.
type PaymentStatus string

const (
	PaymentScheduled  PaymentStatus = "SCHEDULED"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
)

// IsTerminal reports whether the payment reached a final outcome.
// COMPLETED records are immutable; FAILED records are retried by creating a
// new record, never by mutating the failed one.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentCompleted || s == PaymentFailed
}

// SystemActorID is the reserved actor recorded for payments executed by the
// scheduled batch runner rather than a human admin.
const SystemActorID = "system"

// PaymentRecord represents one attempt to pay a nurse the net amount of a
// released escrow. At most one COMPLETED record exists per escrow.
type PaymentRecord struct {
	PaymentID     string          `json:"paymentID"` // Primary Key (UUID)
	EscrowID      string          `json:"escrowID"`  // Owning escrow
	JobID         string          `json:"jobID"`
	NurseID       string          `json:"nurseID"`
	Amount        decimal.Decimal `json:"amount"` // Always the escrow's netAmount
	CurrencyCode  string          `json:"currencyCode"`
	Method        PaymentMethod   `json:"method"`
	Status        PaymentStatus   `json:"status"`
	GatewayRef    string          `json:"gatewayRef"` // Gateway reference when known
	FailureReason string          `json:"failureReason"`
	ExecutedAt    *time.Time      `json:"executedAt"` // Set on a definitive outcome
	ExecutedBy    string          `json:"executedBy"` // Admin user ID or "system"
	AuditFields
}
